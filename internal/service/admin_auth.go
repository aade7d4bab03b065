// admin_auth.go — вход администратора и выпуск/проверка JWT (HS256).
// Токен содержит role=admin и срок жизни TTL; серверного отзыва нет,
// выход — удаление токена на клиенте.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin — значение claim role в токене администратора.
const RoleAdmin = "admin"

// AdminClaims — claims токена администратора.
type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// AdminAuthConfig — параметры входа администратора.
type AdminAuthConfig struct {
	// Email — ожидаемый e-mail; пустой — вход только по паролю
	Email string
	// PasswordHash — bcrypt-хэш пароля
	PasswordHash []byte
	// Secret — ключ подписи HS256
	Secret []byte
	// Issuer — claim iss
	Issuer string
	// TTL — срок жизни токена
	TTL time.Duration
	// Now — источник времени (по умолчанию time.Now)
	Now func() time.Time
}

// AdminAuthService — вход администратора и проверка токенов.
type AdminAuthService struct {
	cfg    AdminAuthConfig
	now    func() time.Time
	parser *jwt.Parser
	logger *slog.Logger
}

// NewAdminAuthService создаёт сервис. Пустой хэш пароля отклоняет любой вход.
func NewAdminAuthService(cfg AdminAuthConfig, logger *slog.Logger) *AdminAuthService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AdminAuthService{
		cfg: cfg,
		now: now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithTimeFunc(now),
		),
		logger: logger.With(slog.String("component", "admin_auth")),
	}
}

// HashPassword возвращает bcrypt-хэш пароля (используется при старте,
// если задан EVR_ADMIN_PASSWORD вместо хэша).
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	return hash, nil
}

// Login проверяет учётные данные и выпускает токен.
// Любое несовпадение — ErrUnauthorized без уточнения причины.
func (s *AdminAuthService) Login(_ context.Context, email, password string) (string, time.Time, error) {
	if password == "" || len(s.cfg.PasswordHash) == 0 {
		return "", time.Time{}, ErrUnauthorized
	}

	email = strings.TrimSpace(email)
	if s.cfg.Email != "" && email != "" &&
		subtle.ConstantTimeCompare([]byte(strings.ToLower(email)), []byte(strings.ToLower(s.cfg.Email))) != 1 {
		s.logger.Warn("Неудачная попытка входа администратора")
		return "", time.Time{}, ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword(s.cfg.PasswordHash, []byte(password)); err != nil {
		s.logger.Warn("Неудачная попытка входа администратора")
		return "", time.Time{}, ErrUnauthorized
	}

	subject := s.cfg.Email
	if subject == "" {
		subject = RoleAdmin
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.cfg.TTL)
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Role: RoleAdmin,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	s.logger.Info("Администратор вошёл в систему", slog.String("jti", claims.ID))
	return token, expiresAt, nil
}

// Verify проверяет подпись, издателя, срок жизни и роль токена.
func (s *AdminAuthService) Verify(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrUnauthorized, err)
	}
	if claims.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
