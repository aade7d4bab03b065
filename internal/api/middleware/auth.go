// auth.go — JWT middleware для административных endpoints.
// Проверяет Bearer token администратора (HS256, iss, exp, role=admin).
// Любая ошибка — 401 с одним и тем же сообщением: отсутствующий,
// повреждённый и просроченный токен для клиента неразличимы.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/Megha-r20/CyberNova-2026/internal/api/errors"
	"github.com/Megha-r20/CyberNova-2026/internal/service"
)

// unauthorizedMessage — единое сообщение отказа.
const unauthorizedMessage = "Unauthorized"

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyClaims — claims администратора в контексте запроса.
const ContextKeyClaims contextKey = "admin_claims"

// TokenVerifier — проверка токена администратора.
// Реализуется service.AdminAuthService.
type TokenVerifier interface {
	Verify(token string) (*service.AdminClaims, error)
}

// AdminAuth возвращает middleware, пропускающий только запросы
// с действительным токеном администратора.
func AdminAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "admin_auth"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				apierrors.Unauthorized(w, unauthorizedMessage)
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, unauthorizedMessage)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext извлекает claims администратора из контекста.
// Возвращает nil, если запрос не прошёл AdminAuth.
func ClaimsFromContext(ctx context.Context) *service.AdminClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*service.AdminClaims)
	return claims
}

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
