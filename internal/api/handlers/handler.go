// handler.go — основной обработчик API сервиса регистрации.
// Объединяет health, публичные и административные обработчики
// и регистрирует их маршруты на chi.Router (HandlerFromMux).
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Megha-r20/CyberNova-2026/internal/api/errors"
	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/service"
)

// maxBodyBytes — ограничение размера тела JSON-запроса (16 КБ).
const maxBodyBytes = 16 << 10

// Сообщения ответов.
const (
	msgInternalError = "Internal server error"
	msgInvalidBody   = "Invalid request body"
	msgNotFound      = "Not found"
	msgSlotsClosed   = "Registration closed: all slots are filled"
)

// RegistrationService — операции сервиса регистрации, нужные API.
// Реализуется service.RegistrationService.
type RegistrationService interface {
	Register(ctx context.Context, input map[string]any) (model.Registration, error)
	List(ctx context.Context) ([]model.Registration, error)
	Export(ctx context.Context, w io.Writer) (int, error)
	ClearAll(ctx context.Context) error
	SyncNow(ctx context.Context) (synced bool, count int, err error)
	SlotsLeft(ctx context.Context) (slotsLeft, total int, err error)
}

// AdminAuthenticator — вход администратора.
// Реализуется service.AdminAuthService.
type AdminAuthenticator interface {
	Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, err error)
}

// APIHandler — основной обработчик API.
type APIHandler struct {
	health        *HealthHandler
	registrations RegistrationService
	auth          AdminAuthenticator
	now           func() time.Time
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	registrations RegistrationService,
	auth AdminAuthenticator,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		registrations: registrations,
		auth:          auth,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// HandlerFromMux регистрирует все маршруты API на r.
// adminAuth оборачивает административные маршруты (кроме /api/admin/login).
func HandlerFromMux(h *APIHandler, r chi.Router, adminAuth func(http.Handler) http.Handler) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.APIHealth)
		r.Get("/slots-left", h.SlotsLeft)
		r.Post("/register", h.Register)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(adminAuth)
				r.Get("/data", h.AdminData)
				r.Get("/download", h.AdminDownload)
				r.Delete("/clear-all", h.AdminClearAll)
				r.Post("/sync-excel", h.AdminSyncExcel)
			})
		})
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)
}

// NotFound — JSON-ответ 404 для неизвестных маршрутов.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	apierrors.NotFound(w, msgNotFound)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса (не более maxBodyBytes) в dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError отображает ошибку сервисного слоя в HTTP-ответ.
// Подробности внутренних ошибок только логируются.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *service.ValidationError
		duplicateErr  *service.DuplicateError
	)

	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationError(w, validationErr.Error(), validationErr.Fields)
	case errors.As(err, &duplicateErr):
		apierrors.Conflict(w, duplicateErr.Error(), duplicateErr.Field)
	case errors.Is(err, service.ErrSlotsExhausted):
		apierrors.SlotsExhausted(w, msgSlotsClosed)
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, "Unauthorized")
	default:
		h.logger.Error("Ошибка обработки запроса",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, msgInternalError)
	}
}
