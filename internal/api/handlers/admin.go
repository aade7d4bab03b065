// admin.go — административные обработчики: вход, просмотр, выгрузка,
// очистка и принудительная синхронизация таблицы.
package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/Megha-r20/CyberNova-2026/internal/api/errors"
	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/spreadsheet"
)

// downloadFileName — имя файла выгрузки для браузера.
const downloadFileName = "cybernova_registrations.xlsx"

// loginRequest — тело POST /api/admin/login. Email необязателен.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse — ответ POST /api/admin/login.
type loginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// dataResponse — ответ GET /api/admin/data.
type dataResponse struct {
	Success bool                 `json:"success"`
	Data    []model.Registration `json:"data"`
	Count   int                  `json:"count"`
}

// messageResponse — ответ с текстовым сообщением.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// syncResponse — ответ POST /api/admin/sync-excel.
type syncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Synced  bool   `json:"synced"`
	Count   int    `json:"count"`
}

// AdminLogin — POST /api/admin/login.
// Любая неудача (включая пустой или невалидный JSON) даёт одинаковый 401.
func (h *APIHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresAt, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

// AdminData — GET /api/admin/data. Записи отдаются самыми новыми первыми.
func (h *APIHandler) AdminData(w http.ResponseWriter, r *http.Request) {
	recs, err := h.registrations.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, dataResponse{
		Success: true,
		Data:    recs,
		Count:   len(recs),
	})
}

// AdminDownload — GET /api/admin/download.
// Книга формируется в буфер целиком, чтобы ошибка не оборвала ответ на середине.
func (h *APIHandler) AdminDownload(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	count, err := h.registrations.Export(r.Context(), &buf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Ошибка отправки выгрузки", slog.String("error", err.Error()))
		return
	}

	h.logger.Info("Выгрузка отправлена", slog.Int("count", count))
}

// AdminClearAll — DELETE /api/admin/clear-all.
func (h *APIHandler) AdminClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.registrations.ClearAll(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "All registrations cleared",
	})
}

// AdminSyncExcel — POST /api/admin/sync-excel.
// Неудачная синхронизация не ошибка запроса: результат в поле synced.
func (h *APIHandler) AdminSyncExcel(w http.ResponseWriter, r *http.Request) {
	synced, count, err := h.registrations.SyncNow(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	msg := "Excel export synchronized"
	if !synced {
		msg = "Excel export sync failed"
	}
	writeJSON(w, http.StatusOK, syncResponse{
		Success: true,
		Message: msg,
		Synced:  synced,
		Count:   count,
	})
}
