// registration.go — публичные обработчики: регистрация и свободные слоты.
package handlers

import (
	"net/http"

	apierrors "github.com/Megha-r20/CyberNova-2026/internal/api/errors"
	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
)

// registerResponse — ответ POST /api/register.
type registerResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    model.Registration `json:"data"`
}

// slotsLeftResponse — ответ GET /api/slots-left.
// SlotsLeft = -1 при отключённом потолке.
type slotsLeftResponse struct {
	Success         bool `json:"success"`
	SlotsLeft       int  `json:"slotsLeft"`
	TotalRegistered int  `json:"totalRegistered"`
}

// Register — POST /api/register.
// Тело разбирается в map: валидация сама проверяет типы полей.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input map[string]any
	if err := decodeJSON(w, r, &input); err != nil || input == nil {
		apierrors.ValidationError(w, msgInvalidBody, nil)
		return
	}

	rec, err := h.registrations.Register(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "Registration successful",
		Data:    rec,
	})
}

// SlotsLeft — GET /api/slots-left.
func (h *APIHandler) SlotsLeft(w http.ResponseWriter, r *http.Request) {
	left, total, err := h.registrations.SlotsLeft(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, slotsLeftResponse{
		Success:         true,
		SlotsLeft:       left,
		TotalRegistered: total,
	})
}
