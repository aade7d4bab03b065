// Пакет errors — конструкторы стандартных ошибок API.
// Единый формат: {"success": false, "code": "...", "message": "...", "errors": {...}, "field": "..."}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeSlotsExhausted  = "SLOTS_EXHAUSTED"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeConflict        = "CONFLICT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Field   string            `json:"field,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	write(w, statusCode, errorBody{Code: code, Message: message})
}

func write(w http.ResponseWriter, statusCode int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 с ошибками по полям.
func ValidationError(w http.ResponseWriter, message string, fields map[string]string) {
	write(w, http.StatusBadRequest, errorBody{
		Code:    CodeValidationError,
		Message: message,
		Errors:  fields,
	})
}

// SlotsExhausted — 400 регистрация закрыта.
func SlotsExhausted(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeSlotsExhausted, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Conflict — 409 дубликат; field — имя совпавшего поля.
func Conflict(w http.ResponseWriter, message, field string) {
	write(w, http.StatusConflict, errorBody{
		Code:    CodeConflict,
		Message: message,
		Field:   field,
	})
}

// InternalError — 500 внутренняя ошибка сервера.
// Детали не раскрываются клиенту.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
