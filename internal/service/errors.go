// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/validation"
)

var (
	// ErrSlotsExhausted — достигнут потолок регистраций.
	ErrSlotsExhausted = errors.New("registration closed: all slots are filled")
	// ErrUnauthorized — неверные учётные данные или токен (причина не раскрывается).
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrStorage — ошибка чтения или записи основного хранилища.
	ErrStorage = errors.New("ошибка хранилища")
)

// ValidationError — заявка не прошла проверку; Fields — ошибки по полям.
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	return "Validation failed"
}

// DuplicateError — заявка совпала с существующей записью по полю Field.
type DuplicateError struct {
	// Field — имя поля API (registrationNumber, email, mobile)
	Field string
	// Label — человекочитаемое имя поля
	Label string
}

func (e *DuplicateError) Error() string {
	return "Duplicate registration found: " + e.Label + " already registered"
}
