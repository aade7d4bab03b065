package service

import (
	"strings"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/domain/validation"
)

// duplicateLabels — подписи полей в сообщении о дубликате.
var duplicateLabels = map[string]string{
	validation.FieldRegistrationNumber: "Registration Number",
	validation.FieldEmail:              "Email",
	validation.FieldMobile:             "Mobile Number",
}

// FindDuplicate ищет запись, совпадающую с cand по уникальному полю.
// Порядок проверки фиксирован: registrationNumber → email → mobile;
// возвращается первое найденное поле. Номер и e-mail сравниваются
// без учёта регистра, телефон — точно.
//
// Вызывается только под gate, на наборе, загруженном в той же критической секции.
func FindDuplicate(records []model.Registration, cand model.Registration) (*DuplicateError, bool) {
	for _, field := range []string{
		validation.FieldRegistrationNumber,
		validation.FieldEmail,
		validation.FieldMobile,
	} {
		for _, r := range records {
			if collides(field, r, cand) {
				return newDuplicateError(field), true
			}
		}
	}
	return nil, false
}

func collides(field string, a, b model.Registration) bool {
	switch field {
	case validation.FieldRegistrationNumber:
		return strings.EqualFold(a.RegistrationNumber, b.RegistrationNumber)
	case validation.FieldEmail:
		return strings.EqualFold(a.Email, b.Email)
	case validation.FieldMobile:
		return a.Mobile == b.Mobile
	}
	return false
}

func newDuplicateError(field string) *DuplicateError {
	label, ok := duplicateLabels[field]
	if !ok {
		label = "Registration"
	}
	return &DuplicateError{Field: field, Label: label}
}
