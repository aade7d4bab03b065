// Пакет validation — проверка и нормализация входящих заявок.
//
// Validate проверяет каждое поле независимо и собирает все ошибки (без short-circuit).
// Sanitize приводит прошедшую проверку заявку к канонической форме хранения.
// Обе функции чистые: единственная зависимость Sanitize — переданное время.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
)

// Имена полей заявки (совпадают с JSON-ключами API).
const (
	FieldFullName           = "fullName"
	FieldRegistrationNumber = "registrationNumber"
	FieldEmail              = "email"
	FieldYear               = "year"
	FieldSection            = "section"
	FieldMobile             = "mobile"
	FieldWhatsappJoined     = "whatsappJoined"
)

// Ограничения длины полей.
const (
	minFullNameLen  = 3
	maxFullNameLen  = 100
	maxRegNumberLen = 20
	maxEmailLen     = 100
	maxSectionLen   = 10
)

var (
	regNumberRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	emailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRe    = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// DefaultYears — допустимые значения курса по умолчанию.
var DefaultYears = []string{"2nd Year", "3rd Year", "4th Year"}

// DefaultEmailMarkers — подстроки домена, подтверждающие институциональный адрес.
var DefaultEmailMarkers = []string{".edu", "college"}

// Rules — настраиваемая часть правил проверки.
type Rules struct {
	// Years — допустимые значения поля year (точное совпадение)
	Years []string
	// EmailMarkers — хотя бы одна подстрока должна входить в e-mail (без учёта регистра)
	EmailMarkers []string
}

// DefaultRules возвращает правила по умолчанию.
func DefaultRules() Rules {
	return Rules{Years: DefaultYears, EmailMarkers: DefaultEmailMarkers}
}

// FieldErrors — ошибки проверки по полям: имя поля → сообщение.
type FieldErrors map[string]string

// Valid сообщает, что ошибок нет.
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

// Validate проверяет заявку от недоверенного клиента.
// input — декодированное JSON-тело; значения строковых полей обязаны быть строками.
// Отсутствующее обязательное поле — всегда ошибка, значения по умолчанию не подставляются.
func Validate(input map[string]any, rules Rules) FieldErrors {
	errs := FieldErrors{}

	if v, ok := stringField(input, FieldFullName); !ok || v == "" {
		errs[FieldFullName] = "Full name is required"
	} else if n := utf8.RuneCountInString(v); n < minFullNameLen || n > maxFullNameLen {
		errs[FieldFullName] = fmt.Sprintf("Full name must be %d-%d characters", minFullNameLen, maxFullNameLen)
	}

	if v, ok := stringField(input, FieldRegistrationNumber); !ok || v == "" {
		errs[FieldRegistrationNumber] = "Registration number is required"
	} else if !regNumberRe.MatchString(v) || len(v) > maxRegNumberLen {
		errs[FieldRegistrationNumber] = fmt.Sprintf("Registration number must be alphanumeric, at most %d characters", maxRegNumberLen)
	}

	if v, ok := stringField(input, FieldEmail); !ok || v == "" {
		errs[FieldEmail] = "Email is required"
	} else if len(v) > maxEmailLen || !emailRe.MatchString(v) || !hasMarker(v, rules.EmailMarkers) {
		errs[FieldEmail] = "A valid college email is required"
	}

	if v, ok := stringField(input, FieldYear); !ok || v == "" {
		errs[FieldYear] = "Year of study is required"
	} else if !contains(rules.Years, v) {
		errs[FieldYear] = "Year of study must be one of: " + strings.Join(rules.Years, ", ")
	}

	if v, ok := stringField(input, FieldSection); !ok || v == "" {
		errs[FieldSection] = "Section is required"
	} else if utf8.RuneCountInString(v) > maxSectionLen {
		errs[FieldSection] = fmt.Sprintf("Section must be at most %d characters", maxSectionLen)
	}

	if v, ok := stringField(input, FieldMobile); !ok || v == "" {
		errs[FieldMobile] = "Mobile number is required"
	} else if !mobileRe.MatchString(v) {
		errs[FieldMobile] = "Mobile number must be 10 digits starting with 6-9"
	}

	return errs
}

// NormalizeWhatsApp приводит значение whatsappJoined к bool.
// Истина: true, "Yes", "yes", "true", 1. Всё остальное — false.
func NormalizeWhatsApp(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch val {
		case "Yes", "yes", "true":
			return true
		}
	case float64:
		return val == 1
	case int:
		return val == 1
	}
	return false
}

// Sanitize приводит проверенную заявку к канонической форме хранения.
// Timestamp всегда серверный (now); значение timestamp от клиента игнорируется.
func Sanitize(input map[string]any, now func() string) model.Registration {
	get := func(field string) string {
		v, _ := stringField(input, field)
		return v
	}
	return model.Registration{
		ID:                 uuid.NewString(),
		FullName:           get(FieldFullName),
		RegistrationNumber: strings.ToUpper(get(FieldRegistrationNumber)),
		Email:              strings.ToLower(get(FieldEmail)),
		Year:               get(FieldYear),
		Section:            strings.ToUpper(get(FieldSection)),
		Mobile:             get(FieldMobile),
		WhatsappJoined:     NormalizeWhatsApp(input[FieldWhatsappJoined]),
		Timestamp:          now(),
	}
}

// stringField возвращает обрезанное строковое значение поля.
// ok = false, если поле отсутствует или не является строкой.
func stringField(input map[string]any, field string) (string, bool) {
	raw, present := input[field]
	if !present || raw == nil {
		return "", false
	}
	s, isString := raw.(string)
	if !isString {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func hasMarker(email string, markers []string) bool {
	lower := strings.ToLower(email)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
