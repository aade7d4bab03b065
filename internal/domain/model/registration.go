// Пакет model — доменные модели сервиса регистрации CyberNova.
// Registration — единственная сущность: заявка участника мероприятия.
package model

import (
	"strings"
	"time"
)

// TimestampLayout — формат времени регистрации (ISO-8601, UTC, миллисекунды).
// Совпадает с форматом Date.toISOString(), которым пользуется фронтенд.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Registration — запись о регистрации участника.
// После записи в хранилище не изменяется; удаляется только массово (clear-all).
type Registration struct {
	// ID — UUID записи (назначается сервером при санитизации)
	ID string `json:"id" bson:"id"`
	// FullName — ФИО участника (3-100 символов)
	FullName string `json:"fullName" bson:"fullName"`
	// RegistrationNumber — номер студенческого, в верхнем регистре
	RegistrationNumber string `json:"registrationNumber" bson:"registrationNumber"`
	// Email — институциональный e-mail, в нижнем регистре
	Email string `json:"email" bson:"email"`
	// Year — курс обучения из фиксированного набора
	Year string `json:"year" bson:"year"`
	// Section — группа, в верхнем регистре
	Section string `json:"section" bson:"section"`
	// Mobile — 10 цифр, первая 6-9
	Mobile string `json:"mobile" bson:"mobile"`
	// WhatsappJoined — участник вступил в WhatsApp-группу
	WhatsappJoined bool `json:"whatsappJoined" bson:"whatsappJoined"`
	// Timestamp — серверное время записи в формате TimestampLayout
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

// FormatTimestamp приводит время к каноническому формату записи.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp разбирает время из канонического формата.
// Для записей, созданных сторонними инструментами, принимается и RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// WhatsAppLabel возвращает "Yes"/"No" для выгрузки в таблицу.
func WhatsAppLabel(joined bool) string {
	if joined {
		return "Yes"
	}
	return "No"
}

// ParseWhatsAppLabel — обратное преобразование значения ячейки таблицы.
func ParseWhatsAppLabel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

// Columns — заголовки столбцов выгрузки в фиксированном порядке.
var Columns = []string{
	"Full Name",
	"Registration Number",
	"Email",
	"Year",
	"Section",
	"Mobile",
	"WhatsApp",
	"Timestamp",
}

// Row возвращает каноническое строковое представление записи
// в порядке Columns.
func (r Registration) Row() []string {
	return []string{
		r.FullName,
		r.RegistrationNumber,
		r.Email,
		r.Year,
		r.Section,
		r.Mobile,
		WhatsAppLabel(r.WhatsappJoined),
		r.Timestamp,
	}
}

// FromRow восстанавливает запись из строки таблицы (порядок Columns).
// Недостающие ячейки считаются пустыми.
func FromRow(cells []string) Registration {
	get := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return Registration{
		FullName:           get(0),
		RegistrationNumber: get(1),
		Email:              get(2),
		Year:               get(3),
		Section:            get(4),
		Mobile:             get(5),
		WhatsappJoined:     ParseWhatsAppLabel(get(6)),
		Timestamp:          get(7),
	}
}
