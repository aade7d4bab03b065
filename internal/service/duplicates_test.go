package service

import (
	"context"
	"testing"
	"time"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/domain/validation"
)

// TestFindDuplicate проверяет порядок и правила сравнения полей.
func TestFindDuplicate(t *testing.T) {
	existing := []model.Registration{
		{RegistrationNumber: "KARE1", Email: "a@college.edu", Mobile: "9000000001"},
		{RegistrationNumber: "KARE2", Email: "b@college.edu", Mobile: "9000000002"},
	}

	tests := []struct {
		name      string
		cand      model.Registration
		wantField string
	}{
		{"нет совпадений", model.Registration{RegistrationNumber: "KARE3", Email: "c@college.edu", Mobile: "9000000003"}, ""},
		{"номер без учёта регистра", model.Registration{RegistrationNumber: "kare1", Email: "c@college.edu", Mobile: "9000000003"}, validation.FieldRegistrationNumber},
		{"email без учёта регистра", model.Registration{RegistrationNumber: "KARE3", Email: "B@College.EDU", Mobile: "9000000003"}, validation.FieldEmail},
		{"телефон", model.Registration{RegistrationNumber: "KARE3", Email: "c@college.edu", Mobile: "9000000002"}, validation.FieldMobile},
		{"все три совпадают — номер первым", model.Registration{RegistrationNumber: "KARE2", Email: "a@college.edu", Mobile: "9000000001"}, validation.FieldRegistrationNumber},
		{"email и телефон разных записей — email первым", model.Registration{RegistrationNumber: "KARE3", Email: "b@college.edu", Mobile: "9000000001"}, validation.FieldEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup, found := FindDuplicate(existing, tt.cand)
			if tt.wantField == "" {
				if found {
					t.Errorf("неожиданный дубликат по %s", dup.Field)
				}
				return
			}
			if !found || dup.Field != tt.wantField {
				t.Errorf("получено %+v, ожидалось поле %s", dup, tt.wantField)
			}
		})
	}
}

// TestSlotCounter проверяет потолок, остаток и кэш.
func TestSlotCounter(t *testing.T) {
	sc := NewSlotCounter(nil, 3, time.Minute)

	if sc.Exhausted(2) || !sc.Exhausted(3) || !sc.Exhausted(4) {
		t.Error("неверная проверка потолка")
	}
	if sc.Left(1) != 2 || sc.Left(5) != 0 {
		t.Errorf("Left: %d, %d", sc.Left(1), sc.Left(5))
	}

	sc.Set(2)
	if n, err := sc.Count(context.Background()); err != nil || n != 2 {
		t.Errorf("Count из кэша = %d, %v; ожидалось 2", n, err)
	}

	unlimited := NewSlotCounter(nil, 0, 0)
	if unlimited.Exhausted(1_000_000) || unlimited.Left(5) != Unlimited {
		t.Error("при ceiling=0 потолок должен быть отключён")
	}
}
