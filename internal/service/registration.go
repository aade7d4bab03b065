// Пакет service — бизнес-логика сервиса регистрации CyberNova.
// RegistrationService — запись заявок, чтение и очистка для администратора,
// выгрузка и принудительная синхронизация xlsx.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/domain/validation"
	"github.com/Megha-r20/CyberNova-2026/internal/gate"
	"github.com/Megha-r20/CyberNova-2026/internal/spreadsheet"
	"github.com/Megha-r20/CyberNova-2026/internal/storage"
)

// RegistrationService — сервис регистрации участников.
// Все мутации хранилища выполняются под одним gate.
type RegistrationService struct {
	store  storage.Store
	gate   *gate.Gate
	slots  *SlotCounter
	syncer *ExportSyncer
	rules  validation.Rules
	now    func() time.Time
	logger *slog.Logger
}

// RegistrationConfig — параметры RegistrationService.
type RegistrationConfig struct {
	Rules validation.Rules
	// Now — источник времени (по умолчанию time.Now)
	Now func() time.Time
}

// NewRegistrationService создаёт сервис регистрации.
// g передаётся явно: тесты создают изолированные экземпляры.
func NewRegistrationService(
	store storage.Store,
	g *gate.Gate,
	slots *SlotCounter,
	syncer *ExportSyncer,
	cfg RegistrationConfig,
	logger *slog.Logger,
) *RegistrationService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RegistrationService{
		store:  store,
		gate:   g,
		slots:  slots,
		syncer: syncer,
		rules:  cfg.Rules,
		now:    now,
		logger: logger.With(slog.String("component", "registration")),
	}
}

// Register проверяет и сохраняет заявку.
// Порядок: потолок (по кэшу) → проверка полей → санитизация →
// под gate: загрузка, потолок, дубликаты, запись, синхронизация выгрузки.
func (s *RegistrationService) Register(ctx context.Context, input map[string]any) (model.Registration, error) {
	count, err := s.slots.Count(ctx)
	if err != nil {
		registrationsTotal.WithLabelValues(resultError).Inc()
		return model.Registration{}, s.storageError("ошибка подсчёта регистраций", err)
	}
	if s.slots.Exhausted(count) {
		registrationsTotal.WithLabelValues(resultClosed).Inc()
		return model.Registration{}, ErrSlotsExhausted
	}

	if fieldErrs := validation.Validate(input, s.rules); !fieldErrs.Valid() {
		registrationsTotal.WithLabelValues(resultInvalid).Inc()
		return model.Registration{}, &ValidationError{Fields: fieldErrs}
	}

	rec := validation.Sanitize(input, func() string {
		return model.FormatTimestamp(s.now())
	})

	err = s.gate.Do(ctx, func(ctx context.Context) error {
		recs, err := s.store.Load(ctx)
		if err != nil {
			return s.storageError("ошибка загрузки регистраций", err)
		}

		if s.slots.Exhausted(len(recs)) {
			s.slots.Set(len(recs))
			return ErrSlotsExhausted
		}

		if dup, found := FindDuplicate(recs, rec); found {
			return dup
		}

		if err := s.store.Append(ctx, rec); err != nil {
			var keyErr *storage.DuplicateKeyError
			if errors.As(err, &keyErr) {
				return newDuplicateError(keyErr.Key)
			}
			return s.storageError("ошибка записи регистрации", err)
		}

		recs = append(recs, rec)
		s.slots.Set(len(recs))
		s.syncer.Submit(ctx, recs)
		return nil
	})
	if err != nil {
		registrationsTotal.WithLabelValues(resultLabel(err)).Inc()
		return model.Registration{}, err
	}

	registrationsTotal.WithLabelValues(resultAccepted).Inc()
	s.logger.Info("Регистрация принята",
		slog.String("id", rec.ID),
		slog.String("registration_number", rec.RegistrationNumber),
	)
	return rec, nil
}

// List возвращает все записи, самые новые первыми.
// Выполняется без gate: чтение не мешает мутациям.
func (s *RegistrationService) List(ctx context.Context) ([]model.Registration, error) {
	recs, err := s.store.Load(ctx)
	if err != nil {
		return nil, s.storageError("ошибка загрузки регистраций", err)
	}
	slices.Reverse(recs)
	return recs, nil
}

// Export пишет xlsx со всеми записями в порядке записи в w.
func (s *RegistrationService) Export(ctx context.Context, w io.Writer) (int, error) {
	recs, err := s.store.Load(ctx)
	if err != nil {
		return 0, s.storageError("ошибка загрузки регистраций", err)
	}
	if err := spreadsheet.Write(w, recs); err != nil {
		return 0, fmt.Errorf("ошибка формирования выгрузки: %w", err)
	}
	return len(recs), nil
}

// ClearAll удаляет все записи. Повторный вызов — не ошибка.
func (s *RegistrationService) ClearAll(ctx context.Context) error {
	return s.gate.Do(ctx, func(ctx context.Context) error {
		if err := s.store.Clear(ctx); err != nil {
			return s.storageError("ошибка очистки хранилища", err)
		}
		s.slots.Set(0)
		s.syncer.Submit(ctx, []model.Registration{})
		s.logger.Warn("Все регистрации удалены администратором")
		return nil
	})
}

// SyncNow принудительно синхронизирует выгрузку под gate, независимо от
// EVR_SYNC_ENABLED. Возвращает признак успеха и число записей.
func (s *RegistrationService) SyncNow(ctx context.Context) (synced bool, count int, err error) {
	err = s.gate.Do(ctx, func(ctx context.Context) error {
		recs, err := s.store.Load(ctx)
		if err != nil {
			return s.storageError("ошибка загрузки регистраций", err)
		}
		count = len(recs)
		synced = s.syncer.Sync(ctx, recs)
		return nil
	})
	return synced, count, err
}

// SlotsLeft возвращает число свободных слотов и количество регистраций.
// При отключённом потолке slotsLeft = Unlimited.
func (s *RegistrationService) SlotsLeft(ctx context.Context) (slotsLeft, total int, err error) {
	total, err = s.slots.Count(ctx)
	if err != nil {
		return 0, 0, s.storageError("ошибка подсчёта регистраций", err)
	}
	return s.slots.Left(total), total, nil
}

// storageError логирует подробности и возвращает ErrStorage с контекстом.
func (s *RegistrationService) storageError(msg string, err error) error {
	s.logger.Error(msg, slog.String("error", err.Error()))
	return fmt.Errorf("%w: %s: %v", ErrStorage, msg, err)
}

func resultLabel(err error) string {
	var dup *DuplicateError
	switch {
	case errors.As(err, &dup):
		return resultDuplicate
	case errors.Is(err, ErrSlotsExhausted):
		return resultClosed
	default:
		return resultError
	}
}
