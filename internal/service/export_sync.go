// export_sync.go — best-effort зеркалирование основного хранилища в xlsx-выгрузку.
//
// Выгрузка всегда перезаписывается целиком (temp → rename), поэтому сбой
// оставляет предыдущую версию файла. Ошибка синхронизации только логируется
// и учитывается в метриках: на результат регистрации она не влияет.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/spreadsheet"
)

// SyncMode — политика запуска синхронизации после мутации.
type SyncMode string

const (
	// SyncInline — синхронизация под gate до ответа клиенту.
	SyncInline SyncMode = "inline"
	// SyncBackground — фоновый воркер; при серии мутаций пишется последний снимок.
	SyncBackground SyncMode = "background"
)

// ExportSyncConfig — параметры синхронизации выгрузки.
type ExportSyncConfig struct {
	// Path — путь к файлу выгрузки
	Path string
	// Enabled — запускать синхронизацию после каждой мутации
	Enabled bool
	// Mode — inline или background
	Mode SyncMode
	// Attempts — максимальное число попыток (>= 1)
	Attempts int
	// Delay — базовая задержка; перед попыткой n+1 ждём Delay*n
	Delay time.Duration
}

// ExportSyncer — синхронизация xlsx-выгрузки.
type ExportSyncer struct {
	cfg    ExportSyncConfig
	logger *slog.Logger
	write  func(path string, recs []model.Registration) error

	mu      sync.Mutex
	pending []model.Registration
	dirty   bool
	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewExportSyncer создаёт синхронизатор. Для режима background нужен Start.
func NewExportSyncer(cfg ExportSyncConfig, logger *slog.Logger) *ExportSyncer {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Mode == "" {
		cfg.Mode = SyncInline
	}
	return &ExportSyncer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "export_sync")),
		write:  spreadsheet.WriteFile,
		wake:   make(chan struct{}, 1),
	}
}

// Path возвращает путь к файлу выгрузки.
func (s *ExportSyncer) Path() string {
	return s.cfg.Path
}

// Sync перезаписывает выгрузку набором recs с повторами.
// Возвращает true при успехе. Ошибки не возвращаются: они логируются.
func (s *ExportSyncer) Sync(ctx context.Context, recs []model.Registration) bool {
	start := time.Now()
	defer func() {
		exportSyncDuration.Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Attempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, s.cfg.Delay*time.Duration(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}

		lastErr = s.write(s.cfg.Path, recs)
		if lastErr == nil {
			exportSyncTotal.WithLabelValues("ok").Inc()
			s.logger.Debug("Выгрузка синхронизирована",
				slog.Int("records", len(recs)),
				slog.Int("attempt", attempt),
			)
			return true
		}

		s.logger.Warn("Ошибка синхронизации выгрузки",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.cfg.Attempts),
			slog.String("error", lastErr.Error()),
		)
	}

	exportSyncTotal.WithLabelValues("failed").Inc()
	s.logger.Error("Синхронизация выгрузки не удалась, попытки исчерпаны",
		slog.String("path", s.cfg.Path),
		slog.String("error", fmt.Sprint(lastErr)),
	)
	return false
}

// Submit запускает синхронизацию после мутации согласно политике.
// recs — снимок, сделанный под gate; вызывающий не должен его изменять.
func (s *ExportSyncer) Submit(ctx context.Context, recs []model.Registration) {
	if !s.cfg.Enabled {
		return
	}
	if s.cfg.Mode == SyncInline {
		s.Sync(ctx, recs)
		return
	}

	s.mu.Lock()
	s.pending = recs
	s.dirty = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start запускает фоновый воркер (только для режима background).
func (s *ExportSyncer) Start(ctx context.Context) {
	if !s.cfg.Enabled || s.cfg.Mode != SyncBackground || s.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				s.flush(context.WithoutCancel(ctx))
			}
		}
	}()

	s.logger.Info("Фоновая синхронизация выгрузки запущена")
}

// Stop останавливает воркер и записывает последний неотправленный снимок.
func (s *ExportSyncer) Stop() {
	if s.done == nil {
		return
	}
	s.cancel()
	<-s.done
	s.flush(context.Background())
	s.logger.Info("Фоновая синхронизация выгрузки остановлена")
}

// flush пишет последний снимок, если он ещё не записан.
func (s *ExportSyncer) flush(ctx context.Context) {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	recs := s.pending
	s.pending, s.dirty = nil, false
	s.mu.Unlock()

	s.Sync(ctx, recs)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
