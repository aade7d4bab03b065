package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
)

func newTestSyncer(t *testing.T, mode SyncMode, attempts int) *ExportSyncer {
	t.Helper()
	return NewExportSyncer(ExportSyncConfig{
		Path:     filepath.Join(t.TempDir(), "export.xlsx"),
		Enabled:  true,
		Mode:     mode,
		Attempts: attempts,
		Delay:    time.Millisecond,
	}, testLogger())
}

// TestExportSyncer_RetriesThenSucceeds проверяет повтор после временной ошибки.
func TestExportSyncer_RetriesThenSucceeds(t *testing.T) {
	s := newTestSyncer(t, SyncInline, 3)

	calls := 0
	s.write = func(string, []model.Registration) error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	}

	if !s.Sync(context.Background(), nil) {
		t.Fatal("ожидался успех на третьей попытке")
	}
	if calls != 3 {
		t.Errorf("ожидалось 3 вызова, получено %d", calls)
	}
}

// TestExportSyncer_GivesUp проверяет ограничение числа попыток.
func TestExportSyncer_GivesUp(t *testing.T) {
	s := newTestSyncer(t, SyncInline, 2)

	calls := 0
	s.write = func(string, []model.Registration) error {
		calls++
		return errors.New("busy")
	}

	if s.Sync(context.Background(), nil) {
		t.Fatal("ожидался отказ")
	}
	if calls != 2 {
		t.Errorf("ожидалось 2 вызова, получено %d", calls)
	}
}

// TestExportSyncer_Disabled проверяет, что Submit ничего не делает при Enabled=false.
func TestExportSyncer_Disabled(t *testing.T) {
	s := newTestSyncer(t, SyncInline, 1)
	s.cfg.Enabled = false

	s.write = func(string, []model.Registration) error {
		t.Error("write не должен вызываться")
		return nil
	}
	s.Submit(context.Background(), nil)
}

// TestExportSyncer_BackgroundLatestWins проверяет, что фоновый режим
// в итоге записывает последний снимок.
func TestExportSyncer_BackgroundLatestWins(t *testing.T) {
	s := newTestSyncer(t, SyncBackground, 1)

	var (
		mu      sync.Mutex
		lastLen = -1
	)
	s.write = func(_ string, recs []model.Registration) error {
		mu.Lock()
		lastLen = len(recs)
		mu.Unlock()
		return nil
	}

	s.Start(context.Background())
	for i := 1; i <= 5; i++ {
		s.Submit(context.Background(), make([]model.Registration, i))
	}
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	if lastLen != 5 {
		t.Errorf("последний записанный снимок содержит %d записей, ожидалось 5", lastLen)
	}
}
