package storage

import (
	"context"
	"fmt"
	"time"
)

// readyTimeout — таймаут проверки готовности хранилища.
const readyTimeout = 3 * time.Second

// ReadinessChecker — проверка готовности хранилища для /health/ready.
type ReadinessChecker struct {
	store   Store
	backend string
}

// NewReadinessChecker создаёт проверку готовности для хранилища backend.
func NewReadinessChecker(store Store, backend string) *ReadinessChecker {
	return &ReadinessChecker{store: store, backend: backend}
}

// CheckReady вызывает Ping хранилища.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("хранилище %s недоступно: %v", c.backend, err)
	}
	return "ok", fmt.Sprintf("хранилище %s доступно", c.backend)
}
