// Пакет storage — контракт долговременного хранилища регистраций.
// Реализации (jsonstore, xlsxstore, mongostore, pgstore) взаимозаменяемы
// и выбираются при старте по конфигурации (EVR_STORAGE_BACKEND).
//
// Хранилище не сериализует конкурентные изменения само: все мутации
// выполняются под единым gate.Gate сервисного слоя.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
)

// ErrDuplicate — хранилище отклонило запись по уникальному индексу.
// Файловые хранилища этой ошибки не возвращают: уникальность проверяется
// сервисом до записи.
var ErrDuplicate = errors.New("нарушение уникальности")

// Store — долговременное хранилище записей о регистрации.
type Store interface {
	// Load возвращает все записи в порядке записи (самая старая первой).
	Load(ctx context.Context) ([]model.Registration, error)
	// Append добавляет одну запись. При ошибке предыдущее состояние сохраняется.
	Append(ctx context.Context, rec model.Registration) error
	// ReplaceAll заменяет набор записей целиком.
	ReplaceAll(ctx context.Context, recs []model.Registration) error
	// Clear удаляет все записи. Повторный вызов на пустом хранилище — не ошибка.
	Clear(ctx context.Context) error
	// Ping проверяет доступность хранилища (readiness probe).
	Ping(ctx context.Context) error
	// Close освобождает ресурсы.
	Close(ctx context.Context) error
}

// Counter — необязательная возможность хранилища посчитать записи
// без полной загрузки (используется счётчиком слотов).
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// DuplicateKeyError — нарушение уникального индекса на стороне БД.
// Key — имя поля записи (registrationNumber, email, mobile), если его удалось определить.
type DuplicateKeyError struct {
	Key string
	Err error
}

func (e *DuplicateKeyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("нарушение уникальности: %v", e.Err)
	}
	return fmt.Sprintf("нарушение уникальности по полю %s: %v", e.Key, e.Err)
}

// Unwrap позволяет errors.Is(err, ErrDuplicate).
func (e *DuplicateKeyError) Unwrap() []error {
	return []error{ErrDuplicate, e.Err}
}

// Count возвращает количество записей: через Counter, если хранилище
// его поддерживает, иначе через Load.
func Count(ctx context.Context, s Store) (int, error) {
	if c, ok := s.(Counter); ok {
		return c.Count(ctx)
	}
	recs, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}
