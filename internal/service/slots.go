package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Megha-r20/CyberNova-2026/internal/storage"
)

// slotsKey — единственный ключ кэша счётчика.
const slotsKey = "count"

// Unlimited — значение slotsLeft при отключённом потолке.
const Unlimited = -1

// SlotCounter — счётчик занятых слотов с потолком.
// Количество записей кэшируется на ttl (expirable LRU) и обновляется
// после каждой мутации. Авторитетная проверка выполняется под gate
// на свежезагруженном наборе (Exhausted).
type SlotCounter struct {
	ceiling int
	store   storage.Store
	cache   *expirable.LRU[string, int]
}

// NewSlotCounter создаёт счётчик. ceiling = 0 отключает потолок,
// ttl = 0 отключает кэширование.
func NewSlotCounter(store storage.Store, ceiling int, ttl time.Duration) *SlotCounter {
	sc := &SlotCounter{ceiling: ceiling, store: store}
	if ttl > 0 {
		sc.cache = expirable.NewLRU[string, int](1, nil, ttl)
	}
	return sc
}

// Ceiling возвращает потолок (0 — без ограничения).
func (sc *SlotCounter) Ceiling() int {
	return sc.ceiling
}

// Count возвращает количество записей, из кэша при наличии.
func (sc *SlotCounter) Count(ctx context.Context) (int, error) {
	if sc.cache != nil {
		if n, ok := sc.cache.Get(slotsKey); ok {
			return n, nil
		}
	}

	n, err := storage.Count(ctx, sc.store)
	if err != nil {
		return 0, err
	}
	sc.Set(n)
	return n, nil
}

// Set запоминает известное количество записей (после мутации под gate).
func (sc *SlotCounter) Set(n int) {
	registrationsStored.Set(float64(n))
	if sc.cache != nil {
		sc.cache.Add(slotsKey, n)
	}
}

// Invalidate сбрасывает кэш.
func (sc *SlotCounter) Invalidate() {
	if sc.cache != nil {
		sc.cache.Remove(slotsKey)
	}
}

// Exhausted сообщает, что при count записях новая регистрация не помещается.
func (sc *SlotCounter) Exhausted(count int) bool {
	return sc.ceiling > 0 && count >= sc.ceiling
}

// Left возвращает число свободных слотов или Unlimited.
func (sc *SlotCounter) Left(count int) int {
	if sc.ceiling <= 0 {
		return Unlimited
	}
	return max(sc.ceiling-count, 0)
}
