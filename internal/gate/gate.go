// Пакет gate — единая критическая секция для всех мутаций хранилища.
// Регистрация, очистка и принудительная синхронизация выполняются через
// один Gate, поэтому последовательность load → проверки → запись атомарна
// относительно других мутаций.
package gate

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"
)

// waitDuration — время ожидания входа в критическую секцию.
var waitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "evr_gate_wait_seconds",
	Help:    "Time spent waiting to enter the store mutation gate.",
	Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
})

// Gate — исключающая блокировка с одним билетом.
// Не реентерабельна: повторный Do из fn приведёт к взаимоблокировке.
type Gate struct {
	sem *semaphore.Weighted
}

// New создаёт независимый Gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Do выполняет fn под блокировкой.
// Ожидание входа прерывается отменой ctx (возвращается ctx.Err(), fn не вызывается).
// После входа fn получает контекст без отмены: начатая запись завершается,
// даже если клиент отключился.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	waitDuration.Observe(time.Since(start).Seconds())
	defer g.sem.Release(1)

	return fn(context.WithoutCancel(ctx))
}
