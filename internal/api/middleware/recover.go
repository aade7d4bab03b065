// recover.go — перехват паники в обработчиках.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/Megha-r20/CyberNova-2026/internal/api/errors"
)

// Recoverer возвращает middleware, превращающий панику в JSON-ответ 500.
// Стек пишется только в лог.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("Паника в обработчике запроса",
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				apierrors.InternalError(w, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
