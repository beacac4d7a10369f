package metrics

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Serve exposes /metrics and /healthz on addr in a background goroutine.
// Intended for long-running invocations where an operator wants to scrape
// progress; the listener dies with the process.
func Serve(addr string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Handle("/metrics", Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		if err := http.ListenAndServe(addr, r); err != nil {
			logger.Error("metrics endpoint failed", "err", err)
		}
	}()
}
