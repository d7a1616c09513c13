package eclipse

import (
	"context"
	"net/http"
	"time"
)

// DiagnosticsHandler serves /healthz, answering 200 once the engine is initialized and 503
// otherwise, and /metrics with the engine metrics.
func (e *Engine) DiagnosticsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", e.handleHealth)
	mux.Handle("GET /metrics", e.metrics.Handler())
	return mux
}

func (e *Engine) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !e.IsInitialized() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// RunDiagnostics serves DiagnosticsHandler on the configured address until ctx is canceled.
func (e *Engine) RunDiagnostics(ctx context.Context) error {
	server := &http.Server{
		Addr:              e.config.DiagnosticsAddr,
		Handler:           e.DiagnosticsHandler(),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	shutdown := make(chan struct{})
	defer func() {
		cancel()
		<-shutdown
	}()

	go func() {
		defer close(shutdown)
		<-ctx.Done()
		server.Shutdown(context.Background()) //nolint:errcheck
	}()

	e.logger.Info("Diagnostics server running", "addr", server.Addr)
	err := server.ListenAndServe()

	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
