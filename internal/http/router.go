package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/micro-ha/netstate/internal/http/handlers"
)

const (
	requestTimeout  = 20 * time.Second
	shutdownTimeout = 15 * time.Second
)

// NewRouter builds the HTTP routing tree. The event stream is mounted outside
// the request timeout.
func NewRouter(api *handlers.API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON(api))
	r.Use(RequestLogger(api))

	r.Get("/api/events", api.Events)

	r.Group(func(timed chi.Router) {
		timed.Use(middleware.Timeout(requestTimeout))

		timed.Get("/healthz", api.Health)
		timed.Get("/metrics", api.Metrics)
		timed.Route("/api", func(apiRouter chi.Router) {
			apiRouter.Get("/state", api.GetState)
			apiRouter.Post("/configure", api.Configure)
			apiRouter.Post("/signals", api.PushSignal)
			apiRouter.Post("/refresh", api.Refresh)
			apiRouter.Get("/history", api.ListHistory)
		})
	})
	return r
}

// RunServer starts and gracefully stops HTTP server with context cancellation.
func RunServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "err", err)
		}
		return err
	}
}
