// Package ops serves the operational HTTP surface: prometheus metrics and a
// health endpoint. It is separate from the MCP transport, which runs over
// stdio, and is only started when configured.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-mcp-server/internal/observability"
)

// Handler holds dependencies for the ops endpoints.
type Handler struct {
	logger       *zap.Logger
	cacheBackend string
	startTime    time.Time
	// cachePing, when set, is called to check cache reachability. Used when
	// the backend is memcached.
	cachePing func() error
}

// NewHandler returns a new ops Handler.
func NewHandler(logger *zap.Logger, cacheBackend string, cachePing func() error) *Handler {
	return &Handler{
		logger:       logger,
		cacheBackend: cacheBackend,
		startTime:    time.Now(),
		cachePing:    cachePing,
	}
}

// Router builds the ops router with /health and /metrics.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	return router
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := map[string]string{
		"cache": "healthy",
	}
	if h.cachePing != nil {
		if err := h.cachePing(); err != nil {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
			checks["cache"] = "unhealthy"
			h.logger.Warn("cache ping failed", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":        status,
		"cache_backend": h.cacheBackend,
		"checks":        checks,
		"uptime":        time.Since(h.startTime).String(),
	})
}

// Serve runs the ops listener until ctx is cancelled, then shuts it down.
func (h *Handler) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("ops listener starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
