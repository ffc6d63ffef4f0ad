// Package api provides the operator HTTP API.
//
// The API exposes the automation state, the manual command queue, and health
// probes. It never talks to devices directly: manual commands are queued and
// delivered the next time the device connects.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mhadysydney/fridge-controll-app/internal/logger"
	"github.com/mhadysydney/fridge-controll-app/pkg/api/handlers"
	"github.com/mhadysydney/fridge-controll-app/pkg/store"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /dout1_status/{imei} - Automation state for a device
//   - POST /dout1_control/{imei} - Queue a manual output command
//   - GET /command_queue/{imei} - Pending commands, FIFO
//   - POST /command_queue/update/{id} - Transition a command status
func NewRouter(st store.Store) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(st)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	dout1Handler := handlers.NewDOUT1Handler(st)
	r.Get("/dout1_status/{imei}", dout1Handler.Status)
	r.Post("/dout1_control/{imei}", dout1Handler.Control)

	commandHandler := handlers.NewCommandHandler(st)
	r.Get("/command_queue/{imei}", commandHandler.List)
	r.Post("/command_queue/update/{id}", commandHandler.Update)

	return r
}

// requestLogger logs requests using the internal logger. Healthcheck
// requests are logged at DEBUG level to reduce noise.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		}

		if strings.HasPrefix(r.URL.Path, "/health") {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
