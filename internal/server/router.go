package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/session"
	"marketplace-gateway/pkg/registry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Sessions *session.Manager
	Errors   *gwerrors.ErrorHandler

	Flows       []flows.Flow
	FlowHandler *flows.Handler

	Registry *registry.ScreenRegistry
	Screens  *Screens
	// Cart is nil when no Redis is configured.
	Cart *CartHandlers

	Health           map[string]HealthService
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires every route the gateway exposes.
func NewRouter(log logger.Logger, deps RouterDependencies) (http.Handler, error) {
	screens := make(map[string]http.Handler)
	if deps.Registry != nil {
		for _, screen := range deps.Registry.Screens {
			h, err := deps.Screens.Handler(screen)
			if err != nil {
				return nil, err
			}
			screens[screen.Path] = h
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(log))
	r.Use(recoverMiddleware(log, deps.Errors))
	if len(deps.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/ready", readyHandler(log, deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(deps.Sessions.Middleware)

		for _, f := range deps.Flows {
			r.Post(f.Route, deps.FlowHandler.Submit(f))
			r.Get(f.Route+"/draft", deps.FlowHandler.Draft(f))
			r.Delete(f.Route+"/draft", deps.FlowHandler.Dismiss(f))
		}
		for path, h := range screens {
			r.Method(http.MethodGet, path, h)
		}
		if deps.Cart != nil {
			deps.Cart.Routes(r)
		}
	})

	return r, nil
}

func readyHandler(log logger.Logger, checks map[string]HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]interface{}{"status": "ready"}
		failures := map[string]string{}
		for name, check := range checks {
			if err := check.Probe(ctx); err != nil {
				log.Error("readiness probe failed", map[string]interface{}{"check": name, "error": err.Error()})
				failures[name] = err.Error()
			}
		}
		if len(failures) > 0 {
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
			payload["errors"] = failures
		}
		respondJSON(w, status, payload)
	}
}

func loggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request completed", map[string]interface{}{
				"requestId":   middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}

// recoverMiddleware answers a panicking handler with INTERNAL_ERROR.
func recoverMiddleware(log logger.Logger, errHandler *gwerrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("handler panicked", map[string]interface{}{"path": r.URL.Path, "panic": rec})
					errHandler.Write(w, gwerrors.NewInternalError(fmt.Errorf("panic: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!containsOrigin(normalized, origin) && !containsOrigin(normalized, "*")) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Expose-Headers", "Location")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func containsOrigin(set map[string]struct{}, origin string) bool {
	_, ok := set[origin]
	return ok
}
