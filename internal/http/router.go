package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Employees  *EmployeeHandler
	TimeBlocks *TimeBlockHandler
	Sessions   SessionValidator
	Metrics    *Metrics
	// Health reports whether dependencies such as the database are reachable.
	Health     func(ctx context.Context) error
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		newResponder(cfg.Logger).writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	})

	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", healthHandler(cfg.Health, cfg.Logger)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if cfg.Auth != nil {
		api.HandleFunc("/login", cfg.Auth.Login).Methods(http.MethodPost)
		api.HandleFunc("/logout", cfg.Auth.Logout).Methods(http.MethodPost)
	}

	protected := api.PathPrefix("").Subrouter()
	if cfg.Sessions != nil {
		protected.Use(RequireSession(cfg.Sessions, cfg.Logger))
	}

	if cfg.Auth != nil {
		protected.HandleFunc("/user", cfg.Auth.CurrentUser).Methods(http.MethodGet)
		protected.HandleFunc("/session/refresh", cfg.Auth.Refresh).Methods(http.MethodPost)
	}

	if cfg.Employees != nil {
		protected.HandleFunc("/employees", cfg.Employees.List).Methods(http.MethodGet)
		protected.HandleFunc("/employees", cfg.Employees.Create).Methods(http.MethodPost)
		protected.HandleFunc("/employees/{id}", cfg.Employees.Update).Methods(http.MethodPatch)
		protected.HandleFunc("/employees/{id}", cfg.Employees.Delete).Methods(http.MethodDelete)
	}

	if cfg.TimeBlocks != nil {
		protected.HandleFunc("/timeblocks", cfg.TimeBlocks.List).Methods(http.MethodGet)
		protected.HandleFunc("/timeblocks", cfg.TimeBlocks.Create).Methods(http.MethodPost)
		protected.HandleFunc("/timeblocks/{id}", cfg.TimeBlocks.Update).Methods(http.MethodPatch)
		protected.HandleFunc("/timeblocks/{id}", cfg.TimeBlocks.Delete).Methods(http.MethodDelete)
		protected.HandleFunc("/timeblocks/{id}/move", cfg.TimeBlocks.Move).Methods(http.MethodPost)
		protected.HandleFunc("/schedule", cfg.TimeBlocks.Schedule).Methods(http.MethodGet)
	}

	if cfg.Users != nil {
		protected.HandleFunc("/admin/users", cfg.Users.List).Methods(http.MethodGet)
		protected.HandleFunc("/admin/users", cfg.Users.Create).Methods(http.MethodPost)
	}

	var handler http.Handler = r
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

func healthHandler(check func(ctx context.Context) error, logger *slog.Logger) http.HandlerFunc {
	resp := newResponder(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				resp.loggerFor(r.Context()).ErrorContext(r.Context(), "health check failed", "error", err)
				resp.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		resp.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

type healthResponse struct {
	Status string `json:"status"`
}
