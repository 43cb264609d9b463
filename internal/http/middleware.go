package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/salon-scheduler/internal/application"
)

type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.Principal, error)
}

// RequireSession rejects requests without a valid session token and stores
// the principal in the request context.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
				return
			}

			principal, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
					clearSessionCookie(w, false)
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "セッションの有効期限が切れました。再度ログインしてください。"})
				case errors.Is(err, application.ErrUnauthorized):
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "セッションが無効です。再度ログインしてください。"})
				default:
					responder.loggerFor(r.Context()).ErrorContext(r.Context(), "session validation failed", "error", err)
					responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: "セッション検証中にエラーが発生しました。"})
				}
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("user_id", principal.UserID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request scoped logger carrying a request id, and
// logs the start and completion of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}
