package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/salon-scheduler/internal/logging"
	"github.com/example/salon-scheduler/internal/scheduler"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel, placement and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if kind := scheduler.KindOf(err); kind != "" {
		return string(kind)
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}

// logOutcome writes the single completion record every service operation emits.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, success string, attrs ...any) {
	if err == nil {
		logger.InfoContext(ctx, success, attrs...)
		return
	}
	kind := ErrorKind(err)
	level := slog.LevelWarn
	if kind == "unexpected" {
		level = slog.LevelError
	}
	logger.Log(ctx, level, "operation failed", append(attrs, "error", err, "error_kind", kind)...)
}
