// Package logctx carries the request or event scoped logger on a context, so
// every line written while serving a request shares its request_id, trace_id
// and user_id fields.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/storefront/internal/observability"
)

type loggerKey struct{}

func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From returns nil when ctx carries no logger.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	if logger, ok := ctx.Value(loggerKey{}).(observability.Logger); ok {
		return logger
	}
	return nil
}

// FromOr never returns nil.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	switch logger := From(ctx); {
	case logger != nil:
		return logger
	case fallback != nil:
		return fallback
	default:
		return observability.NopLogger()
	}
}

// Enrich adds fields to the scoped logger and returns both the new context
// and the logger, e.g. once the caller's user id is known.
func Enrich(ctx context.Context, fallback observability.Logger, fields ...observability.Field) (context.Context, observability.Logger) {
	logger := FromOr(ctx, fallback)
	if len(fields) > 0 {
		logger = logger.With(fields...)
	}
	return With(ctx, logger), logger
}
