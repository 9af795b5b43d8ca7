package middleware

import (
	"context"
	"log/slog"
	"time"

	"staysearch/internal/app/queries"
)

// QueryLogging logs every query key with its duration and error, if any.
func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			attrs := []any{"query", q.Key(), "duration", time.Since(start)}
			if err != nil {
				logger.Warn("query failed", append(attrs, "error", err)...)
				return res, err
			}
			logger.Debug("query handled", attrs...)
			return res, nil
		})
	}
}
