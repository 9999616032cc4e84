package link

import (
	"context"
	"time"

	"github.com/jrsteele09/go-finance-client/graphql"
	"github.com/rs/zerolog"
)

// Logging records one debug line per operation with its outcome and duration.
func Logging(logger zerolog.Logger) Link {
	return func(next Handler) Handler {
		return func(ctx context.Context, op *graphql.Operation) (*graphql.Result, error) {
			if op == nil {
				return next(ctx, op)
			}
			start := time.Now()
			result, err := next(ctx, op)

			event := logger.Debug()
			if err != nil {
				event = logger.Warn().Err(err)
			}
			event = event.Str("operation", op.Name).
				Str("kind", string(op.Kind)).
				Str("id", op.ID).
				Dur("duration", time.Since(start))
			if result != nil && result.HasErrors() {
				event = event.Int("graphql_errors", len(result.Errors))
			}
			event.Msg("graphql operation")
			return result, err
		}
	}
}
