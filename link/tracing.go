package link

import (
	"context"

	"github.com/jrsteele09/go-finance-client/graphql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing opens a client span around each operation. Placed outermost it
// covers the original attempt, any refresh and the replay.
func Tracing(tracer trace.Tracer) Link {
	return func(next Handler) Handler {
		return func(ctx context.Context, op *graphql.Operation) (*graphql.Result, error) {
			if op == nil {
				return next(ctx, op)
			}
			ctx, span := tracer.Start(ctx, "graphql "+op.Name,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("graphql.operation.name", op.Name),
					attribute.String("graphql.operation.type", string(op.Kind)),
					attribute.String("graphql.operation.id", op.ID),
				),
			)
			defer span.End()

			result, err := next(ctx, op)
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case result != nil && result.HasErrors():
				span.SetAttributes(attribute.Int("graphql.errors", len(result.Errors)))
				span.SetStatus(codes.Error, result.Errors[0].Message)
			default:
				span.SetStatus(codes.Ok, "")
			}
			return result, err
		}
	}
}
