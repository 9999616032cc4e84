package graphql

import "context"

// Executor runs an operation through the client pipeline.
type Executor interface {
	Execute(ctx context.Context, op *Operation) (*Result, error)
}

// Run executes op and decodes data.<field> into a T.
func Run[T any](ctx context.Context, exec Executor, op *Operation, field string) (T, error) {
	var out T
	result, err := exec.Execute(ctx, op)
	if err != nil {
		return out, err
	}
	if err := result.DecodeField(field, &out); err != nil {
		return out, err
	}
	return out, nil
}
