package graphql

import (
	"maps"
	"net/http"

	"github.com/google/uuid"
)

// OperationKind distinguishes reads from writes.
type OperationKind string

const (
	QueryKind    OperationKind = "query"
	MutationKind OperationKind = "mutation"
)

// ErrorPolicy controls how GraphQL errors in an otherwise delivered result are
// surfaced to the caller of Client.Execute.
type ErrorPolicy string

const (
	// ErrorPolicyAll delivers the result together with its errors.
	ErrorPolicyAll ErrorPolicy = "all"
	// ErrorPolicyNone turns any GraphQL error into a returned Errors value.
	ErrorPolicyNone ErrorPolicy = "none"
)

// FetchPolicy controls whether a query may be answered from the response cache.
type FetchPolicy string

const (
	NetworkOnly FetchPolicy = "network-only"
	CacheFirst  FetchPolicy = "cache-first"
)

// Operation is one in-flight API call. It is created per call by a consumer and
// travels through every pipeline stage.
type Operation struct {
	ID          string         // Unique per call, sent as X-Request-ID
	Name        string         // Operation name, e.g. "ListTransactions" or "RefreshToken"
	Kind        OperationKind  // Query or mutation
	Query       string         // GraphQL document
	Variables   map[string]any // Operation variables
	Headers     http.Header    // Extra request headers
	IsRetry     bool           // Set once when the refresh stage replays the operation
	ErrorPolicy ErrorPolicy
	FetchPolicy FetchPolicy
}

// NewQuery builds a query operation.
func NewQuery(name, document string, variables map[string]any) *Operation {
	return newOperation(QueryKind, name, document, variables)
}

// NewMutation builds a mutation operation.
func NewMutation(name, document string, variables map[string]any) *Operation {
	return newOperation(MutationKind, name, document, variables)
}

func newOperation(kind OperationKind, name, document string, variables map[string]any) *Operation {
	return &Operation{
		ID:          uuid.New().String(),
		Name:        name,
		Kind:        kind,
		Query:       document,
		Variables:   variables,
		Headers:     make(http.Header),
		ErrorPolicy: ErrorPolicyNone,
		FetchPolicy: NetworkOnly,
	}
}

// Clone returns a copy that can be changed without affecting op. Headers and the
// top level of the variables map are copied.
func (op *Operation) Clone() *Operation {
	c := *op
	c.Headers = op.Headers.Clone()
	if c.Headers == nil {
		c.Headers = make(http.Header)
	}
	if op.Variables != nil {
		c.Variables = maps.Clone(op.Variables)
	}
	return &c
}

// WithFetchPolicy sets the fetch policy and returns op for chaining.
func (op *Operation) WithFetchPolicy(p FetchPolicy) *Operation {
	op.FetchPolicy = p
	return op
}

// WithErrorPolicy sets the error policy and returns op for chaining.
func (op *Operation) WithErrorPolicy(p ErrorPolicy) *Operation {
	op.ErrorPolicy = p
	return op
}
