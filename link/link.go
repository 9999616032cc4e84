// Package link builds the request pipeline every operation travels through.
//
// A Link wraps the next Handler, in the same way HTTP middleware wraps the next
// handler. The standard client chain is
//
//	Tracing → Logging → RefreshRetry → AuthHeader → transport
//
// so a replayed operation passes through AuthHeader again and picks up the
// token the refresh just stored.
package link

import (
	"context"

	"github.com/jrsteele09/go-finance-client/graphql"
)

// Handler executes an operation and returns its outcome: a result (possibly with
// application errors) or a transport error.
type Handler func(ctx context.Context, op *graphql.Operation) (*graphql.Result, error)

// Link is one pipeline stage.
type Link func(next Handler) Handler

// Chain composes links around the terminal handler. The first link is the
// outermost one.
func Chain(terminal Handler, links ...Link) Handler {
	chained := terminal
	// Apply links in reverse order
	for i := len(links) - 1; i >= 0; i-- {
		if links[i] == nil {
			continue
		}
		chained = links[i](chained)
	}
	return chained
}
