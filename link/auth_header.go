package link

import (
	"context"

	"github.com/jrsteele09/go-finance-client/graphql"
	"golang.org/x/oauth2"
)

const authorizationHeader = "Authorization"

// AuthHeader attaches the current access token as a bearer credential. The
// refresh operation is forwarded untouched so it never depends on the token it
// is replacing. Other headers already on the operation are kept.
func AuthHeader(tokens oauth2.TokenSource, refreshOperation string) Link {
	return func(next Handler) Handler {
		return func(ctx context.Context, op *graphql.Operation) (*graphql.Result, error) {
			if op == nil || op.Name == refreshOperation {
				return next(ctx, op)
			}

			decorated := op.Clone()
			if tok, err := tokens.Token(); err == nil && tok.AccessToken != "" {
				decorated.Headers.Set(authorizationHeader, tok.Type()+" "+tok.AccessToken)
			} else {
				decorated.Headers.Del(authorizationHeader)
			}
			return next(ctx, decorated)
		}
	}
}
