package link

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-finance-client/graphql"
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/jrsteele09/go-finance-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultRefreshOperation is the operation name the refresh stage never retries.
const DefaultRefreshOperation = "RefreshToken"

// State is the position of one operation in the refresh-retry lifecycle.
type State int

const (
	Fresh State = iota
	AwaitingAuthCheck
	Refreshing
	Retrying
	Delivered
	Failed
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case AwaitingAuthCheck:
		return "awaiting-auth-check"
	case Refreshing:
		return "refreshing"
	case Retrying:
		return "retrying"
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Refresher obtains a new access token. RefreshAccessToken clears the session
// itself when the refresh call fails; Logout is only used when it reports
// success without a usable token.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, token string) (bool, error)
	Logout() error
}

// SessionReader exposes the session snapshot the refresh stage reads tokens from.
type SessionReader interface {
	Snapshot() session.Session
}

// Recorder receives pipeline events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	AuthFailure(operation string)
	RefreshAttempt(operation, outcome string)
	Retry(operation string)
}

const (
	OutcomeRefreshed = "refreshed"
	OutcomeFailed    = "failed"
	OutcomeNoToken   = "no_token"
)

type nopRecorder struct{}

func (nopRecorder) AuthFailure(string)            {}
func (nopRecorder) RefreshAttempt(string, string) {}
func (nopRecorder) Retry(string)                  {}

// RefreshFailedError is returned to the consumer when an auth failure could
// not be recovered. It matches ierrors.ErrRefreshFailed and its cause.
type RefreshFailedError struct {
	Operation string
	Cause     error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ierrors.ErrRefreshFailed, e.Operation, e.Cause)
}

func (e *RefreshFailedError) Unwrap() []error {
	return []error{ierrors.ErrRefreshFailed, e.Cause}
}

type RefreshOption func(*refreshRetry)

func WithClassifier(c *Classifier) RefreshOption {
	return func(r *refreshRetry) {
		if c != nil {
			r.classifier = c
		}
	}
}

// WithRefreshOperation names the operation that must bypass the stage.
func WithRefreshOperation(name string) RefreshOption {
	return func(r *refreshRetry) {
		if name != "" {
			r.refreshOperation = name
		}
	}
}

func WithRecorder(rec Recorder) RefreshOption {
	return func(r *refreshRetry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

func WithLogger(l zerolog.Logger) RefreshOption {
	return func(r *refreshRetry) {
		r.logger = l
	}
}

type refreshRetry struct {
	refresher        Refresher
	sessions         SessionReader
	classifier       *Classifier
	refreshOperation string
	recorder         Recorder
	logger           zerolog.Logger
}

// RefreshRetry recovers from auth failures. When the downstream outcome is
// classified as an auth failure it refreshes the access token once and replays
// the operation once through next. The refresh operation itself and replays
// are passed straight through, so an operation is retried at most once.
func RefreshRetry(refresher Refresher, sessions SessionReader, opts ...RefreshOption) Link {
	r := &refreshRetry{
		refresher:        refresher,
		sessions:         sessions,
		classifier:       DefaultClassifier(),
		refreshOperation: DefaultRefreshOperation,
		recorder:         nopRecorder{},
		logger:           log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r.link
}

func (r *refreshRetry) link(next Handler) Handler {
	return func(ctx context.Context, op *graphql.Operation) (*graphql.Result, error) {
		if op == nil {
			return nil, ierrors.ErrMissingOperation
		}
		if op.Name == r.refreshOperation || op.IsRetry {
			return next(ctx, op)
		}

		a := &attempt{op: op, state: Fresh, logger: r.logger}
		a.transition(AwaitingAuthCheck)

		result, err := next(ctx, op)
		if !r.classifier.IsAuthFailure(result, err) {
			return a.finish(result, err)
		}
		r.recorder.AuthFailure(op.Name)

		token := r.sessions.Snapshot().RefreshCredential()
		if token == "" {
			r.recorder.RefreshAttempt(op.Name, OutcomeNoToken)
			return a.finish(result, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return a.finish(nil, ctxErr)
		}

		a.transition(Refreshing)
		if refreshErr := r.refresh(ctx, token); refreshErr != nil {
			r.recorder.RefreshAttempt(op.Name, OutcomeFailed)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return a.finish(nil, ctxErr)
			}
			return a.finish(nil, &RefreshFailedError{Operation: op.Name, Cause: refreshErr})
		}
		r.recorder.RefreshAttempt(op.Name, OutcomeRefreshed)

		retry := op.Clone()
		retry.IsRetry = true
		a.op = retry
		a.transition(Retrying)
		r.recorder.Retry(op.Name)

		return a.finish(next(ctx, retry))
	}
}

// refresh runs the refresh detached from the caller's cancellation so a
// consumer that gives up cannot leave the session half-refreshed or logged
// out. The caller stops waiting as soon as ctx is done.
func (r *refreshRetry) refresh(ctx context.Context, token string) error {
	done := make(chan error, 1)
	go func() {
		done <- r.refreshNow(context.WithoutCancel(ctx), token)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *refreshRetry) refreshNow(ctx context.Context, token string) error {
	ok, err := r.refresher.RefreshAccessToken(ctx, token)
	if err != nil {
		return err
	}
	if !ok || r.sessions.Snapshot().AccessToken == nil {
		if logoutErr := r.refresher.Logout(); logoutErr != nil {
			r.logger.Warn().Err(logoutErr).Msg("logout after empty refresh failed")
		}
		return ierrors.ErrTokenNotUpdated
	}
	return nil
}

type attempt struct {
	op     *graphql.Operation
	state  State
	logger zerolog.Logger
}

func (a *attempt) transition(to State) {
	a.logger.Debug().
		Str("operation", a.op.Name).
		Str("id", a.op.ID).
		Stringer("from", a.state).
		Stringer("to", to).
		Msg("pipeline transition")
	a.state = to
}

func (a *attempt) finish(result *graphql.Result, err error) (*graphql.Result, error) {
	if err != nil {
		a.transition(Failed)
	} else {
		a.transition(Delivered)
	}
	return result, err
}
