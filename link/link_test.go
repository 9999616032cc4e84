package link_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-finance-client/graphql"
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/jrsteele09/go-finance-client/link"
	"github.com/jrsteele09/go-finance-client/session"
	"github.com/jrsteele09/go-finance-client/session/storagefake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const notAuthenticated = "Usuário não autenticado!"

type fakeRefresher struct {
	mu          sync.Mutex
	store       *session.Store
	newToken    string
	err         error
	reportFalse bool
	block       chan struct{}
	calls       []string
	logouts     int
}

func (f *fakeRefresher) RefreshAccessToken(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, token)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		_ = f.store.Clear()
		return false, f.err
	}
	if f.reportFalse {
		return false, nil
	}
	snap := f.store.Snapshot()
	return true, f.store.Set(*snap.User, f.newToken, "refresh-2")
}

func (f *fakeRefresher) Logout() error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return f.store.Clear()
}

func (f *fakeRefresher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type countingRecorder struct {
	mu           sync.Mutex
	authFailures int
	outcomes     []string
	retries      int
}

func (c *countingRecorder) AuthFailure(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authFailures++
}

func (c *countingRecorder) RefreshAttempt(_, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func (c *countingRecorder) Retry(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

// backend records every operation it sees and answers with the scripted
// responses in order, repeating the last one.
type backend struct {
	mu        sync.Mutex
	seen      []*graphql.Operation
	responses []func(op *graphql.Operation) (*graphql.Result, error)
}

func (b *backend) handle(_ context.Context, op *graphql.Operation) (*graphql.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = append(b.seen, op)
	i := len(b.seen) - 1
	if i >= len(b.responses) {
		i = len(b.responses) - 1
	}
	return b.responses[i](op)
}

func (b *backend) Seen() []*graphql.Operation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*graphql.Operation(nil), b.seen...)
}

func ok(data string) func(*graphql.Operation) (*graphql.Result, error) {
	return func(*graphql.Operation) (*graphql.Result, error) {
		return &graphql.Result{Data: json.RawMessage(data)}, nil
	}
}

func authError() func(*graphql.Operation) (*graphql.Result, error) {
	return func(*graphql.Operation) (*graphql.Result, error) {
		return &graphql.Result{Errors: []graphql.Error{{Message: notAuthenticated}}}, nil
	}
}

// tokenGated succeeds only when the request carries the expected bearer token.
func tokenGated(token string) func(*graphql.Operation) (*graphql.Result, error) {
	return func(op *graphql.Operation) (*graphql.Result, error) {
		if op.Headers.Get("Authorization") != "Bearer "+token {
			return authError()(op)
		}
		return ok(`{"ok":true}`)(op)
	}
}

type testFixture struct {
	store     *session.Store
	refresher *fakeRefresher
	backend   *backend
	recorder  *countingRecorder
	handler   link.Handler
}

func setupTestFixture(t *testing.T, responses ...func(*graphql.Operation) (*graphql.Result, error)) *testFixture {
	t.Helper()
	store, err := session.Open(storagefake.NewFakeStorage())
	require.NoError(t, err)
	require.NoError(t, store.Set(session.User{ID: "u1", Name: "Ana", Email: "a@b.com"}, "access-1", "refresh-1"))

	f := &testFixture{
		store:     store,
		refresher: &fakeRefresher{store: store, newToken: "access-2"},
		backend:   &backend{responses: responses},
		recorder:  &countingRecorder{},
	}
	f.handler = link.Chain(f.backend.handle,
		link.RefreshRetry(f.refresher, store, link.WithRecorder(f.recorder), link.WithLogger(zerolog.Nop())),
		link.AuthHeader(store, link.DefaultRefreshOperation),
	)
	return f
}

func listOp() *graphql.Operation {
	return graphql.NewQuery(graphql.ListTransactionsOperation, graphql.ListTransactionsDocument, nil)
}

func TestChain_FirstLinkIsOutermost(t *testing.T) {
	var order []string
	named := func(name string) link.Link {
		return func(next link.Handler) link.Handler {
			return func(ctx context.Context, op *graphql.Operation) (*graphql.Result, error) {
				order = append(order, name)
				return next(ctx, op)
			}
		}
	}
	terminal := func(context.Context, *graphql.Operation) (*graphql.Result, error) {
		order = append(order, "terminal")
		return &graphql.Result{}, nil
	}

	h := link.Chain(terminal, named("a"), nil, named("b"))
	_, err := h(context.Background(), listOp())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "terminal"}, order)
}

func TestAuthHeader(t *testing.T) {
	f := setupTestFixture(t, ok(`{}`))
	h := link.AuthHeader(f.store, link.DefaultRefreshOperation)(f.backend.handle)

	op := listOp()
	op.Headers.Set("X-Trace", "abc")
	_, err := h(context.Background(), op)
	require.NoError(t, err)

	sent := f.backend.Seen()[0]
	require.Equal(t, "Bearer access-1", sent.Headers.Get("Authorization"))
	require.Equal(t, "abc", sent.Headers.Get("X-Trace"))
	require.Empty(t, op.Headers.Get("Authorization"), "caller's operation is not modified")
}

func TestAuthHeader_NoTokenSendsNoHeader(t *testing.T) {
	f := setupTestFixture(t, ok(`{}`))
	require.NoError(t, f.store.Clear())
	h := link.AuthHeader(f.store, link.DefaultRefreshOperation)(f.backend.handle)

	_, err := h(context.Background(), listOp())
	require.NoError(t, err)
	require.Empty(t, f.backend.Seen()[0].Headers.Values("Authorization"))
}

func TestAuthHeader_RefreshOperationUntouched(t *testing.T) {
	f := setupTestFixture(t, ok(`{}`))
	h := link.AuthHeader(f.store, link.DefaultRefreshOperation)(f.backend.handle)

	op := graphql.NewMutation(graphql.RefreshTokenOperation, graphql.RefreshTokenDocument, map[string]any{"refreshToken": "refresh-1"})
	_, err := h(context.Background(), op)
	require.NoError(t, err)
	require.Same(t, op, f.backend.Seen()[0])
	require.Empty(t, f.backend.Seen()[0].Headers.Get("Authorization"))
}

func TestRefreshRetry_SuccessPassesThrough(t *testing.T) {
	f := setupTestFixture(t, ok(`{"ok":true}`))

	result, err := f.handler(context.Background(), listOp())
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(result.Data))
	require.Len(t, f.backend.Seen(), 1)
	require.Empty(t, f.refresher.Calls())
}

func TestRefreshRetry_NonAuthErrorPassesThrough(t *testing.T) {
	f := setupTestFixture(t, func(*graphql.Operation) (*graphql.Result, error) {
		return &graphql.Result{Errors: []graphql.Error{{Message: "Categoria não encontrada"}}}, nil
	})

	result, err := f.handler(context.Background(), listOp())
	require.NoError(t, err)
	require.Equal(t, "Categoria não encontrada", result.Errors[0].Message)
	require.Empty(t, f.refresher.Calls())
	require.Len(t, f.backend.Seen(), 1)
}

func TestRefreshRetry_RefreshesAndReplaysWithNewToken(t *testing.T) {
	f := setupTestFixture(t, tokenGated("access-2"))

	result, err := f.handler(context.Background(), listOp())
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(result.Data))

	require.Equal(t, []string{"refresh-1"}, f.refresher.Calls())
	seen := f.backend.Seen()
	require.Len(t, seen, 2)
	require.False(t, seen[0].IsRetry)
	require.Equal(t, "Bearer access-1", seen[0].Headers.Get("Authorization"))
	require.True(t, seen[1].IsRetry)
	require.Equal(t, "Bearer access-2", seen[1].Headers.Get("Authorization"))
	require.Equal(t, seen[0].ID, seen[1].ID)

	require.Equal(t, 1, f.recorder.authFailures)
	require.Equal(t, []string{link.OutcomeRefreshed}, f.recorder.outcomes)
	require.Equal(t, 1, f.recorder.retries)
}

func TestRefreshRetry_AtMostOneRetry(t *testing.T) {
	f := setupTestFixture(t, authError())

	result, err := f.handler(context.Background(), listOp())
	require.NoError(t, err)
	require.Equal(t, notAuthenticated, result.Errors[0].Message)
	require.Len(t, f.refresher.Calls(), 1)
	require.Len(t, f.backend.Seen(), 2)
}

func TestRefreshRetry_RefreshOperationIsNeverRetried(t *testing.T) {
	f := setupTestFixture(t, authError())

	op := graphql.NewMutation(graphql.RefreshTokenOperation, graphql.RefreshTokenDocument, map[string]any{"refreshToken": "refresh-1"})
	result, err := f.handler(context.Background(), op)
	require.NoError(t, err)
	require.Equal(t, notAuthenticated, result.Errors[0].Message)
	require.Empty(t, f.refresher.Calls())
	require.Len(t, f.backend.Seen(), 1)
}

func TestRefreshRetry_RetryFlagBypasses(t *testing.T) {
	f := setupTestFixture(t, authError())

	op := listOp()
	op.IsRetry = true
	_, err := f.handler(context.Background(), op)
	require.NoError(t, err)
	require.Empty(t, f.refresher.Calls())
}

func TestRefreshRetry_NoTokenDeliversOriginal(t *testing.T) {
	f := setupTestFixture(t, authError())
	require.NoError(t, f.store.Clear())

	result, err := f.handler(context.Background(), listOp())
	require.NoError(t, err)
	require.Equal(t, notAuthenticated, result.Errors[0].Message)
	require.Empty(t, f.refresher.Calls())
	require.Equal(t, []string{link.OutcomeNoToken}, f.recorder.outcomes)
}

func TestRefreshRetry_FallsBackToAccessToken(t *testing.T) {
	f := setupTestFixture(t, tokenGated("access-2"))
	require.NoError(t, f.store.Set(session.User{ID: "u1", Name: "Ana"}, "access-1", ""))

	_, err := f.handler(context.Background(), listOp())
	require.NoError(t, err)
	require.Equal(t, []string{"access-1"}, f.refresher.Calls())
}

func TestRefreshRetry_RefreshFailure(t *testing.T) {
	f := setupTestFixture(t, authError())
	cause := ierrors.ErrNotAuthenticated
	f.refresher.err = cause

	result, err := f.handler(context.Background(), listOp())
	require.Nil(t, result)
	require.ErrorIs(t, err, ierrors.ErrRefreshFailed)
	require.ErrorIs(t, err, cause)

	var rfe *link.RefreshFailedError
	require.ErrorAs(t, err, &rfe)
	require.Equal(t, graphql.ListTransactionsOperation, rfe.Operation)

	require.Len(t, f.backend.Seen(), 1, "the operation is not replayed")
	require.False(t, f.store.Snapshot().IsAuthenticated)
	require.Equal(t, []string{link.OutcomeFailed}, f.recorder.outcomes)
}

func TestRefreshRetry_TokenNotUpdated(t *testing.T) {
	f := setupTestFixture(t, authError())
	f.refresher.reportFalse = true

	_, err := f.handler(context.Background(), listOp())
	require.ErrorIs(t, err, ierrors.ErrRefreshFailed)
	require.ErrorIs(t, err, ierrors.ErrTokenNotUpdated)
	require.Equal(t, 1, f.refresher.logouts)
	require.Nil(t, f.store.Snapshot().AccessToken)
}

func TestRefreshRetry_Transport401(t *testing.T) {
	calls := 0
	f := setupTestFixture(t, func(op *graphql.Operation) (*graphql.Result, error) {
		calls++
		if calls == 1 {
			return nil, &graphql.TransportError{StatusCode: http.StatusUnauthorized}
		}
		return ok(`{"ok":true}`)(op)
	})

	result, err := f.handler(context.Background(), listOp())
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(result.Data))
	require.Len(t, f.refresher.Calls(), 1)
}

func TestRefreshRetry_OtherTransportErrorPassesThrough(t *testing.T) {
	f := setupTestFixture(t, func(*graphql.Operation) (*graphql.Result, error) {
		return nil, &graphql.TransportError{StatusCode: http.StatusBadGateway}
	})

	_, err := f.handler(context.Background(), listOp())
	te, isTransport := graphql.AsTransportError(err)
	require.True(t, isTransport)
	require.Equal(t, http.StatusBadGateway, te.StatusCode)
	require.Empty(t, f.refresher.Calls())
}

func TestRefreshRetry_CancelledWhileRefreshing(t *testing.T) {
	f := setupTestFixture(t, tokenGated("access-2"))
	f.refresher.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := f.handler(ctx, listOp())
		errCh <- err
	}()

	require.Eventually(t, func() bool { return len(f.refresher.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	close(f.refresher.block)
	require.Eventually(t, func() bool {
		tok := f.store.Snapshot().AccessToken
		return tok != nil && *tok == "access-2"
	}, time.Second, 5*time.Millisecond, "the refresh still completes")
	require.Len(t, f.backend.Seen(), 1, "no replay after cancellation")
}

func TestRefreshRetry_ConcurrentOperations(t *testing.T) {
	f := setupTestFixture(t, tokenGated("access-2"))

	var wg sync.WaitGroup
	results := make(chan *graphql.Result, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.handler(context.Background(), listOp())
			if err == nil {
				results <- result
			}
		}()
	}
	wg.Wait()
	close(results)

	for result := range results {
		require.False(t, result.HasErrors())
	}

	for _, op := range f.backend.Seen() {
		if op.IsRetry {
			require.Equal(t, "Bearer access-2", op.Headers.Get("Authorization"))
		}
	}
}

func TestRefreshRetry_MissingOperation(t *testing.T) {
	f := setupTestFixture(t, ok(`{}`))
	_, err := f.handler(context.Background(), nil)
	require.ErrorIs(t, err, ierrors.ErrMissingOperation)
}

func TestClassifier(t *testing.T) {
	c := link.DefaultClassifier()
	withErrors := func(errs ...graphql.Error) *graphql.Result { return &graphql.Result{Errors: errs} }

	tests := []struct {
		name   string
		result *graphql.Result
		err    error
		want   bool
	}{
		{name: "exact message", result: withErrors(graphql.Error{Message: notAuthenticated}), want: true},
		{name: "marker", result: withErrors(graphql.Error{Message: "Token inválido: usuário não autenticado"}), want: true},
		{name: "code", result: withErrors(graphql.Error{Message: "denied", Extensions: map[string]any{"code": "UNAUTHENTICATED"}}), want: true},
		{name: "second error matches", result: withErrors(graphql.Error{Message: "x"}, graphql.Error{Message: notAuthenticated}), want: true},
		{name: "other error", result: withErrors(graphql.Error{Message: "Transação não encontrada"}), want: false},
		{name: "other code", result: withErrors(graphql.Error{Message: "x", Extensions: map[string]any{"code": "FORBIDDEN"}}), want: false},
		{name: "message matches despite other code", result: withErrors(graphql.Error{Message: notAuthenticated, Extensions: map[string]any{"code": "INTERNAL_SERVER_ERROR"}}), want: true},
		{name: "no errors", result: &graphql.Result{}, want: false},
		{name: "nil result", want: false},
		{name: "http 401", err: &graphql.TransportError{StatusCode: http.StatusUnauthorized}, want: true},
		{name: "http 500", err: &graphql.TransportError{StatusCode: http.StatusInternalServerError}, want: false},
		{name: "payload on transport error", err: &graphql.TransportError{StatusCode: http.StatusBadRequest, Result: withErrors(graphql.Error{Message: notAuthenticated})}, want: true},
		{name: "plain error", err: context.DeadlineExceeded, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, c.IsAuthFailure(tc.result, tc.err))
		})
	}
}

func TestClassifier_Custom(t *testing.T) {
	c := link.NewClassifier(nil, []string{"", "expired"}, nil)
	require.True(t, c.IsAuthFailure(&graphql.Result{Errors: []graphql.Error{{Message: "token expired"}}}, nil))
	require.False(t, c.IsAuthFailure(&graphql.Result{Errors: []graphql.Error{{Message: notAuthenticated}}}, nil))
}

func TestState_String(t *testing.T) {
	require.Equal(t, "refreshing", link.Refreshing.String())
	require.Equal(t, "state(42)", link.State(42).String())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	f := setupTestFixture(t, ok(`{}`))

	h := link.Logging(logger)(f.backend.handle)
	_, err := h(context.Background(), listOp())
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, graphql.ListTransactionsOperation, line["operation"])
	require.Equal(t, "debug", line["level"])
}

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := setupTestFixture(t, tokenGated("access-2"))
	h := link.Chain(f.backend.handle,
		link.Tracing(provider.Tracer("test")),
		link.RefreshRetry(f.refresher, f.store, link.WithLogger(zerolog.Nop())),
		link.AuthHeader(f.store, link.DefaultRefreshOperation),
	)

	_, err := h(context.Background(), listOp())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "graphql "+graphql.ListTransactionsOperation, spans[0].Name())
	require.Equal(t, codes.Ok, spans[0].Status().Code)
}
