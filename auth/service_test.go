package auth_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-finance-client/auth"
	"github.com/jrsteele09/go-finance-client/graphql"
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/jrsteele09/go-finance-client/session"
	"github.com/jrsteele09/go-finance-client/session/storagefake"
	"github.com/stretchr/testify/require"
)

// fakeExecutor answers operations by name and records what it received.
type fakeExecutor struct {
	mu       sync.Mutex
	ops      []*graphql.Operation
	handlers map[string]func(op *graphql.Operation) (*graphql.Result, error)
	calls    atomic.Int32
}

func (f *fakeExecutor) Execute(_ context.Context, op *graphql.Operation) (*graphql.Result, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.ops = append(f.ops, op)
	h := f.handlers[op.Name]
	f.mu.Unlock()
	return h(op)
}

func (f *fakeExecutor) Ops() []*graphql.Operation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*graphql.Operation(nil), f.ops...)
}

func data(field, token, refresh string) *graphql.Result {
	payload := json.RawMessage(`{"` + field + `":` + encodePayload(token, refresh) + `}`)
	return &graphql.Result{Data: payload}
}

func encodePayload(token, refresh string) string {
	b, _ := json.Marshal(map[string]any{
		"token":        token,
		"refreshToken": refresh,
		"user":         map[string]any{"id": "u1", "name": "Ana", "email": "a@b.com", "role": "user"},
	})
	return string(b)
}

func respond(r *graphql.Result, err error) func(*graphql.Operation) (*graphql.Result, error) {
	return func(*graphql.Operation) (*graphql.Result, error) { return r, err }
}

type testFixture struct {
	store   *session.Store
	storage *storagefake.FakeStorage
	exec    *fakeExecutor
	service *auth.Service
}

func setupTestFixture(t *testing.T, opts ...auth.ServiceOption) *testFixture {
	t.Helper()
	storage := storagefake.NewFakeStorage()
	store, err := session.Open(storage)
	require.NoError(t, err)

	exec := &fakeExecutor{handlers: map[string]func(*graphql.Operation) (*graphql.Result, error){}}
	service, err := auth.NewService(store, exec, opts...)
	require.NoError(t, err)
	return &testFixture{store: store, storage: storage, exec: exec, service: service}
}

func (f *testFixture) signIn(t *testing.T, access, refresh string) {
	t.Helper()
	require.NoError(t, f.store.Set(session.User{ID: "u1", Name: "Ana", Email: "a@b.com"}, access, refresh))
}

func TestNewService_Validation(t *testing.T) {
	_, err := auth.NewService(nil, &fakeExecutor{})
	require.Error(t, err)

	store, err := session.Open(storagefake.NewFakeStorage())
	require.NoError(t, err)
	_, err = auth.NewService(store, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.exec.handlers[graphql.LoginOperation] = respond(data("login", "access-1", "refresh-1"), nil)

	ok, err := f.service.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	require.True(t, ok)

	snap := f.store.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "access-1", *snap.AccessToken)
	require.Equal(t, "refresh-1", *snap.RefreshToken)
	require.Equal(t, "Ana", snap.User.Name)
	require.Equal(t, "user", *snap.User.Role)

	op := f.exec.Ops()[0]
	require.Equal(t, graphql.MutationKind, op.Kind)
	raw, err := json.Marshal(op.Variables)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"email":"a@b.com","password":"secret"}}`, string(raw))
}

func TestLogin_NoPayload(t *testing.T) {
	f := setupTestFixture(t)
	f.exec.handlers[graphql.LoginOperation] = respond(&graphql.Result{Data: json.RawMessage(`{"login":null}`)}, nil)

	ok, err := f.service.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, f.store.Snapshot().IsAuthenticated)
}

func TestLogin_ErrorLeavesSessionUntouched(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t, "old-access", "old-refresh")
	f.exec.handlers[graphql.LoginOperation] = respond(nil, graphql.Errors{{Message: "Credenciais inválidas"}})

	ok, err := f.service.Login(context.Background(), "a@b.com", "wrong")
	require.False(t, ok)
	var gqlErrs graphql.Errors
	require.ErrorAs(t, err, &gqlErrs)
	require.Equal(t, "Credenciais inválidas", gqlErrs[0].Message)
	require.Equal(t, "old-access", *f.store.Snapshot().AccessToken)
}

func TestLogin_ResultErrors(t *testing.T) {
	f := setupTestFixture(t)
	f.exec.handlers[graphql.LoginOperation] = respond(&graphql.Result{Errors: []graphql.Error{{Message: "boom"}}}, nil)

	_, err := f.service.Login(context.Background(), "a@b.com", "secret")
	require.ErrorContains(t, err, "boom")
}

func TestSignup(t *testing.T) {
	f := setupTestFixture(t)
	f.exec.handlers[graphql.RegisterOperation] = respond(data("register", "access-1", "refresh-1"), nil)

	ok, err := f.service.Signup(context.Background(), "Ana", "a@b.com", "secret")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, f.store.Snapshot().IsAuthenticated)

	raw, err := json.Marshal(f.exec.Ops()[0].Variables)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"name":"Ana","email":"a@b.com","password":"secret"}}`, string(raw))
}

func TestRefreshAccessToken_UsesStoredRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t, "access-1", "refresh-1")
	f.exec.handlers[graphql.RefreshTokenOperation] = respond(data("refreshToken", "access-2", "refresh-2"), nil)

	ok, err := f.service.RefreshAccessToken(context.Background(), "")
	require.NoError(t, err)
	require.True(t, ok)

	op := f.exec.Ops()[0]
	require.Equal(t, "refresh-1", op.Variables["refreshToken"])
	require.Equal(t, graphql.ErrorPolicyNone, op.ErrorPolicy)

	snap := f.store.Snapshot()
	require.Equal(t, "access-2", *snap.AccessToken)
	require.Equal(t, "refresh-2", *snap.RefreshToken)
}

func TestRefreshAccessToken_TokenPriority(t *testing.T) {
	tests := []struct {
		name     string
		access   string
		refresh  string
		explicit string
		want     string
	}{
		{name: "explicit wins", access: "a", refresh: "r", explicit: "x", want: "x"},
		{name: "refresh token", access: "a", refresh: "r", want: "r"},
		{name: "legacy access token", access: "a", want: "a"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.signIn(t, tc.access, tc.refresh)
			f.exec.handlers[graphql.RefreshTokenOperation] = respond(data("refreshToken", "new", "new-r"), nil)

			_, err := f.service.RefreshAccessToken(context.Background(), tc.explicit)
			require.NoError(t, err)
			require.Equal(t, tc.want, f.exec.Ops()[0].Variables["refreshToken"])
		})
	}
}

func TestRefreshAccessToken_NoToken(t *testing.T) {
	f := setupTestFixture(t)

	ok, err := f.service.RefreshAccessToken(context.Background(), "")
	require.False(t, ok)
	require.ErrorIs(t, err, ierrors.ErrNoRefreshToken)
	require.Zero(t, f.exec.calls.Load())
	require.False(t, f.store.Snapshot().IsAuthenticated)
}

func TestRefreshAccessToken_RejectedClearsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t, "access-1", "refresh-1")
	f.exec.handlers[graphql.RefreshTokenOperation] = respond(nil, graphql.Errors{{Message: "Refresh token inválido"}})

	ok, err := f.service.RefreshAccessToken(context.Background(), "")
	require.False(t, ok)
	require.ErrorContains(t, err, "Refresh token inválido")

	snap := f.store.Snapshot()
	require.Nil(t, snap.User)
	require.Nil(t, snap.AccessToken)
	require.Nil(t, snap.RefreshToken)
	require.False(t, snap.IsAuthenticated)

	raw, err := f.storage.Load(session.DefaultKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"user":null,"token":null,"refreshToken":null,"isAuthenticated":false}`, string(raw))
}

func TestRefreshAccessToken_MissingPayloadClearsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t, "access-1", "refresh-1")
	f.exec.handlers[graphql.RefreshTokenOperation] = respond(&graphql.Result{Data: json.RawMessage(`{"refreshToken":null}`)}, nil)

	ok, err := f.service.RefreshAccessToken(context.Background(), "")
	require.False(t, ok)
	require.ErrorIs(t, err, ierrors.ErrNoAuthPayload)
	require.False(t, f.store.Snapshot().IsAuthenticated)
}

func TestRefreshAccessToken_StorageFailureIsNotFatal(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t, "access-1", "refresh-1")
	f.storage.FailSaves(true)
	f.exec.handlers[graphql.RefreshTokenOperation] = respond(data("refreshToken", "access-2", "refresh-2"), nil)

	ok, err := f.service.RefreshAccessToken(context.Background(), "")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-2", *f.store.Snapshot().AccessToken)
}

func TestRefreshAccessToken_SingleFlight(t *testing.T) {
	f := setupTestFixture(t, auth.WithSingleFlight())
	f.signIn(t, "access-1", "refresh-1")

	release := make(chan struct{})
	f.exec.handlers[graphql.RefreshTokenOperation] = func(*graphql.Operation) (*graphql.Result, error) {
		<-release
		return data("refreshToken", "access-2", "refresh-2"), nil
	}

	const callers = 5
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.RefreshAccessToken(context.Background(), "")
			results <- err
		}()
	}

	require.Eventually(t, func() bool { return f.exec.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}
	require.LessOrEqual(t, f.exec.calls.Load(), int32(callers))
	require.Equal(t, "access-2", *f.store.Snapshot().AccessToken)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t, "access-1", "refresh-1")

	require.NoError(t, f.service.Logout())
	require.False(t, f.store.Snapshot().IsAuthenticated)
}

func TestRenameUser(t *testing.T) {
	f := setupTestFixture(t)
	f.signIn(t, "access-1", "refresh-1")

	require.NoError(t, f.service.RenameUser("Bia"))
	snap := f.store.Snapshot()
	require.Equal(t, "Bia", snap.User.Name)
	require.Equal(t, "access-1", *snap.AccessToken)
}
