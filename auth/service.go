// Package auth runs the login, signup, refresh and logout flows against the
// backend and keeps the session store in step with their outcomes.
package auth

import (
	"context"

	"github.com/jrsteele09/go-finance-client/graphql"
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/jrsteele09/go-finance-client/link"
	"github.com/jrsteele09/go-finance-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Executor runs an operation through the full client pipeline.
type Executor interface {
	Execute(ctx context.Context, op *graphql.Operation) (*graphql.Result, error)
}

// SessionStore is the subset of *session.Store the service mutates.
type SessionStore interface {
	Snapshot() session.Session
	Set(user session.User, accessToken, refreshToken string) error
	Clear() error
	RenameUser(name string) error
}

// Payload is the token pair and user returned by login, register and refresh.
type Payload struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         session.User `json:"user"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service implements the authentication flows.
type Service struct {
	sessions SessionStore
	exec     Executor
	logger   zerolog.Logger
	refresh  *singleflight.Group
}

var _ link.Refresher = (*Service)(nil)

type ServiceOption func(*Service)

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithSingleFlight coalesces concurrent refreshes that use the same token into
// one backend call.
func WithSingleFlight() ServiceOption {
	return func(s *Service) {
		s.refresh = &singleflight.Group{}
	}
}

func NewService(sessions SessionStore, exec Executor, opts ...ServiceOption) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("[auth NewService] session store is required")
	}
	if exec == nil {
		return nil, errors.New("[auth NewService] executor is required")
	}
	s := &Service{
		sessions: sessions,
		exec:     exec,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login authenticates with email and password. It reports false without error
// when the backend answered without a payload; on error the session is left
// untouched.
func (s *Service) Login(ctx context.Context, email, password string) (bool, error) {
	if err := validateCredentials(email, password); err != nil {
		return false, errors.Wrap(err, "[Service.Login]")
	}
	op := graphql.NewMutation(graphql.LoginOperation, graphql.LoginDocument, map[string]any{
		"data": loginInput{Email: email, Password: password},
	})
	ok, err := s.authenticate(ctx, op, "login")
	if err != nil {
		s.logger.Info().Err(err).Msg("login failed")
		return false, errors.Wrap(err, "[Service.Login]")
	}
	return ok, nil
}

// Signup registers a new account and signs it in.
func (s *Service) Signup(ctx context.Context, name, email, password string) (bool, error) {
	if err := validateSignup(name, email, password); err != nil {
		return false, errors.Wrap(err, "[Service.Signup]")
	}
	op := graphql.NewMutation(graphql.RegisterOperation, graphql.RegisterDocument, map[string]any{
		"data": registerInput{Name: name, Email: email, Password: password},
	})
	ok, err := s.authenticate(ctx, op, "register")
	if err != nil {
		s.logger.Info().Err(err).Msg("signup failed")
		return false, errors.Wrap(err, "[Service.Signup]")
	}
	return ok, nil
}

func (s *Service) authenticate(ctx context.Context, op *graphql.Operation, field string) (bool, error) {
	payload, err := s.runAuthMutation(ctx, op, field)
	if err != nil {
		return false, err
	}
	if payload == nil {
		return false, nil
	}
	if err := s.sessions.Set(payload.User, payload.Token, payload.RefreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("session not persisted")
	}
	s.logger.Info().Str("operation", op.Name).Str("user", payload.User.ID).Msg("authenticated")
	return true, nil
}

// RefreshAccessToken exchanges a token for a new pair. The token used is
// explicitToken, else the stored refresh token, else the stored access token.
// Every failure clears the session before returning.
func (s *Service) RefreshAccessToken(ctx context.Context, explicitToken string) (bool, error) {
	token := explicitToken
	if token == "" {
		token = s.sessions.Snapshot().RefreshCredential()
	}
	if token == "" {
		s.clearAfterFailedRefresh(ierrors.ErrNoRefreshToken)
		return false, errors.Wrap(ierrors.ErrNoRefreshToken, "[Service.RefreshAccessToken]")
	}

	if s.refresh == nil {
		return s.refreshWith(ctx, token)
	}
	v, err, shared := s.refresh.Do(token, func() (any, error) {
		return s.refreshWith(ctx, token)
	})
	if shared {
		s.logger.Debug().Msg("joined in-flight refresh")
	}
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (s *Service) refreshWith(ctx context.Context, token string) (bool, error) {
	op := graphql.NewMutation(graphql.RefreshTokenOperation, graphql.RefreshTokenDocument, map[string]any{
		"refreshToken": token,
	}).WithErrorPolicy(graphql.ErrorPolicyNone)

	payload, err := s.runAuthMutation(ctx, op, "refreshToken")
	if err == nil && payload == nil {
		err = ierrors.ErrNoAuthPayload
	}
	if err != nil {
		s.clearAfterFailedRefresh(err)
		return false, errors.Wrap(err, "[Service.RefreshAccessToken]")
	}
	if err := s.sessions.Set(payload.User, payload.Token, payload.RefreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("refreshed session not persisted")
	}

	s.logger.Debug().Msg("access token refreshed")
	return true, nil
}

func (s *Service) clearAfterFailedRefresh(cause error) {
	s.logger.Warn().Err(cause).Msg("token refresh failed, logging out")
	if err := s.sessions.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("session clear not persisted")
	}
}

// Logout ends the session.
func (s *Service) Logout() error {
	if err := s.sessions.Clear(); err != nil {
		return errors.Wrap(err, "[Service.Logout]")
	}
	return nil
}

// RenameUser changes the display name of the signed-in user.
func (s *Service) RenameUser(name string) error {
	if err := s.sessions.RenameUser(name); err != nil {
		return errors.Wrap(err, "[Service.RenameUser]")
	}
	return nil
}

// runAuthMutation executes op and decodes data.<field>. A null field yields a
// nil payload.
func (s *Service) runAuthMutation(ctx context.Context, op *graphql.Operation, field string) (*Payload, error) {
	result, err := s.exec.Execute(ctx, op)
	if err != nil {
		return nil, err
	}
	if result.HasErrors() {
		return nil, graphql.Errors(result.Errors)
	}

	var data map[string]*Payload
	if err := result.Decode(&data); err != nil {
		if errors.Is(err, graphql.ErrEmptyData) {
			return nil, nil
		}
		return nil, err
	}
	return data[field], nil
}
