package session

import (
	"encoding/json"
	"errors"
	"sync"

	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const DefaultKey = "auth-storage"

// CacheClearer purges cached responses when the session ends.
type CacheClearer interface {
	Purge()
}

// Store is the single source of truth for the current session. All reads and
// writes are serialised so snapshots never observe a partial update.
type Store struct {
	mu      sync.RWMutex
	state   Session
	storage Storage
	key     string
	cache   CacheClearer
	logger  zerolog.Logger
}

var _ oauth2.TokenSource = (*Store)(nil)

type StoreOption func(*Store)

// WithKey overrides the storage key the session record lives under.
func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithCacheClearer registers the response cache purged by Clear.
func WithCacheClearer(c CacheClearer) StoreOption {
	return func(s *Store) {
		s.cache = c
	}
}

func WithLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// Open creates the store and restores the last persisted session. A missing
// record means logged out.
func Open(storage Storage, opts ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, errors.New("[session Open] storage is required")
	}
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reload() error {
	raw, err := s.storage.Load(s.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return &StorageError{Operation: "load", Key: s.key, Cause: err}
	}

	var persisted Session
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return &StorageError{Operation: "load", Key: s.key, Cause: err}
	}
	s.state = persisted.normalise()
	return nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Set replaces user and both tokens in one step and persists the result.
// An empty refresh token is stored as absent.
func (s *Store) Set(user User, accessToken, refreshToken string) error {
	next := Session{User: &user}
	if accessToken != "" {
		next.AccessToken = &accessToken
	}
	if refreshToken != "" {
		next.RefreshToken = &refreshToken
	}
	return s.replace(next.clone().normalise())
}

// Clear logs out: all fields are removed and the response cache is purged.
func (s *Store) Clear() error {
	err := s.replace(Session{})
	if s.cache != nil {
		s.cache.Purge()
	}
	return err
}

// RenameUser changes the display name of the logged in user. Tokens are untouched.
func (s *Store) RenameUser(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil {
		return nil
	}
	next := s.state.clone()
	next.User.Name = name
	s.state = next
	return s.persistLocked()
}

// Token exposes the access token as an oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	access := s.state.AccessToken
	s.mu.RUnlock()
	if access == nil {
		return nil, ierrors.ErrNoAccessToken
	}
	tok := &oauth2.Token{AccessToken: *access, TokenType: "Bearer"}
	if exp, ok := TokenExpiry(*access); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

func (s *Store) replace(next Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
	return s.persistLocked()
}

// persistLocked writes the state while the write lock is held so the stored
// record always matches the order of in-memory updates.
func (s *Store) persistLocked() error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return &StorageError{Operation: "save", Key: s.key, Cause: err}
	}
	if err := s.storage.Save(s.key, raw); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("session: failed to persist")
		return &StorageError{Operation: "save", Key: s.key, Cause: err}
	}
	return nil
}
