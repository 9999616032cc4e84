// Package mockapi is an in-process emulator of the finance GraphQL backend.
// It dispatches on the operation name rather than parsing documents, and has
// knobs for expiring tokens and rejecting refreshes so the client's recovery
// paths can be driven end to end.
package mockapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NotAuthenticatedMessage is the error the backend returns for a missing or
// invalid access token.
const NotAuthenticatedMessage = "Usuário não autenticado!"

type gqlError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type response struct {
	Data   map[string]any `json:"data"`
	Errors []gqlError     `json:"errors,omitempty"`
}

type request struct {
	OperationName string          `json:"operationName"`
	Query         string          `json:"query"`
	Variables     json.RawMessage `json:"variables"`
}

// call is one resolved request handed to an operation handler.
type call struct {
	userID string
	vars   json.RawMessage
}

func (c call) decode(v any) error {
	if len(c.vars) == 0 {
		return nil
	}
	return json.Unmarshal(c.vars, v)
}

type operation struct {
	field  string
	public bool
	fn     func(c call) (any, error)
}

// Server is safe for concurrent use.
type Server struct {
	mu         sync.Mutex
	secret     []byte
	accessTTL  time.Duration
	now        func() time.Time
	authStatus int
	authCode   string
	logger     zerolog.Logger

	users         map[string]*user
	emails        map[string]string
	refreshTokens map[string]string
	revoked       map[string]bool
	issued        []string
	rejectRefresh bool
	keepRefresh   bool

	transactions map[string]*transaction
	categories   map[string]*category
	ideas        map[string]*idea
	comments     []*comment
	votes        map[string]map[string]bool

	calls      map[string]int
	operations map[string]operation
}

type Option func(*Server)

// WithAccessTTL sets how long minted access tokens stay valid.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithUnauthorizedStatus answers auth failures with the given HTTP status
// instead of 200.
func WithUnauthorizedStatus(status int) Option {
	return func(s *Server) {
		s.authStatus = status
	}
}

// WithUnauthenticatedCode adds extensions.code to auth failure errors.
func WithUnauthenticatedCode(code string) Option {
	return func(s *Server) {
		s.authCode = code
	}
}

// WithReusableRefreshTokens stops refresh tokens from being consumed on use.
func WithReusableRefreshTokens() Option {
	return func(s *Server) {
		s.keepRefresh = true
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:        []byte(uuid.NewString()),
		accessTTL:     15 * time.Minute,
		now:           time.Now,
		authStatus:    http.StatusOK,
		logger:        log.Logger,
		users:         make(map[string]*user),
		emails:        make(map[string]string),
		refreshTokens: make(map[string]string),
		revoked:       make(map[string]bool),
		transactions:  make(map[string]*transaction),
		categories:    make(map[string]*category),
		ideas:         make(map[string]*idea),
		votes:         make(map[string]map[string]bool),
		calls:         make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.operations = s.routes()
	return s
}

func (s *Server) routes() map[string]operation {
	return map[string]operation{
		"Login":        {field: "login", public: true, fn: s.login},
		"Register":     {field: "register", public: true, fn: s.register},
		"RefreshToken": {field: "refreshToken", public: true, fn: s.refresh},
		"UpdateUser":   {field: "updateUser", fn: s.updateUser},

		"ListTransactions":          {field: "listTransactions", fn: s.listTransactions},
		"ListTransactionsPaginated": {field: "listTransactionsPaginated", fn: s.listTransactionsPaginated},
		"GetTransaction":            {field: "getTransaction", fn: s.getTransaction},
		"CreateTransaction":         {field: "createTransaction", fn: s.createTransaction},
		"UpdateTransaction":         {field: "updateTransaction", fn: s.updateTransaction},
		"DeleteTransaction":         {field: "deleteTransaction", fn: s.deleteTransaction},

		"ListCategories": {field: "listCategories", fn: s.listCategories},
		"GetCategory":    {field: "getCategory", fn: s.getCategory},
		"CreateCategory": {field: "createCategory", fn: s.createCategory},
		"UpdateCategory": {field: "updateCategory", fn: s.updateCategory},
		"DeleteCategory": {field: "deleteCategory", fn: s.deleteCategory},

		"ListIdeas":     {field: "listIdeas", fn: s.listIdeas},
		"GetIdea":       {field: "getIdea", fn: s.getIdea},
		"CreateIdea":    {field: "createIdea", fn: s.createIdea},
		"UpdateIdea":    {field: "updateIdea", fn: s.updateIdea},
		"DeleteIdea":    {field: "deleteIdea", fn: s.deleteIdea},
		"CreateComment": {field: "createComment", fn: s.createComment},
		"ToggleVote":    {field: "toggleVote", fn: s.toggleVote},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[req.OperationName]++

	op, ok := s.operations[req.OperationName]
	if !ok {
		writeJSON(w, http.StatusOK, response{Errors: []gqlError{{Message: "Unknown operation " + req.OperationName}}})
		return
	}

	c := call{vars: req.Variables}
	if !op.public {
		userID, ok := s.authenticate(r.Header.Get("Authorization"))
		if !ok {
			s.logger.Debug().Str("operation", req.OperationName).Msg("mockapi: rejected token")
			writeJSON(w, s.authStatus, response{Errors: []gqlError{s.notAuthenticated()}})
			return
		}
		c.userID = userID
	}

	result, err := op.fn(c)
	if err != nil {
		writeJSON(w, http.StatusOK, response{Errors: []gqlError{{Message: err.Error()}}})
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]any{op.field: result}})
}

func (s *Server) notAuthenticated() gqlError {
	e := gqlError{Message: NotAuthenticatedMessage}
	if s.authCode != "" {
		e.Extensions = map[string]any{"code": s.authCode}
	}
	return e
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// authenticate validates a bearer access token and returns its subject.
func (s *Server) authenticate(header string) (string, bool) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", false
	}
	claims, err := s.parseAccessToken(raw, true)
	if err != nil || s.revoked[claims.ID] {
		return "", false
	}
	if _, exists := s.users[claims.Subject]; !exists {
		return "", false
	}
	return claims.Subject, true
}

func (s *Server) parseAccessToken(raw string, validateClaims bool) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) mintAccessToken(userID string) (string, error) {
	now := s.now()
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.issued = append(s.issued, jti)
	return signed, nil
}

func (s *Server) mintRefreshToken(userID string) string {
	token := uuid.NewString()
	s.refreshTokens[token] = userID
	return token
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, jti := range s.issued {
		s.revoked[jti] = true
	}
}

// RejectRefresh makes every RefreshToken call fail while set.
func (s *Server) RejectRefresh(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = reject
}

// Calls reports how many requests named operation have been received.
func (s *Server) Calls(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[operation]
}

// IssueTokens signs a user in directly and returns a fresh token pair.
func (s *Server) IssueTokens(email string) (access, refresh string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return "", "", errUserNotFound
	}
	access, err = s.mintAccessToken(id)
	if err != nil {
		return "", "", err
	}
	return access, s.mintRefreshToken(id), nil
}
