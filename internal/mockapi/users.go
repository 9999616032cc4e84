package mockapi

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errUserNotFound       = errors.New("Usuário não encontrado")
	errInvalidCredentials = errors.New("Email ou senha inválidos")
	errEmailTaken         = errors.New("Email já cadastrado")
	errInvalidRefresh     = errors.New("Refresh token inválido ou expirado")
)

type user struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *user) view() userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type authPayload struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	User         userView `json:"user"`
}

// AddUser registers an account directly and returns its ID.
func (s *Server) AddUser(name, email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.addUser(name, email, password)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *Server) addUser(name, email, password string) (*user, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.emails[email]; exists {
		return nil, errEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := &user{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         "user",
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	s.emails[email] = u.ID
	return u, nil
}

func (s *Server) payloadFor(u *user) (any, error) {
	access, err := s.mintAccessToken(u.ID)
	if err != nil {
		return nil, err
	}
	return authPayload{Token: access, RefreshToken: s.mintRefreshToken(u.ID), User: u.view()}, nil
}

func (s *Server) login(c call) (any, error) {
	var vars struct {
		Data struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	id, ok := s.emails[strings.ToLower(vars.Data.Email)]
	if !ok {
		return nil, errInvalidCredentials
	}
	u := s.users[id]
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(vars.Data.Password)) != nil {
		return nil, errInvalidCredentials
	}
	return s.payloadFor(u)
}

func (s *Server) register(c call) (any, error) {
	var vars struct {
		Data struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	u, err := s.addUser(vars.Data.Name, vars.Data.Email, vars.Data.Password)
	if err != nil {
		return nil, err
	}
	return s.payloadFor(u)
}

// refresh rotates the refresh token. An access token is also accepted, even
// an expired one, as long as its signature is valid.
func (s *Server) refresh(c call) (any, error) {
	var vars struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if s.rejectRefresh {
		return nil, errInvalidRefresh
	}

	userID, ok := s.refreshTokens[vars.RefreshToken]
	if ok && !s.keepRefresh {
		delete(s.refreshTokens, vars.RefreshToken)
	} else if !ok {
		claims, err := s.parseAccessToken(vars.RefreshToken, false)
		if err != nil {
			return nil, errInvalidRefresh
		}
		userID = claims.Subject
	}
	u, exists := s.users[userID]
	if !exists {
		return nil, errUserNotFound
	}
	return s.payloadFor(u)
}

func (s *Server) updateUser(c call) (any, error) {
	var vars struct {
		ID   string `json:"id"`
		Data struct {
			Name *string `json:"name"`
		} `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if vars.ID != c.userID {
		return nil, errUserNotFound
	}
	u := s.users[c.userID]
	if vars.Data.Name != nil {
		u.Name = *vars.Data.Name
		u.UpdatedAt = s.now()
	}
	return u.view(), nil
}
