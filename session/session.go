package session

import "github.com/jrsteele09/go-finance-client/internal/utils"

// User is the identity the backend returned with the last token pair.
type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      *string `json:"role,omitempty"`
	CreatedAt *string `json:"createdAt,omitempty"`
	UpdatedAt *string `json:"updatedAt,omitempty"`
}

// Session is "who is logged in, with what credentials". The JSON form is the
// flat record kept in durable storage.
//
// IsAuthenticated is always User != nil && AccessToken != nil.
type Session struct {
	User            *User   `json:"user"`
	AccessToken     *string `json:"token"`
	RefreshToken    *string `json:"refreshToken"`
	IsAuthenticated bool    `json:"isAuthenticated"`
}

func (s Session) clone() Session {
	c := Session{IsAuthenticated: s.IsAuthenticated}
	if s.User != nil {
		u := *s.User
		u.Role = cloneString(s.User.Role)
		u.CreatedAt = cloneString(s.User.CreatedAt)
		u.UpdatedAt = cloneString(s.User.UpdatedAt)
		c.User = &u
	}
	c.AccessToken = cloneString(s.AccessToken)
	c.RefreshToken = cloneString(s.RefreshToken)
	return c
}

// RefreshCredential is the token a refresh should present: the refresh token
// when there is one, otherwise the access token. Empty when logged out.
func (s Session) RefreshCredential() string {
	if refresh := utils.Value(s.RefreshToken); refresh != "" {
		return refresh
	}
	return utils.Value(s.AccessToken)
}

// normalise enforces the authenticated invariant.
func (s Session) normalise() Session {
	s.IsAuthenticated = s.User != nil && s.AccessToken != nil
	return s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
