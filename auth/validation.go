package auth

import (
	"strings"

	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
)

// validateCredentials checks login input before it is sent.
func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "email is required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "invalid email format")
	}
	if password == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "password is required")
	}
	return nil
}

func validateSignup(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "name is required")
	}
	return validateCredentials(email, password)
}
