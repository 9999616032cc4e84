package errors

import (
	"errors"
	"fmt"
)

// Common error types for the finance client
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoAccessToken    = errors.New("no access token")
	ErrNoRefreshToken   = errors.New("no token available for refresh")

	// Refresh errors
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrTokenNotUpdated  = errors.New("token not updated after refresh")
	ErrNoAuthPayload    = errors.New("response carried no auth payload")
	ErrMissingOperation = errors.New("missing operation")

	// Consumer errors
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNoData       = errors.New("response carried no data")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
