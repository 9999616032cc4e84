package session

import (
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
)

// ErrNotFound is returned by a Storage when nothing is stored under the key.
var ErrNotFound = ierrors.ErrNotFound

// Storage is the durable backend the session record is written to.
type Storage interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
}

// StorageError reports a failed storage operation.
type StorageError struct {
	Operation string // "load", "save", "delete"
	Key       string
	Cause     error
}

func (e *StorageError) Error() string {
	msg := "session: " + e.Operation + " " + e.Key
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap matches both ierrors.ErrStorageUnavailable and the backend's cause.
func (e *StorageError) Unwrap() []error {
	return []error{ierrors.ErrStorageUnavailable, e.Cause}
}
