package graphql

import (
	"errors"
	"fmt"
	"net/http"

	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
)

// ErrEmptyData is returned when a result has no data to decode.
var ErrEmptyData = ierrors.ErrNoData

// TransportError is a hard failure of the transport stage: a non-2xx response or
// a request that never got an answer (StatusCode 0).
type TransportError struct {
	StatusCode int     // HTTP status, 0 when no response was received
	Result     *Result // Decoded body, when the server sent a GraphQL payload
	Err        error   // Underlying cause
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("transport: %d %s: %v", e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("transport: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return "transport: " + e.Err.Error()
	}
	return "transport: unknown failure"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsTransportError extracts a TransportError from err's chain.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
