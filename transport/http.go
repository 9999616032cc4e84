// Package transport is the terminal pipeline stage: it sends operations to the
// GraphQL backend over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-finance-client/graphql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 10 << 20
)

type request struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// HTTP posts operations as JSON to a single GraphQL endpoint.
type HTTP struct {
	endpoint string
	client   *http.Client
	logger   zerolog.Logger
}

type Option func(*HTTP)

// WithHTTPClient replaces the default client. Its Timeout bounds each call.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(h *HTTP) {
		h.logger = l
	}
}

func NewHTTP(endpoint string, opts ...Option) (*HTTP, error) {
	if endpoint == "" {
		return nil, errors.New("[transport NewHTTP] endpoint is required")
	}
	h := &HTTP{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Do is a link.Handler. A 2xx response yields the decoded result, which may
// carry GraphQL errors. Anything else is a *graphql.TransportError.
func (h *HTTP) Do(ctx context.Context, op *graphql.Operation) (*graphql.Result, error) {
	if op == nil {
		return nil, errors.New("[HTTP.Do] nil operation")
	}

	body, err := json.Marshal(request{
		OperationName: op.Name,
		Query:         op.Query,
		Variables:     op.Variables,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[HTTP.Do] encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "[HTTP.Do] build request")
	}
	for name, values := range op.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if op.ID != "" {
		req.Header.Set(requestIDHeader, op.ID)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &graphql.TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &graphql.TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	var result graphql.Result
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &graphql.TransportError{StatusCode: resp.StatusCode}
		if decodeErr == nil && (len(result.Errors) > 0 || len(result.Data) > 0) {
			te.Result = &result
		}
		h.logger.Debug().Str("operation", op.Name).Int("status", resp.StatusCode).Msg("non-2xx response")
		return nil, te
	}
	if decodeErr != nil {
		return nil, &graphql.TransportError{StatusCode: resp.StatusCode, Err: errors.Wrap(decodeErr, "decode response")}
	}
	return &result, nil
}
