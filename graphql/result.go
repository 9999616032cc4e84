package graphql

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is an application level GraphQL error.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code when the server attached one.
func (e Error) Code() string {
	if e.Extensions == nil {
		return ""
	}
	code, _ := e.Extensions["code"].(string)
	return code
}

// Result is what the transport returned for an operation. A result with both
// data and errors is a partial success.
type Result struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

// HasErrors reports whether the result carries application errors.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// Decode unmarshals the data member into v.
func (r *Result) Decode(v any) error {
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return ErrEmptyData
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("[graphql Decode] %w", err)
	}
	return nil
}

// DecodeField unmarshals data.<field> into v. A missing or null field is
// reported as ErrEmptyData.
func (r *Result) DecodeField(field string, v any) error {
	var data map[string]json.RawMessage
	if err := r.Decode(&data); err != nil {
		return err
	}
	raw, ok := data[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return ErrEmptyData
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("[graphql DecodeField] %s: %w", field, err)
	}
	return nil
}

// Errors is returned when an operation with ErrorPolicyNone comes back with
// application errors.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}
