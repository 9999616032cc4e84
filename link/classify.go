package link

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-finance-client/graphql"
)

// Classifier decides whether an outcome means "the access token was missing,
// invalid or expired". It is the only place that knows how the backend reports
// that condition.
type Classifier struct {
	messages []string
	markers  []string
	codes    []string
}

// NewClassifier matches errors whose message equals one of messages or contains
// one of markers, or whose extensions.code is one of codes.
func NewClassifier(messages, markers, codes []string) *Classifier {
	return &Classifier{
		messages: nonEmpty(messages),
		markers:  nonEmpty(markers),
		codes:    nonEmpty(codes),
	}
}

// DefaultClassifier recognises the backend's Portuguese "not authenticated"
// message and the conventional UNAUTHENTICATED code.
func DefaultClassifier() *Classifier {
	return NewClassifier(
		[]string{"Usuário não autenticado!"},
		[]string{"não autenticado"},
		[]string{"UNAUTHENTICATED"},
	)
}

// IsAuthFailure classifies one transport outcome. An application error
// matches on its code or on its message, whichever fits; transport errors
// match on HTTP 401 or on the errors of the payload they carry.
func (c *Classifier) IsAuthFailure(result *graphql.Result, err error) bool {
	if err != nil {
		te, ok := graphql.AsTransportError(err)
		if !ok {
			return false
		}
		if te.StatusCode == http.StatusUnauthorized {
			return true
		}
		return te.Result != nil && c.matchesAny(te.Result.Errors)
	}
	return result != nil && c.matchesAny(result.Errors)
}

func (c *Classifier) matchesAny(errs []graphql.Error) bool {
	for _, e := range errs {
		if c.matches(e) {
			return true
		}
	}
	return false
}

func (c *Classifier) matches(e graphql.Error) bool {
	if code := e.Code(); code != "" {
		for _, want := range c.codes {
			if code == want {
				return true
			}
		}
	}
	for _, msg := range c.messages {
		if e.Message == msg {
			return true
		}
	}
	for _, marker := range c.markers {
		if strings.Contains(e.Message, marker) {
			return true
		}
	}
	return false
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
