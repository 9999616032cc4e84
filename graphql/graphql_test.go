package graphql_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-finance-client/graphql"
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNewOperation_Defaults(t *testing.T) {
	op := graphql.NewQuery(graphql.ListTransactionsOperation, graphql.ListTransactionsDocument, nil)

	require.NotEmpty(t, op.ID)
	require.Equal(t, graphql.QueryKind, op.Kind)
	require.Equal(t, graphql.ErrorPolicyNone, op.ErrorPolicy)
	require.Equal(t, graphql.NetworkOnly, op.FetchPolicy)
	require.False(t, op.IsRetry)
	require.NotNil(t, op.Headers)

	other := graphql.NewMutation(graphql.LoginOperation, graphql.LoginDocument, nil)
	require.NotEqual(t, op.ID, other.ID)
	require.Equal(t, graphql.MutationKind, other.Kind)
}

func TestOperation_CloneIsIndependent(t *testing.T) {
	op := graphql.NewQuery("GetTransaction", graphql.GetTransactionDocument, map[string]any{"id": "t-1"})
	op.Headers.Set("X-Trace", "abc")

	c := op.Clone()
	c.IsRetry = true
	c.Headers.Set("Authorization", "Bearer new")
	c.Variables["id"] = "t-2"

	require.False(t, op.IsRetry)
	require.Empty(t, op.Headers.Get("Authorization"))
	require.Equal(t, "abc", c.Headers.Get("X-Trace"))
	require.Equal(t, "t-1", op.Variables["id"])
	require.Equal(t, op.ID, c.ID)
}

func TestResult_Decode(t *testing.T) {
	r := &graphql.Result{Data: json.RawMessage(`{"deleteTransaction":true}`)}

	var out struct {
		DeleteTransaction bool `json:"deleteTransaction"`
	}
	require.NoError(t, r.Decode(&out))
	require.True(t, out.DeleteTransaction)

	require.ErrorIs(t, (&graphql.Result{}).Decode(&out), graphql.ErrEmptyData)
	require.ErrorIs(t, (&graphql.Result{Data: json.RawMessage("null")}).Decode(&out), graphql.ErrEmptyData)
}

func TestResult_DecodeField(t *testing.T) {
	r := &graphql.Result{Data: json.RawMessage(`{"getCategory":{"id":"c1","name":"Food"},"gone":null}`)}

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, r.DecodeField("getCategory", &out))
	require.Equal(t, "Food", out.Name)

	require.ErrorIs(t, r.DecodeField("gone", &out), graphql.ErrEmptyData)
	require.ErrorIs(t, r.DecodeField("missing", &out), ierrors.ErrNoData)
}

func TestError_Code(t *testing.T) {
	require.Equal(t, "UNAUTHENTICATED", graphql.Error{Extensions: map[string]any{"code": "UNAUTHENTICATED"}}.Code())
	require.Empty(t, graphql.Error{Message: "boom"}.Code())
}

func TestErrors_Error(t *testing.T) {
	err := graphql.Errors{{Message: "first"}, {Message: "second"}}
	require.Equal(t, "graphql: first; second", err.Error())
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("wrapped: %w", &graphql.TransportError{Err: cause})

	te, ok := graphql.AsTransportError(err)
	require.True(t, ok)
	require.Zero(t, te.StatusCode)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "transport: connection refused", te.Error())

	te = &graphql.TransportError{StatusCode: http.StatusUnauthorized}
	require.Equal(t, "transport: 401 Unauthorized", te.Error())

	_, ok = graphql.AsTransportError(errors.New("plain"))
	require.False(t, ok)
}
