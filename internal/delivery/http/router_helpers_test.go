package http

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// jsonField reads a string field from the data object of an API envelope.
func jsonField(t *testing.T, body, field string) string {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	v, ok := env.Data[field].(string)
	require.True(t, ok, "field %q missing from %s", field, body)
	return v
}
