// Copyright 2025 Certen Protocol

package canonjson

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	v := map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": 1, "y": 2}}
	out, err := Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(out))
	require.Equal(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(out))
}

func TestMarshalPreservesArrayOrder(t *testing.T) {
	v := map[string]any{"items": []any{3, 1, 2}}
	out, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `{"items":[3,1,2]}`, string(out))
}

func TestMarshalDeterministicAcrossRuns(t *testing.T) {
	v := map[string]any{"x": 1, "a": "hello", "nested": map[string]any{"k2": true, "k1": nil}}
	out1, err := Marshal(v)
	require.NoError(t, err)
	out2, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
}

func TestMarshalRejectsNonFiniteFloat(t *testing.T) {
	_, err := Marshal(map[string]any{"x": math.Inf(1)})
	require.Error(t, err)
}

func TestCanonicalizeJSONRoundTrip(t *testing.T) {
	raw := []byte(`{"b":1,"a":[1,2,3]}`)
	out, err := CanonicalizeJSON(raw)
	require.NoError(t, err)
	require.Equal(t, `{"a":[1,2,3],"b":1}`, string(out))

	out2, err := CanonicalizeJSON(out)
	require.NoError(t, err)
	require.Equal(t, out, out2)
}
