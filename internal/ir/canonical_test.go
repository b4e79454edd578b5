package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":true}`, string(got))
}

func TestMarshalCanonicalFloats(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{-9.5, "-9.5"},
		{0.1, "0.1"},
		{math.Copysign(0, -1), "0"},
		{1e-7, "1e-07"},
	}
	for _, tt := range tests {
		got, err := MarshalCanonical(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}

	_, err := MarshalCanonical(math.NaN())
	assert.Error(t, err)
	_, err = MarshalCanonical(math.Inf(1))
	assert.Error(t, err)
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical([]any{"a", nil})
	assert.Error(t, err)
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	got, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got), "U+2028 stays literal")

	got, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(got), "escaped backslash is preserved")
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed, err := MarshalCanonical("\u00e9")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalRecordOmitsAbsentOptionals(t *testing.T) {
	got, err := MarshalCanonical(feOH())
	require.NoError(t, err)
	assert.Contains(t, string(got), `"delta_h":55.2`)
	assert.NotContains(t, string(got), "delta_cp")
}
