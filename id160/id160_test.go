package id160

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUnique(t *testing.T) {
	a := New()
	b := New()
	require.NotEqual(t, a, b)
	require.False(t, a.IsZero())
}

func TestParseRoundTrip(t *testing.T) {
	a := New()
	parsed, err := Parse(a.String())
	require.NoError(t, err)
	require.Equal(t, a, parsed)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-hex")
	require.Error(t, err)

	_, err = Parse("abcd")
	require.Error(t, err)
}

func TestTextMarshalRoundTrip(t *testing.T) {
	a := New()
	text, err := a.MarshalText()
	require.NoError(t, err)

	var b ID
	require.NoError(t, b.UnmarshalText(text))
	require.Equal(t, a, b)
}

func TestLessTotalOrder(t *testing.T) {
	var a, b ID
	a[0], b[0] = 1, 2
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
}
