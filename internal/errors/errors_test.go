package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodes(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{BadInput, 2},
		{SchemaMismatch, 3},
		{NotFound, 1},
		{FetchExhausted, 1},
		{ParseError, 1},
		{InternalInvariant, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.kind.ExitCode(), c.kind.String())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(FetchExhausted, "https://example.org/p/1", "fetch failed", cause)
	require.NotNil(t, wrapped)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "https://example.org/p/1")
}

func TestIsMatchesByKind(t *testing.T) {
	a := ParseErrorf("p1", "bad entry")
	b := New(ParseError, "", "")
	assert.True(t, a.Is(b))
	assert.False(t, a.Is(New(BadInput, "", "")))
}

func TestExitCodeForNil(t *testing.T) {
	assert.Equal(t, 0, ExitCodeFor(nil))
}
