package credentials

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCodec struct {
	PlainCodec
	encodes int
}

func (c *countingCodec) Encode(name, secret string) (string, error) {
	c.encodes++
	return c.PlainCodec.Encode(name, secret)
}

func TestDerivedTokenRecomputesOnlyOnChange(t *testing.T) {
	codec := &countingCodec{}
	derived := NewDerivedToken(codec)

	_, ok := derived.Token()
	assert.False(t, ok)

	token, err := derived.Update("Alice", "p@ss")
	require.NoError(t, err)
	assert.Equal(t, "Alice&&p@ss", token)
	assert.Equal(t, 1, codec.encodes)

	token, err = derived.Update("Alice", "p@ss")
	require.NoError(t, err)
	assert.Equal(t, "Alice&&p@ss", token)
	assert.Equal(t, 1, codec.encodes, "unchanged pair must reuse the cached token")

	token, err = derived.Update("Alice", "n3w")
	require.NoError(t, err)
	assert.Equal(t, "Alice&&n3w", token)
	assert.Equal(t, 2, codec.encodes)

	current, ok := derived.Token()
	assert.True(t, ok)
	assert.Equal(t, "Alice&&n3w", current)
}

func TestDerivedTokenInvalidUpdateClearsToken(t *testing.T) {
	derived := NewDerivedToken(NewPlainCodec())

	_, err := derived.Update("Alice", "p@ss")
	require.NoError(t, err)

	_, err = derived.Update("Alice", "p&&ss")
	assert.ErrorIs(t, err, ErrReservedDelimiter)

	_, ok := derived.Token()
	assert.False(t, ok, "a stale token must not outlive the identity it encoded")
}

func TestDerivedTokenInvalidate(t *testing.T) {
	codec := &countingCodec{}
	derived := NewDerivedToken(codec)

	_, err := derived.Update("Alice", "p@ss")
	require.NoError(t, err)

	derived.Invalidate()
	_, ok := derived.Token()
	assert.False(t, ok)

	token, err := derived.Update("Alice", "p@ss")
	require.NoError(t, err)
	assert.Equal(t, "Alice&&p@ss", token)
	assert.Equal(t, 2, codec.encodes)
}

func TestDerivedTokenConcurrentUpdates(t *testing.T) {
	derived := NewDerivedToken(NewPlainCodec())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = derived.Update("Alice", "p@ss")
			_, _ = derived.Token()
		}()
	}
	wg.Wait()

	token, ok := derived.Token()
	assert.True(t, ok)
	assert.Equal(t, "Alice&&p@ss", token)
}
