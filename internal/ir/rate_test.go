package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateTags(t *testing.T) {
	assert.Equal(t, byte('a'), Audio.Byte())
	assert.Equal(t, byte('b'), Block.Byte())
	assert.Equal(t, byte('c'), Const.Byte())
}

func TestParseRate(t *testing.T) {
	for _, b := range []byte("abc") {
		r, err := ParseRate(b)
		require.NoError(t, err)
		assert.Equal(t, b, r.Byte())
	}

	_, err := ParseRate('k')
	assert.Error(t, err)
}

func TestRateText(t *testing.T) {
	text, err := Block.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "block", string(text))

	var r Rate
	require.NoError(t, r.UnmarshalText([]byte("audio")))
	assert.Equal(t, Audio, r)
	require.NoError(t, r.UnmarshalText([]byte("c")))
	assert.Equal(t, Const, r)
	assert.Error(t, r.UnmarshalText([]byte("fast")))

	_, err = Rate('x').MarshalText()
	assert.Error(t, err)
}
