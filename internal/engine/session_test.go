package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.LessOrEqual(t, a, b, "UUIDv7 strings sort by creation time")
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), c.Current())

	c.Reset()
	assert.Equal(t, int64(1), c.Next())
}

func TestProcessErrorFormat(t *testing.T) {
	err := &ProcessError{Code: ErrCodeSend, Message: "write", Session: "s1", Err: ErrDatagramTooLarge}
	assert.Equal(t, "SEND_FAILED: write (session=s1): datagram exceeds engine receive buffer", err.Error())
	assert.ErrorIs(t, err, ErrDatagramTooLarge)
	assert.False(t, IsBuildError(err))
}
