package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minicollider/internal/wire"
)

func TestFrameQuit(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x00}, wire.Frame(wire.QuitMessage()))
}

func TestFrameCompile(t *testing.T) {
	got := wire.Frame(wire.CompileMessage([]byte{0xAB, 0xCD}))
	assert.Equal(t, []byte{0x01, 0x00, 0xAB, 0xCD}, got)
}

func TestParseFrame(t *testing.T) {
	m, err := wire.ParseFrame([]byte{0x01, 0x00, 0x02, 0x00})
	require.NoError(t, err)
	assert.Equal(t, wire.Compile, m.Type)
	assert.Equal(t, []byte{0x02, 0x00}, m.Payload)

	m, err = wire.ParseFrame([]byte{0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, wire.Quit, m.Type)
	assert.Nil(t, m.Payload)

	m, err = wire.ParseFrame([]byte{0x07, 0x01})
	require.NoError(t, err)
	assert.Equal(t, wire.MessageType(0x0107), m.Type)
	assert.Equal(t, "MessageType(263)", m.Type.String())

	_, err = wire.ParseFrame([]byte{0x01})
	assert.ErrorIs(t, err, wire.ErrShortFrame)
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "quit", wire.Quit.String())
	assert.Equal(t, "compile", wire.Compile.String())
}
