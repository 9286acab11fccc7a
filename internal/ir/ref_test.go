package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefAddressTagging(t *testing.T) {
	for _, i := range []int{0, 1, 2, 0x1234, MaxConstants - 1} {
		a := ConstRef(i).Address()
		assert.NotZero(t, a&ConstantBit, "constant %d must carry the tag bit", i)
		assert.Equal(t, uint16(i), a&0x7FFF)
	}
	for _, i := range []int{0, 1, 2, 0x1234, MaxOperations - 1} {
		a := OpRef(i).Address()
		assert.Zero(t, a&ConstantBit, "operation %d must not carry the tag bit", i)
		assert.Equal(t, uint16(i), a)
	}
}

func TestRefFromAddress(t *testing.T) {
	assert.Equal(t, OpRef(7), RefFromAddress(7))
	assert.Equal(t, ConstRef(7), RefFromAddress(0x8007))
	assert.Equal(t, ConstRef(0), RefFromAddress(0x8000))
	assert.Equal(t, OpRef(0x7FFF), RefFromAddress(0x7FFF))
}

func TestRefString(t *testing.T) {
	assert.Equal(t, "op:3", OpRef(3).String())
	assert.Equal(t, "const:0", ConstRef(0).String())
}

func TestRefJSON(t *testing.T) {
	data, err := json.Marshal([]Ref{OpRef(0), ConstRef(1)})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"operation":0},{"constant":1}]`, string(data))

	var refs []Ref
	require.NoError(t, json.Unmarshal(data, &refs))
	assert.Equal(t, []Ref{OpRef(0), ConstRef(1)}, refs)
}

func TestRefJSONRejectsAmbiguous(t *testing.T) {
	var r Ref
	assert.Error(t, json.Unmarshal([]byte(`{"operation":0,"constant":1}`), &r))
	assert.Error(t, json.Unmarshal([]byte(`{}`), &r))
}
