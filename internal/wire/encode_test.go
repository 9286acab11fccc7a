package wire_test

import (
	"encoding/hex"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minicollider/internal/dag"
	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/patch"
	"github.com/roach88/minicollider/internal/wire"
)

func TestEncodeSineBytes(t *testing.T) {
	g := dag.MustBuild(patch.Sine())
	got, err := wire.Encode(g)
	require.NoError(t, err)

	want := []byte{
		0x02, 0x00, // 2 constants
		0x00, 0x00, 0x00, 0x00, // 0.0
		0xcd, 0xcc, 0xcc, 0x3d, // 0.1
		0x01, 0x00, // 1 control
		0x00, 0x00, 0xdc, 0x43, // 440.0
		0x03, 0x00, // 3 operations

		0x05, 'P', 'a', 'r', 'a', 'm', 'b', 0x00, 0x00,

		0x06, 'S', 'i', 'n', 'O', 's', 'c', 'a', 0x02, 0x00,
		0x00, 0x00, // op 0
		0x00, 0x80, // const 0

		0x03, 'M', 'u', 'l', 'a', 0x02, 0x00,
		0x01, 0x00, // op 1
		0x01, 0x80, // const 1
	}
	assert.Equal(t, want, got)
	assert.Equal(t, len(got), wire.Size(g))
}

func TestEncodeGolden(t *testing.T) {
	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, name := range patch.Names() {
		t.Run(name, func(t *testing.T) {
			p, ok := patch.Lookup(name)
			require.True(t, ok)
			g, err := dag.Build(p)
			require.NoError(t, err)

			b, err := wire.Encode(g)
			require.NoError(t, err)
			gold.Assert(t, name, []byte(hex.EncodeToString(b)+"\n"))
		})
	}
}

func TestAppendGraphKeepsPrefix(t *testing.T) {
	g := dag.MustBuild(patch.Sine())
	plain, err := wire.Encode(g)
	require.NoError(t, err)

	out, err := wire.AppendGraph([]byte{0xAA, 0xBB}, g)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, out[:2])
	assert.Equal(t, plain, out[2:])
}

func TestEncodeEmptyGraph(t *testing.T) {
	b, err := wire.Encode(&ir.Graph{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, b)
}

func TestEncodeSpecialFloats(t *testing.T) {
	g := &ir.Graph{Constants: []float32{float32(math.Inf(1)), -2}}
	b, err := wire.Encode(g)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x7f}, b[2:6])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0xc0}, b[6:10])
}

func TestEncodeRejectsUnwritableGraphs(t *testing.T) {
	tests := []struct {
		name string
		g    *ir.Graph
	}{
		{"too many constants", &ir.Graph{Constants: make([]float32, ir.MaxConstants+1)}},
		{"too many controls", &ir.Graph{Controls: make([]float32, ir.MaxControls+1)}},
		{"too many operations", &ir.Graph{Ops: make([]ir.Op, ir.MaxOperations+1)}},
		{"empty kind", &ir.Graph{Ops: []ir.Op{{Rate: ir.Audio}}}},
		{"long kind", &ir.Graph{Ops: []ir.Op{{Kind: ir.Kind(strings.Repeat("x", 256)), Rate: ir.Audio}}}},
		{"non-ascii kind", &ir.Graph{Ops: []ir.Op{{Kind: "Sinusö", Rate: ir.Audio}}}},
		{"too many inputs", &ir.Graph{Ops: []ir.Op{{Kind: ir.KindAdd, Rate: ir.Audio, Inputs: make([]ir.Ref, ir.MaxInputs+1)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wire.Encode(tt.g)
			assert.Error(t, err)
		})
	}
}

func TestEncodeLongestKind(t *testing.T) {
	kind := ir.Kind(strings.Repeat("k", 255))
	b, err := wire.Encode(&ir.Graph{Ops: []ir.Op{{Kind: kind, Rate: ir.Block}}})
	require.NoError(t, err)
	assert.Equal(t, byte(255), b[6])
	assert.Equal(t, string(kind), string(b[7:7+255]))
	assert.Equal(t, byte('b'), b[7+255])
}
