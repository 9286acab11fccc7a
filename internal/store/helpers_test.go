package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/wire"
)

// openTestStore opens a fresh database that is closed when the test ends.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testGraph is the sine patch's graph written out by hand.
func testGraph() *ir.Graph {
	return &ir.Graph{
		Constants:    []float32{0, 0.1},
		Controls:     []float32{440},
		ControlNames: []ir.ControlName{{Name: "freq", Offset: 0}},
		Ops: []ir.Op{
			{Kind: ir.KindParam, Rate: ir.Block, Inputs: []ir.Ref{}, Name: "freq"},
			{Kind: ir.KindSinOsc, Rate: ir.Audio, Inputs: []ir.Ref{ir.OpRef(0), ir.ConstRef(0)}},
			{Kind: ir.KindMul, Rate: ir.Audio, Inputs: []ir.Ref{ir.OpRef(1), ir.ConstRef(1)}},
		},
	}
}

func mustEncode(t *testing.T, g *ir.Graph) []byte {
	t.Helper()
	b, err := wire.Encode(g)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	return b
}
