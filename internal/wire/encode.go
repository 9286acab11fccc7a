package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/roach88/minicollider/internal/ir"
)

// Encode serializes g in the engine's graph format.
func Encode(g *ir.Graph) ([]byte, error) {
	return AppendGraph(make([]byte, 0, Size(g)), g)
}

// AppendGraph appends the encoding of g to dst.
//
// Graphs produced by a trace always encode. Hand-built graphs fail when a
// table or input list does not fit its u16 count or a kind name cannot be
// written as a pascal string.
func AppendGraph(dst []byte, g *ir.Graph) ([]byte, error) {
	if len(g.Constants) > ir.MaxConstants {
		return dst, fmt.Errorf("encode: %d constants exceed limit %d", len(g.Constants), ir.MaxConstants)
	}
	if len(g.Controls) > ir.MaxControls {
		return dst, fmt.Errorf("encode: %d controls exceed limit %d", len(g.Controls), ir.MaxControls)
	}
	if len(g.Ops) > ir.MaxOperations {
		return dst, fmt.Errorf("encode: %d operations exceed limit %d", len(g.Ops), ir.MaxOperations)
	}

	dst = appendFloats(dst, g.Constants)
	dst = appendFloats(dst, g.Controls)

	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(g.Ops)))
	for i, op := range g.Ops {
		if err := ir.CheckKind(op.Kind); err != nil {
			return dst, fmt.Errorf("encode: operation %d: %w", i, err)
		}
		if len(op.Inputs) > ir.MaxInputs {
			return dst, fmt.Errorf("encode: operation %d: %d inputs exceed limit %d", i, len(op.Inputs), ir.MaxInputs)
		}
		dst = append(dst, byte(len(op.Kind)))
		dst = append(dst, op.Kind...)
		dst = append(dst, op.Rate.Byte())
		dst = binary.LittleEndian.AppendUint16(dst, uint16(len(op.Inputs)))
		for _, in := range op.Inputs {
			dst = binary.LittleEndian.AppendUint16(dst, in.Address())
		}
	}
	return dst, nil
}

// Size returns the number of bytes Encode produces for g.
func Size(g *ir.Graph) int {
	n := 2 + 4*len(g.Constants) + 2 + 4*len(g.Controls) + 2
	for _, op := range g.Ops {
		n += 1 + len(op.Kind) + 1 + 2 + 2*len(op.Inputs)
	}
	return n
}

func appendFloats(dst []byte, fs []float32) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(fs)))
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
