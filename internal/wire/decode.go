package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/minicollider/internal/ir"
)

var (
	// ErrTruncated is returned when the input ends inside a field.
	ErrTruncated = errors.New("wire: truncated graph")

	// ErrTrailingBytes is returned when bytes remain after the last
	// operation. The engine ignores such packets.
	ErrTrailingBytes = errors.New("wire: trailing bytes after graph")
)

// Decode parses a graph in the format Encode writes. The result has no
// control directory, since parameter names are not on the wire. Decode
// does not check topological order; use ir.Graph.Validate for that.
func Decode(data []byte) (*ir.Graph, error) {
	r := reader{buf: data}
	g := &ir.Graph{
		Constants: r.floats("constants"),
		Controls:  r.floats("controls"),
	}

	count := r.u16("operation count")
	if r.err == nil {
		g.Ops = make([]ir.Op, 0, count)
	}
	for i := 0; i < int(count) && r.err == nil; i++ {
		var op ir.Op
		n := r.u8("kind length")
		op.Kind = ir.Kind(r.bytes(int(n), "kind name"))
		rate := r.u8("rate")
		inputs := r.u16("input count")
		op.Inputs = make([]ir.Ref, 0, inputs)
		for j := 0; j < int(inputs) && r.err == nil; j++ {
			op.Inputs = append(op.Inputs, ir.RefFromAddress(r.u16("input address")))
		}
		if r.err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, r.err)
		}
		parsed, err := ir.ParseRate(rate)
		if err != nil {
			return nil, fmt.Errorf("wire: operation %d: %w", i, err)
		}
		op.Rate = parsed
		g.Ops = append(g.Ops, op)
	}
	if r.err != nil {
		return nil, r.err
	}
	if len(r.buf) > 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(r.buf))
	}
	return g, nil
}

// reader consumes little-endian fields and keeps the first failure.
type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = fmt.Errorf("%w: %s needs %d bytes, %d left", ErrTruncated, what, n, len(r.buf))
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u8(what string) byte {
	b := r.take(1, what)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16(what string) uint16 {
	b := r.take(2, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) bytes(n int, what string) string {
	return string(r.take(n, what))
}

func (r *reader) floats(what string) []float32 {
	n := int(r.u16(what + " count"))
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]float32, 0, n)
	for i := 0; i < n; i++ {
		b := r.take(4, what)
		if b == nil {
			return nil
		}
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return out
}
