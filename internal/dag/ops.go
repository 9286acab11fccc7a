package dag

import (
	"fmt"
	"strings"

	"github.com/roach88/minicollider/internal/ir"
)

// Op builds one operation of the given kind and rate per broadcast
// instance of args and returns them in instance order. Every other
// operation constructor goes through Op.
func (b *Builder) Op(kind ir.Kind, rate ir.Rate, args ...Arg) Nodes {
	s := b.active()
	if s.err != nil {
		return nil
	}
	if err := ir.CheckKind(kind); err != nil {
		s.fail(err)
		return nil
	}
	if !rate.Valid() {
		s.fail(fmt.Errorf("%s: invalid rate %d", kind, byte(rate)))
		return nil
	}

	rows, err := expand(string(kind), args)
	if err != nil {
		s.fail(err)
		return nil
	}

	out := make(Nodes, 0, len(rows))
	for _, row := range rows {
		inputs := make([]ir.Ref, len(row))
		for i, v := range row {
			ref, err := s.resolve(v)
			if err != nil {
				s.fail(&ArgError{Kind: string(kind), Index: i, Err: err})
				return nil
			}
			inputs[i] = ref
		}
		op, err := s.appendOp(ir.Op{Kind: kind, Rate: rate, Inputs: inputs})
		if err != nil {
			s.fail(err)
			return nil
		}
		out = append(out, op)
	}
	return out
}

// Add builds x + y at audio rate.
func (b *Builder) Add(x, y Arg) Nodes { return b.Op(ir.KindAdd, ir.Audio, x, y) }

// Sub builds x - y at audio rate.
func (b *Builder) Sub(x, y Arg) Nodes { return b.Op(ir.KindSub, ir.Audio, x, y) }

// Mul builds x * y at audio rate.
func (b *Builder) Mul(x, y Arg) Nodes { return b.Op(ir.KindMul, ir.Audio, x, y) }

// Div builds x / y at audio rate.
func (b *Builder) Div(x, y Arg) Nodes { return b.Op(ir.KindDiv, ir.Audio, x, y) }

// SinOsc builds an audio-rate sine oscillator.
func (b *Builder) SinOsc(freq, phase Arg) Nodes {
	return b.Op(ir.KindSinOsc, ir.Audio, freq, phase)
}

// OpSpec describes an operation constructor that can be looked up by name,
// for callers that build patches from data rather than Go code.
type OpSpec struct {
	Kind  ir.Kind
	Rate  ir.Rate
	Arity int
}

var opSpecs = []OpSpec{
	{Kind: ir.KindAdd, Rate: ir.Audio, Arity: 2},
	{Kind: ir.KindSub, Rate: ir.Audio, Arity: 2},
	{Kind: ir.KindMul, Rate: ir.Audio, Arity: 2},
	{Kind: ir.KindDiv, Rate: ir.Audio, Arity: 2},
	{Kind: ir.KindSinOsc, Rate: ir.Audio, Arity: 2},
}

// LookupOp finds a constructor by kind name, ignoring case.
// Parameters are not constructors and are not found.
func LookupOp(name string) (OpSpec, bool) {
	for _, spec := range opSpecs {
		if strings.EqualFold(string(spec.Kind), name) {
			return spec, true
		}
	}
	return OpSpec{}, false
}

// OpSpecs returns every named constructor.
func OpSpecs() []OpSpec {
	out := make([]OpSpec, len(opSpecs))
	copy(out, opSpecs)
	return out
}

// Apply calls the constructor spec describes after checking the argument
// count.
func (b *Builder) Apply(spec OpSpec, args ...Arg) Nodes {
	if len(args) != spec.Arity {
		b.Fail(fmt.Errorf("%s takes %d arguments, got %d", spec.Kind, spec.Arity, len(args)))
		return nil
	}
	return b.Op(spec.Kind, spec.Rate, args...)
}
