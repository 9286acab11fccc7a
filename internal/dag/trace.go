package dag

import (
	"errors"
	"fmt"

	"github.com/roach88/minicollider/internal/ir"
)

// Body is a patch's signal description. It runs once per trace and
// returns an error only to abort the trace.
type Body func(b *Builder, p Params) error

// Patch is a self-describing signal description: declared parameters with
// defaults, and the body that uses them.
type Patch struct {
	Name   string
	Params []ParamDef
	Body   Body
}

// Trace runs p's body once and returns the frozen graph.
//
// Parameter declarations are validated first; a declaration without a
// default fails before the tables are touched. The tables are reset
// immediately before the body runs and discarded immediately after, so a
// failed trace leaves nothing behind for the next one.
func (b *Builder) Trace(p Patch) (*ir.Graph, error) {
	if !b.inFlight.CompareAndSwap(false, true) {
		return nil, ErrTraceInFlight
	}
	defer b.inFlight.Store(false)

	g, err := b.trace(p)
	if err != nil {
		if p.Name != "" {
			return nil, fmt.Errorf("trace %s: %w", p.Name, err)
		}
		return nil, err
	}
	return g, nil
}

func (b *Builder) trace(p Patch) (*ir.Graph, error) {
	if p.Body == nil {
		return nil, errors.New("patch has no body")
	}
	if err := validateParams(p.Params); err != nil {
		return nil, err
	}

	b.s = newSession()
	defer func() { b.s = nil }()

	params := Params{b: b, all: make([]Param, 0, len(p.Params))}
	for i, def := range p.Params {
		param, err := b.s.declare(def)
		if err != nil {
			return nil, &ParamError{Index: i, Name: def.Name, Err: err}
		}
		params.all = append(params.all, param)
		if !def.KeywordOnly {
			params.positional = append(params.positional, param)
		}
	}

	if err := p.Body(b, params); err != nil {
		return nil, err
	}
	if err := b.s.err; err != nil {
		return nil, err
	}
	return b.s.freeze(), nil
}

// Build traces p on a fresh builder.
func Build(p Patch) (*ir.Graph, error) {
	return NewBuilder().Trace(p)
}

// MustBuild is like Build but panics on error.
// Use only in tests or for patches known to be valid.
func MustBuild(p Patch) *ir.Graph {
	g, err := Build(p)
	if err != nil {
		panic(err)
	}
	return g
}
