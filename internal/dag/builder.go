package dag

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/roach88/minicollider/internal/ir"
)

// Builder is the context a trace records into. A Builder can run any
// number of traces one after another; each starts from empty tables.
// Independent builders share no state.
//
// Constructor methods may only be called from the body of an in-flight
// Trace on the same builder.
type Builder struct {
	inFlight atomic.Bool
	s        *session
}

// NewBuilder returns an idle builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// session holds the tables of one trace. Nodes keep a pointer to the
// session that created them so that a node cannot leak into a later trace.
type session struct {
	constants  []float32
	constIndex map[float32]int
	controls   []float32
	names      []ir.ControlName
	ops        []ir.Op
	err        error
}

func newSession() *session {
	return &session{constIndex: make(map[float32]int)}
}

// active returns the in-flight session.
// Panics when called outside Trace: that is a programming error.
func (b *Builder) active() *session {
	if b.s == nil {
		panic("dag: constructor called outside of a trace")
	}
	return b.s
}

// Err returns the first error recorded by the in-flight trace, or nil
// outside a trace.
func (b *Builder) Err() error {
	if b.s == nil {
		return nil
	}
	return b.s.err
}

// Fail records err as the trace's failure unless one is already recorded.
// Bodies use it to abort a trace from deep inside helper code.
func (b *Builder) Fail(err error) {
	b.active().fail(err)
}

func (s *session) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

// constant returns the slot holding v, appending one if v is new.
func (s *session) constant(v float32) (Const, error) {
	if i, ok := s.constIndex[v]; ok {
		return Const{s: s, index: i, value: s.constants[i]}, nil
	}
	if len(s.constants) >= ir.MaxConstants {
		return Const{}, &CapacityError{Table: "constants", Limit: ir.MaxConstants}
	}
	i := len(s.constants)
	s.constants = append(s.constants, v)
	s.constIndex[v] = i
	return Const{s: s, index: i, value: v}, nil
}

// appendOp adds op to the operations table.
func (s *session) appendOp(op ir.Op) (Op, error) {
	if len(s.ops) >= ir.MaxOperations {
		return Op{}, &CapacityError{Table: "operations", Limit: ir.MaxOperations}
	}
	if len(op.Inputs) > ir.MaxInputs {
		return Op{}, &CapacityError{Table: "inputs", Limit: ir.MaxInputs}
	}
	i := len(s.ops)
	s.ops = append(s.ops, op)
	return Op{s: s, index: i, kind: op.Kind, rate: op.Rate}, nil
}

// declare registers a parameter: one operation, one control span, one
// directory entry.
func (s *session) declare(def ParamDef) (Param, error) {
	values := def.Default.values
	if len(s.controls)+len(values) > ir.MaxControls {
		return Param{}, &CapacityError{Table: "controls", Limit: ir.MaxControls}
	}
	op, err := s.appendOp(ir.Op{Kind: ir.KindParam, Rate: ir.Block, Inputs: []ir.Ref{}, Name: def.Name})
	if err != nil {
		return Param{}, err
	}
	offset := len(s.controls)
	s.controls = append(s.controls, values...)
	s.names = append(s.names, ir.ControlName{Name: def.Name, Offset: offset})
	return Param{Op: op, name: def.Name, offset: offset, span: len(values)}, nil
}

// resolve turns a scalar argument into an input reference, promoting raw
// numbers to constants.
func (s *session) resolve(v Value) (ir.Ref, error) {
	switch v := v.(type) {
	case nil:
		return ir.Ref{}, ErrNilArg
	case Num:
		c, err := s.constant(float32(v))
		if err != nil {
			return ir.Ref{}, err
		}
		return c.Ref(), nil
	case badNode:
		return ir.Ref{}, v.err
	case Node:
		if v.owner() != s {
			return ir.Ref{}, ErrStaleNode
		}
		return v.Ref(), nil
	}
	return ir.Ref{}, fmt.Errorf("unsupported argument type %T", v)
}

// freeze copies the tables into a new Graph.
func (s *session) freeze() *ir.Graph {
	return &ir.Graph{
		Constants:    slices.Clone(s.constants),
		Controls:     slices.Clone(s.controls),
		ControlNames: slices.Clone(s.names),
		Ops:          slices.Clone(s.ops),
	}
}

// Constant returns the constant node for v, creating it if needed.
func (b *Builder) Constant(v float32) Const {
	s := b.active()
	if s.err != nil {
		return Const{}
	}
	c, err := s.constant(v)
	if err != nil {
		s.fail(err)
		return Const{}
	}
	return c
}
