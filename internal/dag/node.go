package dag

import "github.com/roach88/minicollider/internal/ir"

// Node is an addressable graph entity: a constant, a parameter, or an
// operation. Nodes are only created by a Builder during a trace.
type Node interface {
	Value
	Ref() ir.Ref
	Rate() ir.Rate
	owner() *session
}

// Const is a slot in the constants table.
type Const struct {
	s     *session
	index int
	value float32
}

func (Const) isArg()   {}
func (Const) isValue() {}

func (c Const) Ref() ir.Ref     { return ir.ConstRef(c.index) }
func (Const) Rate() ir.Rate     { return ir.Const }
func (c Const) Value() float32  { return c.value }
func (c Const) owner() *session { return c.s }

// Op is an entry of the operations table.
type Op struct {
	s     *session
	index int
	kind  ir.Kind
	rate  ir.Rate
}

func (Op) isArg()   {}
func (Op) isValue() {}

func (o Op) Ref() ir.Ref     { return ir.OpRef(o.index) }
func (o Op) Rate() ir.Rate   { return o.rate }
func (o Op) Kind() ir.Kind   { return o.kind }
func (o Op) owner() *session { return o.s }

// Param is a named block-rate operation with no inputs whose value lives in
// a span of the controls table.
type Param struct {
	Op
	name   string
	offset int
	span   int
}

// Name returns the declared parameter name.
func (p Param) Name() string { return p.name }

// Offset returns the index of the parameter's first control slot.
func (p Param) Offset() int { return p.offset }

// Span returns the number of control slots the parameter owns.
func (p Param) Span() int { return p.span }

// badNode stands in for a node that could not be produced. Using it as an
// input fails the trace with its error.
type badNode struct {
	err error
}

func (badNode) isArg()          {}
func (badNode) isValue()        {}
func (badNode) Ref() ir.Ref     { return ir.Ref{} }
func (badNode) Rate() ir.Rate   { return 0 }
func (badNode) owner() *session { return nil }
