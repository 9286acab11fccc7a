package dag

import "fmt"

// Arg is one argument of an operation constructor: a scalar (Num or any
// Node) or a sequence (Seq or Nodes).
type Arg interface {
	isArg()
}

// Value is a scalar argument.
type Value interface {
	Arg
	isValue()
}

// Num is a raw number. It becomes a deduplicated constant when an
// operation uses it as an input.
type Num float32

func (Num) isArg()   {}
func (Num) isValue() {}

// Seq is an ordered sequence of scalars to broadcast over.
type Seq []Value

func (Seq) isArg() {}

// Nums builds a Seq of raw numbers.
func Nums(vs ...float32) Seq {
	s := make(Seq, len(vs))
	for i, v := range vs {
		s[i] = Num(v)
	}
	return s
}

// Nodes is what an operation constructor returns: one node per broadcast
// instance, in instance order. Passed back as an argument it is a sequence.
type Nodes []Node

func (Nodes) isArg() {}

// sequence is the view the broadcast expander takes of Seq and Nodes.
type sequence interface {
	Arg
	length() int
	item(i int) Value
}

func (s Seq) length() int        { return len(s) }
func (s Seq) item(i int) Value   { return s[i] }
func (n Nodes) length() int      { return len(n) }
func (n Nodes) item(i int) Value { return n[i] }

// At returns instance i. Patch bodies should prefer At over indexing: when
// an earlier constructor failed, n is empty, and At keeps the body running
// until Trace reports the original failure.
func (n Nodes) At(i int) Node {
	if i < 0 || i >= len(n) {
		return badNode{err: fmt.Errorf("%w: instance %d of %d", ErrNoInstance, i, len(n))}
	}
	return n[i]
}
