// Package dag traces a patch description into an ir.Graph.
//
// A patch is a declared parameter list plus a body function. Tracing runs
// the body exactly once against a Builder; every constructor call the body
// makes (Add, Mul, SinOsc, ...) appends operations and constants to the
// builder's tables, and the tables are frozen into a Graph when the body
// returns.
//
//	g, err := dag.Build(dag.Patch{
//		Name:   "sine",
//		Params: []dag.ParamDef{{Name: "freq", Default: dag.Scalar(440)}},
//		Body: func(b *dag.Builder, p dag.Params) error {
//			b.Mul(b.SinOsc(p.Get("freq"), dag.Num(0)), dag.Num(0.1))
//			return nil
//		},
//	})
//
// # Broadcasting
//
// Constructor arguments are either scalars (Num, or any Node) or sequences
// (Seq, or the Nodes returned by another constructor). When any argument is
// a sequence, the constructor builds max(len) instances; instance i takes
// element i mod len of every sequence and every scalar unchanged. A
// sequence of length one behaves like a scalar, and an empty sequence is an
// error.
//
// # Errors
//
// Constructors do not return errors. The first failure of a trace is kept
// by the builder, every later constructor call is a no-op, and Trace
// returns that failure without a graph.
//
// # Deduplication
//
// Constants are deduplicated by exact float32 equality within one trace.
// Operations are never merged: two identical calls create two operations.
package dag
