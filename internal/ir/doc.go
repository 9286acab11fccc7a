// Package ir defines the frozen graph produced by one trace of a patch.
//
// A Graph holds four append-only tables: constants, controls, the control
// name directory, and operations. Nodes are addressed by table index; the
// wire form of an address is 15 bits of index plus a tag bit that marks
// constants.
//
// This package contains types and pure functions only. All other internal
// packages import ir; ir imports nothing internal.
package ir
