// Package patch provides the built-in patches and loads patches from
// YAML and CUE files.
//
// A patch file declares parameters with defaults, an ordered list of
// bindings, and an output expression:
//
//	name: tremolo
//	params:
//	  - name: freq
//	    default: 440
//	  - name: rates
//	    default: [2, 3]
//	let:
//	  - name: lfo
//	    expr: {sinosc: [rates, 0]}
//	out:
//	  mul: [{sinosc: [freq, 0]}, lfo]
//
// Expressions are numbers (constants), strings (a parameter or an earlier
// binding), lists (broadcast sequences), or single-key maps naming an
// operation: add, sub, mul, div, sinosc. The map form {at: [expr, i]}
// selects instance i of a broadcast result.
package patch
