package dag

import (
	"fmt"
	"slices"
)

// Default is a parameter's default value: a scalar or a vector. The zero
// Default means "no default" and is rejected by Trace.
type Default struct {
	values []float32
	set    bool
}

// Scalar is a one-slot default.
func Scalar(v float32) Default {
	return Default{values: []float32{v}, set: true}
}

// Vector is a multi-slot default. The parameter stays a single node whose
// control span holds every value; it is not broadcast.
func Vector(vs ...float32) Default {
	return Default{values: slices.Clone(vs), set: true}
}

// IsSet reports whether a default was given.
func (d Default) IsSet() bool { return d.set }

// Values returns a copy of the default's slots.
func (d Default) Values() []float32 { return slices.Clone(d.values) }

// ParamDef declares one parameter of a patch.
type ParamDef struct {
	Name    string
	Default Default

	// KeywordOnly parameters are reachable by name only, not by position.
	KeywordOnly bool
}

// validateParams checks every declaration before any table is touched.
func validateParams(defs []ParamDef) error {
	seen := make(map[string]bool, len(defs))
	for i, def := range defs {
		if def.Name == "" {
			return &ParamError{Index: i, Name: def.Name, Err: fmt.Errorf("%w: empty name", ErrInvalidParam)}
		}
		if seen[def.Name] {
			return &ParamError{Index: i, Name: def.Name, Err: fmt.Errorf("%w: duplicate name", ErrInvalidParam)}
		}
		seen[def.Name] = true
		if !def.Default.set {
			return &ParamError{Index: i, Name: def.Name, Err: ErrMissingDefault}
		}
		if len(def.Default.values) == 0 {
			return &ParamError{Index: i, Name: def.Name, Err: ErrEmptySequence}
		}
	}
	return nil
}

// Params is what a patch body receives in place of its defaults: the
// Param nodes declared for this trace.
type Params struct {
	b          *Builder
	positional []Param
	all        []Param
}

// Len returns the number of positional parameters.
func (p Params) Len() int { return len(p.positional) }

// At returns the i-th positional parameter. An out-of-range index fails
// the trace.
func (p Params) At(i int) Param {
	if i < 0 || i >= len(p.positional) {
		p.b.Fail(fmt.Errorf("%w: position %d of %d", ErrUnknownParam, i, len(p.positional)))
		return Param{}
	}
	return p.positional[i]
}

// Get returns a parameter by name, positional or keyword-only. An unknown
// name fails the trace.
func (p Params) Get(name string) Param {
	if param, ok := p.Lookup(name); ok {
		return param
	}
	p.b.Fail(fmt.Errorf("%w: %q", ErrUnknownParam, name))
	return Param{}
}

// Lookup returns a parameter by name.
func (p Params) Lookup(name string) (Param, bool) {
	for _, param := range p.all {
		if param.name == name {
			return param, true
		}
	}
	return Param{}, false
}

// All returns every parameter in declaration order.
func (p Params) All() []Param { return slices.Clone(p.all) }
