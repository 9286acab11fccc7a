package ir

import (
	"encoding/json"
	"fmt"
)

// Address space limits. Operation and constant indices each get 15 bits;
// the top bit of a wire address tags constants.
const (
	MaxOperations = 0x8000
	MaxConstants  = 0x8000
	ConstantBit   = 0x8000

	// MaxControls and MaxInputs are bounded by their u16 wire counts.
	MaxControls = 0xFFFF
	MaxInputs   = 0xFFFF
)

// RefKind discriminates what a Ref points at.
type RefKind uint8

const (
	RefOperation RefKind = iota
	RefConstant
)

// Ref is a reference to a node: an index into either the operations table
// or the constants table.
type Ref struct {
	Kind  RefKind
	Index int
}

// OpRef returns a reference to operation i.
func OpRef(i int) Ref { return Ref{Kind: RefOperation, Index: i} }

// ConstRef returns a reference to constant i.
func ConstRef(i int) Ref { return Ref{Kind: RefConstant, Index: i} }

// IsConstant reports whether r refers to the constants table.
func (r Ref) IsConstant() bool { return r.Kind == RefConstant }

// Address returns the 16-bit wire address of r. The index is masked to 15
// bits; callers are expected to hold refs produced within table limits.
func (r Ref) Address() uint16 {
	a := uint16(r.Index) & (ConstantBit - 1)
	if r.Kind == RefConstant {
		a |= ConstantBit
	}
	return a
}

// RefFromAddress decodes a wire address.
func RefFromAddress(a uint16) Ref {
	if a&ConstantBit != 0 {
		return ConstRef(int(a &^ ConstantBit))
	}
	return OpRef(int(a))
}

func (r Ref) String() string {
	if r.Kind == RefConstant {
		return fmt.Sprintf("const:%d", r.Index)
	}
	return fmt.Sprintf("op:%d", r.Index)
}

type refJSON struct {
	Operation *int `json:"operation,omitempty"`
	Constant  *int `json:"constant,omitempty"`
}

// MarshalJSON encodes r as {"operation": i} or {"constant": i}.
func (r Ref) MarshalJSON() ([]byte, error) {
	i := r.Index
	if r.Kind == RefConstant {
		return json.Marshal(refJSON{Constant: &i})
	}
	return json.Marshal(refJSON{Operation: &i})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var v refJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch {
	case v.Operation != nil && v.Constant == nil:
		*r = OpRef(*v.Operation)
	case v.Constant != nil && v.Operation == nil:
		*r = ConstRef(*v.Constant)
	default:
		return fmt.Errorf("ref must have exactly one of operation or constant: %s", data)
	}
	return nil
}
