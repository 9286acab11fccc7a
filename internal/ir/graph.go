package ir

// Kind names an operation type. The name is written to the wire as a
// pascal string, so it must be ASCII and at most 255 bytes.
type Kind string

// Operation kinds understood by the engine.
const (
	KindParam  Kind = "Param"
	KindAdd    Kind = "Add"
	KindSub    Kind = "Sub"
	KindMul    Kind = "Mul"
	KindDiv    Kind = "Div"
	KindSinOsc Kind = "SinOsc"
)

// Op is one entry of the operations table.
type Op struct {
	Kind   Kind  `json:"kind"`
	Rate   Rate  `json:"rate"`
	Inputs []Ref `json:"inputs"`

	// Name is set for parameters only. It is not part of the wire format.
	Name string `json:"name,omitempty"`
}

// ControlName is one entry of the control directory: a parameter name and
// the offset of its first slot in the controls table.
type ControlName struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
}

// Graph is the frozen result of one trace. A Graph is never modified after
// it is produced, so it may be shared across goroutines.
type Graph struct {
	Constants    []float32     `json:"constants"`
	Controls     []float32     `json:"controls"`
	ControlNames []ControlName `json:"control_names"`
	Ops          []Op          `json:"operations"`
}

// ControlSpan returns the controls-table slice [offset, offset+length) that
// belongs to the i-th directory entry. A span runs until the next entry's
// offset or the end of the table.
func (g *Graph) ControlSpan(i int) (offset, length int) {
	offset = g.ControlNames[i].Offset
	end := len(g.Controls)
	if i+1 < len(g.ControlNames) {
		end = g.ControlNames[i+1].Offset
	}
	return offset, end - offset
}

// LookupControl finds a directory entry by parameter name.
func (g *Graph) LookupControl(name string) (ControlName, bool) {
	for _, c := range g.ControlNames {
		if c.Name == name {
			return c, true
		}
	}
	return ControlName{}, false
}

// Constant returns the value a constant ref points at.
func (g *Graph) Constant(r Ref) (float32, bool) {
	if !r.IsConstant() || r.Index < 0 || r.Index >= len(g.Constants) {
		return 0, false
	}
	return g.Constants[r.Index], true
}
