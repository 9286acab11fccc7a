package ir

import "fmt"

// Validation error codes (E200-E299).
const (
	ErrTooManyConstants  = "E201" // constants table exceeds MaxConstants
	ErrTooManyOperations = "E202" // operations table exceeds MaxOperations
	ErrTooManyControls   = "E203" // controls table exceeds MaxControls
	ErrInvalidRate       = "E204" // unknown rate tag
	ErrForwardReference  = "E205" // input refers to the same or a later operation
	ErrConstantRange     = "E206" // input refers past the constants table
	ErrInvalidKind       = "E207" // kind name empty, too long, or not ASCII
	ErrControlDirectory  = "E208" // directory offsets out of range or unordered
	ErrTooManyInputs     = "E209" // input count exceeds MaxInputs
)

// ValidationError describes one way a graph violates the builder's
// guarantees.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks table bounds, rates, kind names, the control directory
// and topological ordering. It returns every violation found. Graphs
// produced by a trace always validate cleanly; decoded or hand-built graphs
// might not.
func (g *Graph) Validate() []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(g.Constants) > MaxConstants {
		add(ErrTooManyConstants, "constants", "%d entries exceed limit %d", len(g.Constants), MaxConstants)
	}
	if len(g.Ops) > MaxOperations {
		add(ErrTooManyOperations, "operations", "%d entries exceed limit %d", len(g.Ops), MaxOperations)
	}
	if len(g.Controls) > MaxControls {
		add(ErrTooManyControls, "controls", "%d entries exceed limit %d", len(g.Controls), MaxControls)
	}

	prev := -1
	for i, c := range g.ControlNames {
		field := fmt.Sprintf("control_names[%d]", i)
		if c.Offset < 0 || c.Offset > len(g.Controls) {
			add(ErrControlDirectory, field, "offset %d outside controls table of %d", c.Offset, len(g.Controls))
		}
		if c.Offset <= prev {
			add(ErrControlDirectory, field, "offset %d does not follow previous offset %d", c.Offset, prev)
		}
		prev = c.Offset
	}

	for i, op := range g.Ops {
		field := fmt.Sprintf("operations[%d]", i)
		if err := CheckKind(op.Kind); err != nil {
			add(ErrInvalidKind, field+".kind", "%v", err)
		}
		if !op.Rate.Valid() {
			add(ErrInvalidRate, field+".rate", "invalid rate %d", byte(op.Rate))
		}
		if len(op.Inputs) > MaxInputs {
			add(ErrTooManyInputs, field+".inputs", "%d inputs exceed limit %d", len(op.Inputs), MaxInputs)
		}
		for j, in := range op.Inputs {
			inField := fmt.Sprintf("%s.inputs[%d]", field, j)
			if in.IsConstant() {
				if in.Index < 0 || in.Index >= len(g.Constants) {
					add(ErrConstantRange, inField, "constant %d outside table of %d", in.Index, len(g.Constants))
				}
				continue
			}
			if in.Index < 0 || in.Index >= i {
				add(ErrForwardReference, inField, "operation %d is not created before operation %d", in.Index, i)
			}
		}
	}

	return errs
}

// CheckKind reports whether k can be written as a wire pascal string.
func CheckKind(k Kind) error {
	if k == "" {
		return fmt.Errorf("kind name is empty")
	}
	if len(k) > 255 {
		return fmt.Errorf("kind name %.16q... is %d bytes, limit 255", string(k), len(k))
	}
	for i := 0; i < len(k); i++ {
		if k[i] < 0x20 || k[i] > 0x7e {
			return fmt.Errorf("kind name %q contains non-printable-ASCII byte 0x%02x", string(k), k[i])
		}
	}
	return nil
}
