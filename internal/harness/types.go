package harness

import (
	"github.com/roach88/minicollider/internal/ir"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every check and assertion held.
	Pass bool `json:"pass"`

	// Errors holds one message per failed check or assertion.
	Errors []string `json:"errors,omitempty"`

	// Patch is the traced patch's name.
	Patch string `json:"patch,omitempty"`

	// ID, Graph and Wire are set when the patch traced and encoded.
	ID    string    `json:"id,omitempty"`
	Graph *ir.Graph `json:"graph,omitempty"`
	Wire  []byte    `json:"-"`

	// Err is the load, trace or encode failure, if any.
	Err error `json:"-"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
