package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/patch"
	"github.com/roach88/minicollider/internal/wire"
)

// AssertionError is returned when an assertion fails.
// It includes the traced graph to help debug the failure.
type AssertionError struct {
	Type     string    // Assertion type for categorization
	Expected string    // Human-readable expected outcome
	Actual   string    // Human-readable actual outcome
	Graph    *ir.Graph // Traced graph, nil when the patch failed
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Graph != nil {
		fmt.Fprintf(&buf, "\nGraph:\n")
		wire.Dump(&buf, e.Graph)
	}
	return buf.String()
}

// EvaluateAssertions checks each assertion against result and returns one
// message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	if a.Type == AssertError {
		return assertError(result, a)
	}
	if result.Graph == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a traced graph",
			Actual:   fmt.Sprintf("patch failed: %v", result.Err),
		}
	}

	g := result.Graph
	switch a.Type {
	case AssertConstants:
		return assertTable(g, a.Type, "constants", a.Values, g.Constants)
	case AssertControls:
		return assertControls(g, a)
	case AssertOpCount:
		return assertOpCount(g, a)
	case AssertOp:
		return assertOp(g, a)
	case AssertBytes:
		if len(result.Wire) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d bytes", a.Count),
				Actual:   fmt.Sprintf("%d bytes", len(result.Wire)),
				Graph:    g,
			}
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type: %s", a.Type)
}

func assertTable(g *ir.Graph, typ, table string, want, got []float32) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%s %s", table, formatFloats(want)),
		Actual:   fmt.Sprintf("%s %s", table, formatFloats(got)),
		Graph:    g,
	}
}

// assertControls compares the whole controls table, or one parameter's
// span of it when a names a parameter.
func assertControls(g *ir.Graph, a Assertion) error {
	if a.Name == "" {
		return assertTable(g, a.Type, "controls", a.Values, g.Controls)
	}
	for i, c := range g.ControlNames {
		if c.Name != a.Name {
			continue
		}
		offset, n := g.ControlSpan(i)
		return assertTable(g, a.Type, "controls of "+a.Name, a.Values, g.Controls[offset:offset+n])
	}

	names := make([]string, len(g.ControlNames))
	for i, c := range g.ControlNames {
		names[i] = c.Name
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("parameter %s", a.Name),
		Actual:   fmt.Sprintf("parameters [%s]", strings.Join(names, " ")),
		Graph:    g,
	}
}

func assertOpCount(g *ir.Graph, a Assertion) error {
	count := 0
	for _, op := range g.Ops {
		if a.Kind == "" || string(op.Kind) == a.Kind {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	what := "operation(s)"
	if a.Kind != "" {
		what = a.Kind + " " + what
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
		Graph:    g,
	}
}

// assertOp checks the fields a sets on the operation at a.Index.
func assertOp(g *ir.Graph, a Assertion) error {
	if a.Index >= len(g.Ops) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("operation %d", a.Index),
			Actual:   fmt.Sprintf("%d operation(s)", len(g.Ops)),
			Graph:    g,
		}
	}
	op := g.Ops[a.Index]

	match := a.Kind == "" || string(op.Kind) == a.Kind
	if a.Rate != "" {
		var r ir.Rate
		match = match && r.UnmarshalText([]byte(a.Rate)) == nil && r == op.Rate
	}
	if a.Inputs != nil {
		match = match && slices.Equal(a.Inputs, refStrings(op.Inputs))
	}
	if match {
		return nil
	}

	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("operation %d: %s", a.Index, describeExpected(a)),
		Actual:   fmt.Sprintf("operation %d: %s %s [%s]", a.Index, op.Kind, op.Rate, strings.Join(refStrings(op.Inputs), " ")),
		Graph:    g,
	}
}

func describeExpected(a Assertion) string {
	var parts []string
	if a.Kind != "" {
		parts = append(parts, a.Kind)
	}
	if a.Rate != "" {
		var r ir.Rate
		if r.UnmarshalText([]byte(a.Rate)) == nil {
			parts = append(parts, r.String())
		}
	}
	if a.Inputs != nil {
		parts = append(parts, "["+strings.Join(a.Inputs, " ")+"]")
	}
	return strings.Join(parts, " ")
}

// assertError checks that the patch failed the way a describes.
func assertError(result *Result, a Assertion) error {
	expected := describeError(a)
	if result.Err == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: expected,
			Actual:   "patch traced without error",
			Graph:    result.Graph,
		}
	}

	err := result.Err
	match := true
	if a.Code != "" {
		var loadErr *patch.LoadError
		match = errors.As(err, &loadErr) && loadErr.Code == a.Code
	}
	if a.Is != "" {
		match = match && errors.Is(err, traceErrors[a.Is])
	}
	if a.Contains != "" {
		match = match && strings.Contains(err.Error(), a.Contains)
	}
	if match {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: expected,
		Actual:   err.Error(),
	}
}

func describeError(a Assertion) string {
	var parts []string
	if a.Code != "" {
		parts = append(parts, "code "+a.Code)
	}
	if a.Is != "" {
		parts = append(parts, a.Is)
	}
	if a.Contains != "" {
		parts = append(parts, fmt.Sprintf("message containing %q", a.Contains))
	}
	return "error with " + strings.Join(parts, " and ")
}

func refStrings(refs []ir.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}

func formatFloats(fs []float32) string {
	vals := make([]string, len(fs))
	for i, f := range fs {
		vals[i] = wire.FormatFloat(f)
	}
	return "[" + strings.Join(vals, " ") + "]"
}
