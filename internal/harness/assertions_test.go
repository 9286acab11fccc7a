package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minicollider/internal/dag"
	"github.com/roach88/minicollider/internal/patch"
	"github.com/roach88/minicollider/internal/wire"
)

// tracedSine is the result of a passing sine run.
func tracedSine(t *testing.T) *Result {
	t.Helper()
	g := dag.MustBuild(patch.Sine())
	encoded, err := wire.Encode(g)
	require.NoError(t, err)

	result := NewResult()
	result.Patch = "sine"
	result.Graph = g
	result.Wire = encoded
	return result
}

func TestAssertConstants(t *testing.T) {
	result := tracedSine(t)

	assert.NoError(t, evaluate(result, Assertion{Type: AssertConstants, Values: []float32{0, 0.1}}))

	err := evaluate(result, Assertion{Type: AssertConstants, Values: []float32{0.1, 0}})
	require.Error(t, err)
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, AssertConstants, assertErr.Type)
	assert.Equal(t, "constants [0.1 0]", assertErr.Expected)
	assert.Equal(t, "constants [0 0.1]", assertErr.Actual)
}

func TestAssertControls(t *testing.T) {
	result := tracedSine(t)

	assert.NoError(t, evaluate(result, Assertion{Type: AssertControls, Values: []float32{440}}))
	assert.NoError(t, evaluate(result, Assertion{Type: AssertControls, Name: "freq", Values: []float32{440}}))
	assert.Error(t, evaluate(result, Assertion{Type: AssertControls, Name: "freq", Values: []float32{220}}))

	err := evaluate(result, Assertion{Type: AssertControls, Name: "amp", Values: []float32{0.1}})
	require.Error(t, err)
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "parameter amp", assertErr.Expected)
	assert.Equal(t, "parameters [freq]", assertErr.Actual)
}

func TestAssertControls_VectorSpan(t *testing.T) {
	g := dag.MustBuild(dag.Patch{
		Name: "chord",
		Params: []dag.ParamDef{
			{Name: "freqs", Default: dag.Vector(220, 275, 330)},
			{Name: "amp", Default: dag.Scalar(0.1)},
		},
		Body: func(b *dag.Builder, p dag.Params) error {
			b.Mul(b.SinOsc(p.Get("freqs"), dag.Num(0)), p.Get("amp"))
			return nil
		},
	})
	result := NewResult()
	result.Graph = g

	assert.NoError(t, evaluate(result, Assertion{Type: AssertControls, Name: "freqs", Values: []float32{220, 275, 330}}))
	assert.NoError(t, evaluate(result, Assertion{Type: AssertControls, Name: "amp", Values: []float32{0.1}}))
	assert.Error(t, evaluate(result, Assertion{Type: AssertControls, Name: "freqs", Values: []float32{220}}))
}

func TestAssertOpCount(t *testing.T) {
	result := tracedSine(t)

	assert.NoError(t, evaluate(result, Assertion{Type: AssertOpCount, Count: 3}))
	assert.NoError(t, evaluate(result, Assertion{Type: AssertOpCount, Kind: "SinOsc", Count: 1}))
	assert.NoError(t, evaluate(result, Assertion{Type: AssertOpCount, Kind: "Div", Count: 0}))

	err := evaluate(result, Assertion{Type: AssertOpCount, Kind: "Mul", Count: 2})
	require.Error(t, err)
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "2 Mul operation(s)", assertErr.Expected)
	assert.Equal(t, "1 Mul operation(s)", assertErr.Actual)
}

func TestAssertOp(t *testing.T) {
	result := tracedSine(t)

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "full match",
			assertion: Assertion{Type: AssertOp, Index: 1, Kind: "SinOsc", Rate: "audio", Inputs: []string{"op:0", "const:0"}},
		},
		{
			name:      "rate tag",
			assertion: Assertion{Type: AssertOp, Index: 0, Rate: "b"},
		},
		{
			name:      "no inputs",
			assertion: Assertion{Type: AssertOp, Index: 0, Kind: "Param", Inputs: []string{}},
		},
		{
			name:      "kind only",
			assertion: Assertion{Type: AssertOp, Index: 2, Kind: "Mul"},
		},
		{
			name:      "wrong kind",
			assertion: Assertion{Type: AssertOp, Index: 2, Kind: "Add"},
			wantErr:   "Actual: operation 2: Mul audio [op:1 const:1]",
		},
		{
			name:      "wrong rate",
			assertion: Assertion{Type: AssertOp, Index: 1, Rate: "block"},
			wantErr:   "Expected: operation 1: block",
		},
		{
			name:      "wrong inputs",
			assertion: Assertion{Type: AssertOp, Index: 1, Inputs: []string{"op:0", "const:1"}},
			wantErr:   "Expected: operation 1: [op:0 const:1]",
		},
		{
			name:      "out of range",
			assertion: Assertion{Type: AssertOp, Index: 3},
			wantErr:   "Actual: 3 operation(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluate(result, tt.assertion)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertBytes(t *testing.T) {
	result := tracedSine(t)

	assert.NoError(t, evaluate(result, Assertion{Type: AssertBytes, Count: 52}))
	err := evaluate(result, Assertion{Type: AssertBytes, Count: 54})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 54 bytes")
}

func TestAssertError(t *testing.T) {
	loadErr := &patch.LoadError{Code: patch.ErrCodeReference, Path: "typo.yaml", Field: "out", Message: `unknown name "frq"`}
	traceErr := fmt.Errorf("trace wide: %w", &dag.CapacityError{Table: "constants", Limit: 0x8000})

	tests := []struct {
		name      string
		err       error
		assertion Assertion
		wantPass  bool
	}{
		{"code match", loadErr, Assertion{Type: AssertError, Code: patch.ErrCodeReference}, true},
		{"code mismatch", loadErr, Assertion{Type: AssertError, Code: patch.ErrCodeArity}, false},
		{"code on trace error", traceErr, Assertion{Type: AssertError, Code: patch.ErrCodeReference}, false},
		{"is match", traceErr, Assertion{Type: AssertError, Is: "capacity"}, true},
		{"is mismatch", traceErr, Assertion{Type: AssertError, Is: "missing_default"}, false},
		{"contains", loadErr, Assertion{Type: AssertError, Contains: "frq"}, true},
		{"contains mismatch", loadErr, Assertion{Type: AssertError, Contains: "freq\""}, false},
		{"all must hold", loadErr, Assertion{Type: AssertError, Code: patch.ErrCodeReference, Contains: "amp"}, false},
		{"other error", errors.New("boom"), Assertion{Type: AssertError, Contains: "boom"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResult()
			result.Err = tt.err
			err := evaluate(result, tt.assertion)
			if tt.wantPass {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertError_NoFailure(t *testing.T) {
	err := evaluate(tracedSine(t), Assertion{Type: AssertError, Code: patch.ErrCodeReference, Is: "capacity"})
	require.Error(t, err)

	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "error with code E306 and capacity", assertErr.Expected)
	assert.Equal(t, "patch traced without error", assertErr.Actual)
}

func TestGraphAssertionOnFailedPatch(t *testing.T) {
	result := NewResult()
	result.Err = errors.New("trace broken: boom")

	err := evaluate(result, Assertion{Type: AssertBytes, Count: 52})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: patch failed: trace broken: boom")
	assert.NotContains(t, err.Error(), "Graph:")
}

func TestAssertionError_IncludesDump(t *testing.T) {
	err := &AssertionError{
		Type:     AssertBytes,
		Expected: "53 bytes",
		Actual:   "52 bytes",
		Graph:    tracedSine(t).Graph,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: bytes\n")
	assert.Contains(t, msg, "  Expected: 53 bytes\n  Actual: 52 bytes\n")
	assert.Contains(t, msg, "\nGraph:\nConstants: 0 0.1 \nControls: 440 \n")
	assert.Contains(t, msg, "  Name: SinOsc\n  Rate: a\n  Args: 0 32768 \n")
}

func TestEvaluateAssertions_CollectsFailures(t *testing.T) {
	errs := EvaluateAssertions(tracedSine(t), []Assertion{
		{Type: AssertBytes, Count: 52},
		{Type: AssertBytes, Count: 1},
		{Type: AssertOpCount, Count: 3},
		{Type: AssertOpCount, Count: 1},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Expected: 1 bytes")
	assert.Contains(t, errs[1], "Expected: 1 operation(s)")
}
