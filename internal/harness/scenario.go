package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/minicollider/internal/dag"
	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/patch"
)

// Scenario names a patch and what tracing it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Patch is a built-in patch name or a patch file path. Relative paths
	// are resolved against the scenario file's directory.
	Patch string `yaml:"patch,omitempty"`

	// Source is YAML patch source, used instead of Patch.
	Source string `yaml:"source,omitempty"`

	// Assertions are checked in order against the result.
	Assertions []Assertion `yaml:"assertions"`

	// dir is the directory the scenario was loaded from.
	dir string
}

// Assertion checks one property of a traced patch.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Values is the expected table (constants, controls).
	Values []float32 `yaml:"values,omitempty"`

	// Name selects one parameter's span of the controls table (controls).
	Name string `yaml:"name,omitempty"`

	// Kind is the operation kind (op_count, op).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of operations or bytes (op_count, bytes).
	Count int `yaml:"count,omitempty"`

	// Index is the operation's position (op).
	Index int `yaml:"index,omitempty"`

	// Rate is the operation's rate by name or tag (op).
	Rate string `yaml:"rate,omitempty"`

	// Inputs are the operation's inputs written as op:N or const:N (op).
	Inputs []string `yaml:"inputs,omitempty"`

	// Code is the expected patch load error code (error).
	Code string `yaml:"code,omitempty"`

	// Is names the expected trace error, see traceErrors (error).
	Is string `yaml:"is,omitempty"`

	// Contains is a substring of the expected error message (error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertConstants = "constants"
	AssertControls  = "controls"
	AssertOpCount   = "op_count"
	AssertOp        = "op"
	AssertBytes     = "bytes"
	AssertError     = "error"
)

// traceErrors maps the names accepted by an error assertion's is field to
// the errors they match.
var traceErrors = map[string]error{
	"missing_default": dag.ErrMissingDefault,
	"empty_sequence":  dag.ErrEmptySequence,
	"capacity":        dag.ErrCapacity,
	"unknown_param":   dag.ErrUnknownParam,
	"stale_node":      dag.ErrStaleNode,
	"nil_arg":         dag.ErrNilArg,
	"invalid_param":   dag.ErrInvalidParam,
	"no_instance":     dag.ErrNoInstance,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML. dir is where relative patch paths
// are resolved.
func ParseScenario(data []byte, dir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = dir

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// open resolves the scenario's patch.
func (s *Scenario) open() (dag.Patch, error) {
	if s.Source != "" {
		return patch.Parse([]byte(s.Source), patch.FormatYAML, s.Name)
	}
	if p, ok := patch.Lookup(s.Patch); ok {
		return p, nil
	}
	path := s.Patch
	if !filepath.IsAbs(path) && s.dir != "" {
		path = filepath.Join(s.dir, path)
	}
	return patch.Open(path)
}

// expectsError reports whether the scenario expects its patch to fail.
func (s *Scenario) expectsError() bool {
	for _, a := range s.Assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if (s.Patch == "") == (s.Source == "") {
		return errors.New("exactly one of patch or source is required")
	}
	if len(s.Assertions) == 0 {
		return errors.New("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	if s.expectsError() && len(s.Assertions) > 1 {
		return errors.New("an error assertion cannot be combined with other assertions")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertConstants:
		if a.Values == nil {
			return errors.New("constants assertion requires values")
		}
	case AssertControls:
		if a.Values == nil {
			return errors.New("controls assertion requires values")
		}
	case AssertOpCount, AssertBytes:
		if a.Count < 0 {
			return fmt.Errorf("%s assertion count must be non-negative", a.Type)
		}
	case AssertOp:
		if a.Index < 0 {
			return errors.New("op assertion index must be non-negative")
		}
		if a.Rate != "" {
			var r ir.Rate
			if err := r.UnmarshalText([]byte(a.Rate)); err != nil {
				return fmt.Errorf("op assertion: %w", err)
			}
		}
		for _, in := range a.Inputs {
			if _, err := parseRef(in); err != nil {
				return fmt.Errorf("op assertion: %w", err)
			}
		}
	case AssertError:
		if a.Code == "" && a.Is == "" && a.Contains == "" {
			return errors.New("error assertion requires code, is or contains")
		}
		if a.Is != "" {
			if _, ok := traceErrors[a.Is]; !ok {
				return fmt.Errorf("error assertion: unknown error name %q", a.Is)
			}
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// parseRef reads an input written as op:N or const:N.
func parseRef(s string) (ir.Ref, error) {
	kind, index, ok := strings.Cut(s, ":")
	if !ok {
		return ir.Ref{}, fmt.Errorf("input %q: expected op:N or const:N", s)
	}
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 {
		return ir.Ref{}, fmt.Errorf("input %q: bad index", s)
	}
	switch kind {
	case "op":
		return ir.OpRef(i), nil
	case "const":
		return ir.ConstRef(i), nil
	}
	return ir.Ref{}, fmt.Errorf("input %q: expected op:N or const:N", s)
}
