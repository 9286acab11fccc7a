package patch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/minicollider/internal/dag"
)

// File is the decoded form of a patch file. YAML and CUE files share it.
type File struct {
	Name   string      `yaml:"name" json:"name"`
	Params []ParamSpec `yaml:"params" json:"params"`
	Let    []Binding   `yaml:"let" json:"let"`
	Out    any         `yaml:"out" json:"out"`
}

// ParamSpec declares one parameter. Default is a number or a non-empty
// list of numbers.
type ParamSpec struct {
	Name    string `yaml:"name" json:"name"`
	Default any    `yaml:"default" json:"default"`
	Keyword bool   `yaml:"keyword" json:"keyword"`
}

// Binding names an expression for use by later bindings and the output.
type Binding struct {
	Name string `yaml:"name" json:"name"`
	Expr any    `yaml:"expr" json:"expr"`
}

// Format is a patch file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFor picks the format from a file extension. JSON is read as YAML.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, true
	case ".cue":
		return FormatCUE, true
	}
	return "", false
}

// Open resolves ref to a patch: a built-in name first, then a file path.
func Open(ref string) (dag.Patch, error) {
	if p, ok := Lookup(ref); ok {
		return p, nil
	}
	if _, err := os.Stat(ref); err != nil {
		return dag.Patch{}, &LoadError{
			Code:    ErrCodeNotFound,
			Path:    ref,
			Message: fmt.Sprintf("no built-in patch or file named %q (built-ins: %s)", ref, strings.Join(Names(), ", ")),
		}
	}
	return Load(ref)
}

// Load reads and compiles a patch file.
func Load(path string) (dag.Patch, error) {
	format, ok := FormatFor(path)
	if !ok {
		return dag.Patch{}, &LoadError{Code: ErrCodeFormat, Path: path, Message: "expected .yaml, .yml, .json or .cue"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return dag.Patch{}, &LoadError{Code: ErrCodeRead, Path: path, Message: err.Error()}
	}
	return Parse(data, format, path)
}

// Parse decodes and compiles patch source. path names the source in
// errors and supplies the patch name when the file has none.
func Parse(data []byte, format Format, path string) (dag.Patch, error) {
	var (
		f   File
		err error
	)
	switch format {
	case FormatYAML:
		err = decodeYAML(data, path, &f)
	case FormatCUE:
		err = decodeCUE(data, path, &f)
	default:
		err = &LoadError{Code: ErrCodeFormat, Path: path, Message: fmt.Sprintf("unknown format %q", format)}
	}
	if err != nil {
		return dag.Patch{}, err
	}
	if f.Name == "" && path != "" {
		base := filepath.Base(path)
		f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return f.Compile(path)
}

func decodeYAML(data []byte, path string, f *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		return &LoadError{Code: ErrCodeParse, Path: path, Message: err.Error()}
	}
	return nil
}

func decodeCUE(data []byte, path string, f *File) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cueLoadError(err, path)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cueLoadError(err, path)
	}
	if err := v.Decode(f); err != nil {
		return cueLoadError(err, path)
	}
	return nil
}

// cueLoadError keeps the first CUE error and its position.
func cueLoadError(err error, path string) *LoadError {
	le := &LoadError{Code: ErrCodeParse, Path: path, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		if pos := cueerrors.Positions(errs[0]); len(pos) > 0 {
			le.Pos = pos[0]
		}
	}
	return le
}

// Compile checks every name and expression in f and returns the patch it
// describes. Parameter defaults are not checked here: a parameter without
// one is reported by the trace.
func (f *File) Compile(path string) (dag.Patch, error) {
	fail := func(code, field, format string, args ...any) (dag.Patch, error) {
		return dag.Patch{}, &LoadError{Code: code, Path: path, Field: field, Message: fmt.Sprintf(format, args...)}
	}

	scope := make(map[string]bool, len(f.Params)+len(f.Let))
	defs := make([]dag.ParamDef, 0, len(f.Params))
	for i, ps := range f.Params {
		field := fmt.Sprintf("params[%d]", i)
		name := norm.NFC.String(ps.Name)
		if name == "" {
			return fail(ErrCodeName, field+".name", "parameter name is empty")
		}
		if scope[name] {
			return fail(ErrCodeName, field+".name", "duplicate name %q", name)
		}
		scope[name] = true

		def, err := toDefault(ps.Default)
		if err != nil {
			return fail(ErrCodeDefault, field+".default", "%v", err)
		}
		defs = append(defs, dag.ParamDef{Name: name, Default: def, KeywordOnly: ps.Keyword})
	}

	c := compiler{path: path, scope: scope}
	lets := make([]binding, 0, len(f.Let))
	for i, bind := range f.Let {
		field := fmt.Sprintf("let[%d]", i)
		name := norm.NFC.String(bind.Name)
		if name == "" {
			return fail(ErrCodeName, field+".name", "binding name is empty")
		}
		if scope[name] {
			return fail(ErrCodeName, field+".name", "duplicate name %q", name)
		}
		x, err := c.compile(bind.Expr, field+".expr")
		if err != nil {
			return dag.Patch{}, err
		}
		// A binding is visible only after its own definition.
		scope[name] = true
		lets = append(lets, binding{name: name, x: x})
	}

	if f.Out == nil {
		return fail(ErrCodeMissingOut, "out", "patch has no output expression")
	}
	out, err := c.compile(f.Out, "out")
	if err != nil {
		return dag.Patch{}, err
	}

	prog := &program{lets: lets, out: out}
	return dag.Patch{
		Name:   norm.NFC.String(f.Name),
		Params: defs,
		Body:   prog.run,
	}, nil
}

// toDefault converts a decoded default. nil means "no default".
func toDefault(v any) (dag.Default, error) {
	switch v := v.(type) {
	case nil:
		return dag.Default{}, nil
	case []any:
		vs := make([]float32, len(v))
		for i, e := range v {
			f, ok := toFloat(e)
			if !ok {
				return dag.Default{}, fmt.Errorf("element %d is %T, want a number", i, e)
			}
			vs[i] = f
		}
		return dag.Vector(vs...), nil
	}
	f, ok := toFloat(v)
	if !ok {
		return dag.Default{}, fmt.Errorf("default is %T, want a number or a list of numbers", v)
	}
	return dag.Scalar(f), nil
}

func toFloat(v any) (float32, bool) {
	switch v := v.(type) {
	case int:
		return float32(v), true
	case int64:
		return float32(v), true
	case uint64:
		return float32(v), true
	case float64:
		return float32(v), true
	case float32:
		return v, true
	}
	return 0, false
}
