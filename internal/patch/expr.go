package patch

import (
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/minicollider/internal/dag"
)

// expr is a checked expression.
type expr interface{ isExpr() }

type (
	numExpr  float32
	refExpr  string
	listExpr []expr
)

type opExpr struct {
	spec dag.OpSpec
	args []expr
}

// atExpr selects one instance of a broadcast result.
type atExpr struct {
	x expr
	i int
}

func (numExpr) isExpr()  {}
func (refExpr) isExpr()  {}
func (listExpr) isExpr() {}
func (opExpr) isExpr()   {}
func (atExpr) isExpr()   {}

// compiler turns decoded values into expressions, resolving names against
// the parameters and the bindings defined so far.
type compiler struct {
	path  string
	scope map[string]bool
}

func (c *compiler) errorf(code, field, format string, args ...any) error {
	return &LoadError{Code: code, Path: c.path, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (c *compiler) compile(v any, field string) (expr, error) {
	if f, ok := toFloat(v); ok {
		return numExpr(f), nil
	}
	switch v := v.(type) {
	case nil:
		return nil, c.errorf(ErrCodeExpression, field, "empty expression")
	case string:
		name := norm.NFC.String(v)
		if !c.scope[name] {
			return nil, c.errorf(ErrCodeReference, field, "unknown name %q", name)
		}
		return refExpr(name), nil
	case []any:
		if len(v) == 0 {
			return nil, c.errorf(ErrCodeExpression, field, "empty list")
		}
		list := make(listExpr, len(v))
		for i, e := range v {
			x, err := c.compile(e, fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			list[i] = x
		}
		return list, nil
	case map[string]any:
		return c.compileCall(v, field)
	}
	return nil, c.errorf(ErrCodeExpression, field, "unsupported value %v (%T)", v, v)
}

func (c *compiler) compileCall(m map[string]any, field string) (expr, error) {
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, c.errorf(ErrCodeExpression, field, "operation must have exactly one key, got %v", keys)
	}
	var (
		name string
		raw  any
	)
	for k, v := range m {
		name, raw = k, v
	}
	field += "." + name

	args, ok := raw.([]any)
	if !ok {
		return nil, c.errorf(ErrCodeExpression, field, "arguments must be a list, got %T", raw)
	}

	if name == "at" {
		if len(args) != 2 {
			return nil, c.errorf(ErrCodeArity, field, "at takes 2 arguments, got %d", len(args))
		}
		x, err := c.compile(args[0], field+"[0]")
		if err != nil {
			return nil, err
		}
		f, ok := toFloat(args[1])
		if !ok || f < 0 || f != float32(int(f)) {
			return nil, c.errorf(ErrCodeExpression, field+"[1]", "instance must be a non-negative integer, got %v", args[1])
		}
		return atExpr{x: x, i: int(f)}, nil
	}

	spec, ok := dag.LookupOp(name)
	if !ok {
		return nil, c.errorf(ErrCodeOperation, field, "unknown operation %q", name)
	}
	if len(args) != spec.Arity {
		return nil, c.errorf(ErrCodeArity, field, "%s takes %d arguments, got %d", name, spec.Arity, len(args))
	}
	op := opExpr{spec: spec, args: make([]expr, len(args))}
	for i, a := range args {
		x, err := c.compile(a, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		op.args[i] = x
	}
	return op, nil
}

type binding struct {
	name string
	x    expr
}

// program is the body of a file patch.
type program struct {
	lets []binding
	out  expr
}

func (p *program) run(b *dag.Builder, params dag.Params) error {
	env := make(map[string]dag.Arg, params.Len()+len(p.lets))
	for _, param := range params.All() {
		env[param.Name()] = param
	}
	for _, bind := range p.lets {
		env[bind.name] = eval(b, bind.x, env)
	}
	eval(b, p.out, env)
	return nil
}

// eval builds x into the trace. Failures are recorded on b.
func eval(b *dag.Builder, x expr, env map[string]dag.Arg) dag.Arg {
	switch x := x.(type) {
	case numExpr:
		return dag.Num(x)
	case refExpr:
		return env[string(x)]
	case listExpr:
		seq := make(dag.Seq, len(x))
		for i, e := range x {
			seq[i] = scalar(b, eval(b, e, env), i)
		}
		return seq
	case opExpr:
		args := make([]dag.Arg, len(x.args))
		for i, a := range x.args {
			args[i] = eval(b, a, env)
		}
		return b.Apply(x.spec, args...)
	case atExpr:
		return pick(b, eval(b, x.x, env), x.i)
	}
	b.Fail(fmt.Errorf("unknown expression %T", x))
	return dag.Num(0)
}

// scalar converts a list element to a single value. Single-instance
// results are allowed; nested sequences are not.
func scalar(b *dag.Builder, a dag.Arg, i int) dag.Value {
	switch a := a.(type) {
	case dag.Value:
		return a
	case dag.Nodes:
		if len(a) > 1 {
			b.Fail(fmt.Errorf("list element %d has %d instances; select one with at", i, len(a)))
		}
		return a.At(0)
	}
	b.Fail(fmt.Errorf("list element %d is a list; nested lists are not supported", i))
	return dag.Num(0)
}

func pick(b *dag.Builder, a dag.Arg, i int) dag.Value {
	switch a := a.(type) {
	case dag.Nodes:
		if len(a) > 0 && i >= len(a) {
			b.Fail(fmt.Errorf("at: instance %d of %d", i, len(a)))
		}
		return a.At(i)
	case dag.Seq:
		if i < len(a) {
			return a[i]
		}
		b.Fail(fmt.Errorf("at: instance %d of %d", i, len(a)))
		return dag.Num(0)
	case dag.Value:
		if i == 0 {
			return a
		}
		b.Fail(fmt.Errorf("at: instance %d of a single value", i))
		return dag.Num(0)
	}
	b.Fail(fmt.Errorf("at: unsupported value %T", a))
	return dag.Num(0)
}
