package dag

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minicollider/internal/ir"
)

func sinePatch() Patch {
	return Patch{
		Name:   "sine",
		Params: []ParamDef{{Name: "freq", Default: Scalar(440)}},
		Body: func(b *Builder, p Params) error {
			b.Mul(b.SinOsc(p.Get("freq"), Num(0)), Num(0.1))
			return nil
		},
	}
}

// detunePatch is two oscillators at freq and freq+1 modulating two more,
// summed and scaled by amp.
func detunePatch() Patch {
	return Patch{
		Name: "detune",
		Params: []ParamDef{
			{Name: "freq", Default: Scalar(440)},
			{Name: "amp", Default: Scalar(0.1)},
		},
		Body: func(b *Builder, p Params) error {
			freq, amp := p.Get("freq"), p.Get("amp")
			sig := b.SinOsc(Seq{freq, b.Add(freq, Num(1)).At(0)}, Num(0))
			left := b.SinOsc(b.Add(sig, freq), Num(0)).At(0)
			right := b.SinOsc(b.Add(sig, freq), Num(0)).At(1)
			b.Mul(b.Add(left, right), amp)
			return nil
		},
	}
}

func TestTraceSine(t *testing.T) {
	g, err := Build(sinePatch())
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 0.1}, g.Constants)
	assert.Equal(t, []float32{440}, g.Controls)
	assert.Equal(t, []ir.ControlName{{Name: "freq", Offset: 0}}, g.ControlNames)
	assert.Equal(t, []ir.Op{
		{Kind: ir.KindParam, Rate: ir.Block, Inputs: []ir.Ref{}, Name: "freq"},
		{Kind: ir.KindSinOsc, Rate: ir.Audio, Inputs: []ir.Ref{ir.OpRef(0), ir.ConstRef(0)}},
		{Kind: ir.KindMul, Rate: ir.Audio, Inputs: []ir.Ref{ir.OpRef(1), ir.ConstRef(1)}},
	}, g.Ops)
}

func TestTraceDetune(t *testing.T) {
	g, err := Build(detunePatch())
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 0}, g.Constants)
	assert.Equal(t, []float32{440, 0.1}, g.Controls)
	assert.Equal(t, []ir.ControlName{{Name: "freq", Offset: 0}, {Name: "amp", Offset: 1}}, g.ControlNames)

	op, c := ir.OpRef, ir.ConstRef
	want := []struct {
		kind   ir.Kind
		inputs []ir.Ref
	}{
		{ir.KindParam, []ir.Ref{}},
		{ir.KindParam, []ir.Ref{}},
		{ir.KindAdd, []ir.Ref{op(0), c(0)}},
		{ir.KindSinOsc, []ir.Ref{op(0), c(1)}},
		{ir.KindSinOsc, []ir.Ref{op(2), c(1)}},
		{ir.KindAdd, []ir.Ref{op(3), op(0)}},
		{ir.KindAdd, []ir.Ref{op(4), op(0)}},
		{ir.KindSinOsc, []ir.Ref{op(5), c(1)}},
		{ir.KindSinOsc, []ir.Ref{op(6), c(1)}},
		{ir.KindAdd, []ir.Ref{op(3), op(0)}},
		{ir.KindAdd, []ir.Ref{op(4), op(0)}},
		{ir.KindSinOsc, []ir.Ref{op(9), c(1)}},
		{ir.KindSinOsc, []ir.Ref{op(10), c(1)}},
		{ir.KindAdd, []ir.Ref{op(7), op(12)}},
		{ir.KindMul, []ir.Ref{op(13), op(1)}},
	}
	require.Len(t, g.Ops, len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, g.Ops[i].Kind, "op %d kind", i)
		assert.Equal(t, w.inputs, g.Ops[i].Inputs, "op %d inputs", i)
	}
}

func TestTraceTopologicalOrder(t *testing.T) {
	for _, p := range []Patch{sinePatch(), detunePatch()} {
		g, err := Build(p)
		require.NoError(t, err)

		for i, op := range g.Ops {
			for _, in := range op.Inputs {
				if !in.IsConstant() {
					assert.Less(t, in.Index, i, "%s op %d refers forward", p.Name, i)
				}
			}
		}
		assert.Empty(t, g.Validate())
	}
}

func TestTraceAddressTagging(t *testing.T) {
	g, err := Build(detunePatch())
	require.NoError(t, err)

	for _, op := range g.Ops {
		for _, in := range op.Inputs {
			a := in.Address()
			if in.IsConstant() {
				assert.NotZero(t, a&0x8000)
				assert.Equal(t, in.Index, int(a&0x7FFF))
				assert.Less(t, in.Index, len(g.Constants))
			} else {
				assert.Zero(t, a&0x8000)
				assert.Equal(t, in.Index, int(a))
			}
		}
	}
}

func TestTraceMissingDefaultTouchesNothing(t *testing.T) {
	b := NewBuilder()
	called := false
	g, err := b.Trace(Patch{
		Params: []ParamDef{
			{Name: "freq", Default: Scalar(440)},
			{Name: "amp"},
		},
		Body: func(b *Builder, p Params) error {
			called = true
			return nil
		},
	})

	require.ErrorIs(t, err, ErrMissingDefault)
	assert.Nil(t, g)
	assert.False(t, called, "body must not run when a default is missing")
	assert.Nil(t, b.s, "no tables may exist after a failed validation")

	var pe *ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, "amp", pe.Name)

	// The builder is immediately usable again and starts clean.
	g, err = b.Trace(sinePatch())
	require.NoError(t, err)
	assert.Len(t, g.Ops, 3)
}

func TestTraceResetsBetweenRuns(t *testing.T) {
	b := NewBuilder()
	g1, err := b.Trace(detunePatch())
	require.NoError(t, err)
	g2, err := b.Trace(sinePatch())
	require.NoError(t, err)

	assert.Len(t, g1.Ops, 15)
	assert.Len(t, g2.Ops, 3)
	assert.Equal(t, []float32{0, 0.1}, g2.Constants)
	assert.Nil(t, b.s)
}

func TestTraceFailureLeavesCleanState(t *testing.T) {
	b := NewBuilder()
	_, err := b.Trace(Patch{
		Body: func(b *Builder, p Params) error {
			b.Add(Num(1), Num(2))
			b.Add(Seq{}, Num(2))
			return nil
		},
	})
	require.ErrorIs(t, err, ErrEmptySequence)

	g, err := b.Trace(sinePatch())
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.1}, g.Constants, "constants from the failed trace must not survive")
}

func TestTraceBodyError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(Patch{
		Name: "failing",
		Body: func(b *Builder, p Params) error { return boom },
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "trace failing")
}

func TestTraceNilBody(t *testing.T) {
	_, err := Build(Patch{})
	assert.Error(t, err)
}

func TestTraceReentrant(t *testing.T) {
	b := NewBuilder()
	var inner error
	_, err := b.Trace(Patch{
		Body: func(b *Builder, p Params) error {
			_, inner = b.Trace(sinePatch())
			return nil
		},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrTraceInFlight)
}

func TestTraceStaleNode(t *testing.T) {
	b := NewBuilder()
	var kept Nodes
	_, err := b.Trace(Patch{
		Body: func(b *Builder, p Params) error {
			kept = b.Add(Num(1), Num(2))
			return nil
		},
	})
	require.NoError(t, err)

	_, err = b.Trace(Patch{
		Body: func(b *Builder, p Params) error {
			b.Mul(kept, Num(2))
			return nil
		},
	})
	assert.ErrorIs(t, err, ErrStaleNode)
}

func TestTraceStickyError(t *testing.T) {
	var after Nodes
	var errDuring error
	_, err := Build(Patch{
		Body: func(b *Builder, p Params) error {
			b.Add(Num(1), Seq{})
			errDuring = b.Err()
			after = b.Mul(Num(1), Num(2))
			return nil
		},
	})
	require.ErrorIs(t, err, ErrEmptySequence)
	assert.ErrorIs(t, errDuring, ErrEmptySequence)
	assert.Nil(t, after, "constructors are no-ops once the trace has failed")
}

func TestIndependentBuildersConcurrently(t *testing.T) {
	want := MustBuild(detunePatch())

	var wg sync.WaitGroup
	results := make([]*ir.Graph, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Build(detunePatch())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestConstructorOutsideTracePanics(t *testing.T) {
	b := NewBuilder()
	assert.Panics(t, func() { b.Add(Num(1), Num(2)) })
	assert.NoError(t, b.Err())
}

func TestGraphIsIndependentCopy(t *testing.T) {
	b := NewBuilder()
	g1, err := b.Trace(sinePatch())
	require.NoError(t, err)
	g2, err := b.Trace(sinePatch())
	require.NoError(t, err)

	g1.Constants[0] = 99
	g1.Ops[1].Inputs[0] = ir.ConstRef(1)
	assert.Equal(t, float32(0), g2.Constants[0])
	assert.Equal(t, ir.OpRef(0), g2.Ops[1].Inputs[0])
}
