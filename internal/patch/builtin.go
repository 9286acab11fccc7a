package patch

import (
	"sort"

	"github.com/roach88/minicollider/internal/dag"
)

// Sine is a single oscillator at freq, scaled to a tenth.
func Sine() dag.Patch {
	return dag.Patch{
		Name:   "sine",
		Params: []dag.ParamDef{{Name: "freq", Default: dag.Scalar(440)}},
		Body: func(b *dag.Builder, p dag.Params) error {
			b.Mul(b.SinOsc(p.Get("freq"), dag.Num(0)), dag.Num(0.1))
			return nil
		},
	}
}

// Detune runs two oscillators a hertz apart, uses each to frequency
// modulate a further pair, and mixes the left instance of the first pair
// with the right instance of the second.
func Detune() dag.Patch {
	return dag.Patch{
		Name: "detune",
		Params: []dag.ParamDef{
			{Name: "freq", Default: dag.Scalar(440)},
			{Name: "amp", Default: dag.Scalar(0.1)},
		},
		Body: func(b *dag.Builder, p dag.Params) error {
			freq, amp := p.Get("freq"), p.Get("amp")
			sig := b.SinOsc(dag.Seq{freq, b.Add(freq, dag.Num(1)).At(0)}, dag.Num(0))
			left := b.SinOsc(b.Add(sig, freq), dag.Num(0)).At(0)
			right := b.SinOsc(b.Add(sig, freq), dag.Num(0)).At(1)
			b.Mul(b.Add(left, right), amp)
			return nil
		},
	}
}

var builtins = map[string]func() dag.Patch{
	"sine":   Sine,
	"detune": Detune,
}

// Lookup returns the built-in patch called name.
func Lookup(name string) (dag.Patch, bool) {
	fn, ok := builtins[name]
	if !ok {
		return dag.Patch{}, false
	}
	return fn(), true
}

// Names returns the built-in patch names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
