package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minicollider/internal/dag"
)

func TestPatchesText(t *testing.T) {
	cmd := NewPatchesCommand(&RootOptions{Format: "text"})
	out, err := execute(cmd)
	require.NoError(t, err)
	assert.Equal(t, "detune  freq=440 amp=0.1\nsine    freq=440\n", out)
}

func TestPatchesJSON(t *testing.T) {
	cmd := NewPatchesCommand(&RootOptions{Format: "json"})
	out, err := execute(cmd)
	require.NoError(t, err)

	var infos []PatchInfo
	decodeResponse(t, out, &infos)
	require.Len(t, infos, 2)
	assert.Equal(t, "detune", infos[0].Name)
	assert.Equal(t, []ParamInfo{
		{Name: "freq", Default: []float32{440}},
		{Name: "amp", Default: []float32{0.1}},
	}, infos[0].Params)
	assert.Equal(t, "sine", infos[1].Name)
}

func TestParamInfoString(t *testing.T) {
	p := describePatch(dag.Patch{
		Name: "chord",
		Params: []dag.ParamDef{
			{Name: "root", Default: dag.Scalar(220)},
			{Name: "ratios", Default: dag.Vector(1, 1.25, 1.5)},
			{Name: "amp", Default: dag.Scalar(0.2), KeywordOnly: true},
		},
	})
	require.Len(t, p.Params, 3)
	assert.Equal(t, "root=220", p.Params[0].String())
	assert.Equal(t, "ratios=[1,1.25,1.5]", p.Params[1].String())
	assert.Equal(t, "*amp=0.2", p.Params[2].String())
}
