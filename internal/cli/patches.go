package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/minicollider/internal/dag"
	"github.com/roach88/minicollider/internal/patch"
	"github.com/roach88/minicollider/internal/wire"
)

// PatchInfo describes one built-in patch.
type PatchInfo struct {
	Name   string      `json:"name"`
	Params []ParamInfo `json:"params"`
}

// ParamInfo describes one declared parameter.
type ParamInfo struct {
	Name        string    `json:"name"`
	Default     []float32 `json:"default"`
	KeywordOnly bool      `json:"keyword_only,omitempty"`
}

// NewPatchesCommand creates the patches command.
func NewPatchesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "patches",
		Short:         "List built-in patches",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			infos := builtinPatches()
			if formatter.IsJSON() {
				return formatter.Success(infos)
			}
			writePatchList(formatter, infos)
			return nil
		},
	}
}

func builtinPatches() []PatchInfo {
	names := patch.Names()
	infos := make([]PatchInfo, 0, len(names))
	for _, name := range names {
		p, _ := patch.Lookup(name)
		infos = append(infos, describePatch(p))
	}
	return infos
}

func describePatch(p dag.Patch) PatchInfo {
	info := PatchInfo{Name: p.Name, Params: make([]ParamInfo, 0, len(p.Params))}
	for _, def := range p.Params {
		info.Params = append(info.Params, ParamInfo{
			Name:        def.Name,
			Default:     def.Default.Values(),
			KeywordOnly: def.KeywordOnly,
		})
	}
	return info
}

func writePatchList(formatter *OutputFormatter, infos []PatchInfo) {
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	for _, info := range infos {
		params := make([]string, 0, len(info.Params))
		for _, p := range info.Params {
			params = append(params, p.String())
		}
		fmt.Fprintf(tw, "%s\t%s\n", info.Name, strings.Join(params, " "))
	}
	tw.Flush()
}

// String formats the parameter as name=default, with vector defaults in
// brackets and keyword-only parameters marked with a leading '*'.
func (p ParamInfo) String() string {
	vals := make([]string, len(p.Default))
	for i, v := range p.Default {
		vals[i] = wire.FormatFloat(v)
	}
	def := strings.Join(vals, ",")
	if len(vals) != 1 {
		def = "[" + def + "]"
	}
	prefix := ""
	if p.KeywordOnly {
		prefix = "*"
	}
	return prefix + p.Name + "=" + def
}
