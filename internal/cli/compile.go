package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/minicollider/internal/dag"
	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/patch"
	"github.com/roach88/minicollider/internal/store"
	"github.com/roach88/minicollider/internal/wire"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // wire bytes output path
	Database string
}

// CompileResult is the JSON payload of a successful compile.
type CompileResult struct {
	Name     string    `json:"name"`
	ID       string    `json:"id"`
	Bytes    int       `json:"bytes"`
	Graph    *ir.Graph `json:"graph"`
	Output   string    `json:"output,omitempty"`
	Recorded bool      `json:"recorded,omitempty"`
}

// compiledPatch is a traced and encoded patch.
type compiledPatch struct {
	Name  string
	Graph *ir.Graph
	Wire  []byte
	ID    string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <patch>",
		Short: "Trace a patch and encode its graph",
		Long: `Trace a patch once and encode the resulting graph in the engine's
binary format.

The patch is a built-in name or a .yaml, .yml, .json or .cue file. With
--output the encoded bytes are written to a file; with --db the graph is
recorded in the patch library.

Example:
  mc1 compile sine
  mc1 compile ./patches/tremolo.yaml -o tremolo.bin --db patches.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the encoded graph to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the graph in this patch library (default from config)")

	return cmd
}

func runCompile(opts *CompileOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.Config()
	if err != nil {
		return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeConfig, Message: err.Error()})
	}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}

	compiled, cliErr := compilePatch(ref)
	if cliErr != nil {
		return fail(formatter, ExitCommandError, cliErr)
	}
	formatter.VerboseLog("Traced %s: %d constant(s), %d control(s), %d operation(s)",
		compiled.Name, len(compiled.Graph.Constants), len(compiled.Graph.Controls), len(compiled.Graph.Ops))

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, compiled.Wire, 0o644); err != nil {
			return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
		formatter.VerboseLog("Wrote %d bytes to %s", len(compiled.Wire), opts.Output)
	}

	if dbPath != "" {
		if err := recordGraph(cmd.Context(), dbPath, compiled); err != nil {
			return fail(formatter, ExitFailure, &CLIError{Code: ErrCodeDatabase, Message: err.Error()})
		}
	}

	result := CompileResult{
		Name:     compiled.Name,
		ID:       compiled.ID,
		Bytes:    len(compiled.Wire),
		Graph:    compiled.Graph,
		Output:   opts.Output,
		Recorded: dbPath != "",
	}
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return outputCompileText(formatter, result, dbPath)
}

// outputCompileText prints a compile summary.
func outputCompileText(formatter *OutputFormatter, result CompileResult, dbPath string) error {
	g := result.Graph
	fmt.Fprintf(formatter.Writer, "✓ Compiled %s: %d constant(s), %d control(s), %d operation(s), %d bytes\n",
		result.Name, len(g.Constants), len(g.Controls), len(g.Ops), result.Bytes)
	fmt.Fprintf(formatter.Writer, "  id: %s\n", result.ID)

	if len(g.ControlNames) > 0 {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "Controls:")
		for i, c := range g.ControlNames {
			offset, n := g.ControlSpan(i)
			fmt.Fprintf(formatter.Writer, "  %s: %v\n", c.Name, g.Controls[offset:offset+n])
		}
	}

	if result.Output != "" {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintf(formatter.Writer, "Wrote %d bytes to %s\n", result.Bytes, result.Output)
	}
	if result.Recorded {
		fmt.Fprintf(formatter.Writer, "Recorded in %s\n", dbPath)
	}
	return nil
}

// compilePatch resolves, traces and encodes a patch reference.
func compilePatch(ref string) (*compiledPatch, *CLIError) {
	p, err := patch.Open(ref)
	if err != nil {
		return nil, loadError(err)
	}
	g, err := dag.Build(p)
	if err != nil {
		return nil, &CLIError{Code: ErrCodeTraceFailed, Message: err.Error()}
	}
	data, err := wire.Encode(g)
	if err != nil {
		return nil, &CLIError{Code: ErrCodeEncodeFailed, Message: err.Error()}
	}
	return &compiledPatch{
		Name:  p.Name,
		Graph: g,
		Wire:  data,
		ID:    ir.GraphID(g, data),
	}, nil
}

// loadError converts a patch loading error, keeping its code and position.
func loadError(err error) *CLIError {
	var le *patch.LoadError
	if !errors.As(err, &le) {
		return &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	msg := le.Message
	if le.Field != "" {
		msg = le.Field + ": " + msg
	}
	cliErr := &CLIError{Code: le.Code, Message: msg}
	switch {
	case le.Pos.IsValid():
		cliErr.Details = map[string]any{
			"file":   le.Pos.Filename(),
			"line":   le.Pos.Line(),
			"column": le.Pos.Column(),
		}
	case le.Path != "":
		cliErr.Details = map[string]any{"file": le.Path}
	}
	return cliErr
}

// recordGraph writes a compiled patch to the library at dbPath.
func recordGraph(ctx context.Context, dbPath string, c *compiledPatch) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.WriteGraph(ctx, c.Name, c.Graph, c.Wire); err != nil {
		return err
	}
	return nil
}
