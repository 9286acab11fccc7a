package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/wire"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Framed bool
}

// InspectResult is the JSON payload of inspect.
type InspectResult struct {
	Message  string               `json:"message"`
	Bytes    int                  `json:"bytes"`
	Graph    *ir.Graph            `json:"graph,omitempty"`
	Problems []ir.ValidationError `json:"problems,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode an encoded graph and print its tables",
		Long: `Decode a file written by "mc1 compile -o" and print its tables the way
the engine dumps a received graph.

With --framed the file holds a whole datagram: the message type followed
by its payload.

Example:
  mc1 inspect sine.bin
  mc1 inspect --framed packet.bin`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Framed, "framed", false, "file starts with a message type")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)})
	}
	if err != nil {
		return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeReadFailed, Message: err.Error()})
	}

	msg := wire.CompileMessage(data)
	if opts.Framed {
		msg, err = wire.ParseFrame(data)
		if err != nil {
			return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeDecodeFailed, Message: err.Error()})
		}
	}
	formatter.VerboseLog("Read %d bytes from %s", len(data), path)

	result := InspectResult{Message: msg.Type.String(), Bytes: len(data)}
	switch msg.Type {
	case wire.Quit:
	case wire.Compile:
		g, err := wire.Decode(msg.Payload)
		if err != nil {
			return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeDecodeFailed, Message: err.Error()})
		}
		result.Graph = g
		result.Problems = g.Validate()
	default:
		return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("unknown message type %d", uint16(msg.Type))})
	}

	if formatter.IsJSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputInspectText(formatter.Writer, result)
	}

	if len(result.Problems) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("graph has %d problem(s)", len(result.Problems)))
	}
	return nil
}

func outputInspectText(w io.Writer, result InspectResult) {
	if result.Graph == nil {
		fmt.Fprintln(w, result.Message)
		return
	}
	wire.Dump(w, result.Graph)
	if len(result.Problems) > 0 {
		fmt.Fprintf(w, "\n✗ %d problem(s)\n", len(result.Problems))
		for _, p := range result.Problems {
			fmt.Fprintf(w, "  %s\n", p.Error())
		}
	}
}
