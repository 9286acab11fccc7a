package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/minicollider/internal/ctxlog"
	"github.com/roach88/minicollider/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	EngineOptions
	NoBuild bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{EngineOptions: EngineOptions{RootOptions: rootOpts}})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and start the engine, then open a patch shell",
		Long: `Build the engine with cmake, start it on its UDP port and read shell
commands from standard input until "exit", end of input, or Ctrl-C. The
engine is stopped on the way out.

Shell commands:
  compile <patch>   compile a patch and send it to the engine
  quit              ask the engine to exit
  patches           list built-in patches
  help              show this list
  exit              stop the engine and leave

Example:
  mc1 run
  mc1 run --no-build --port 5556 --db patches.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.NoBuild, "no-build", false, "start the existing engine binary without building")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()
	log := ctxlog.FromContext(ctx)

	// Engine and cmake output stays off stdout when it carries JSON.
	engineOut := cmd.OutOrStdout()
	if formatter.IsJSON() {
		engineOut = cmd.ErrOrStderr()
	}
	s, cliErr := openSession(&opts.EngineOptions, engine.WithOutput(engineOut, cmd.ErrOrStderr()))
	if cliErr != nil {
		return fail(formatter, ExitCommandError, cliErr)
	}
	// Stop outlives ctx so the engine is terminated even after a signal.
	defer s.close(context.WithoutCancel(ctx))

	if !opts.NoBuild {
		if err := s.proc.Build(ctx); err != nil {
			return fail(formatter, ExitFailure, &CLIError{Code: ErrCodeBuildFailed, Message: err.Error()})
		}
	}
	if err := s.proc.Start(ctx); err != nil {
		return fail(formatter, ExitFailure, &CLIError{Code: ErrCodeStartFailed, Message: err.Error()})
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	sh := &shell{
		session:   s,
		formatter: formatter,
		prompt:    !formatter.IsJSON(),
	}
	sh.run(ctx, cmd.InOrStdin())

	log.Info("engine session ended", "session", s.proc.Session())
	return nil
}

// shell reads one command per line and acts on the running engine.
type shell struct {
	session   *session
	formatter *OutputFormatter
	prompt    bool
}

// run reads commands until exit, end of input, cancellation of ctx, or
// the engine exiting.
func (sh *shell) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	exited := sh.session.proc.Exited()
	for {
		if sh.prompt {
			fmt.Fprint(sh.formatter.Writer, "mc1> ")
		}
		select {
		case <-ctx.Done():
			sh.println()
			return
		case <-exited:
			sh.println()
			sh.notice("engine exited")
			return
		case line, ok := <-lines:
			if !ok {
				sh.println()
				return
			}
			if !sh.exec(ctx, line) {
				return
			}
		}
	}
}

// exec runs one shell command and reports whether to keep reading.
func (sh *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch name, args := fields[0], fields[1:]; name {
	case "exit":
		return false
	case "help":
		sh.help()
	case "patches":
		if sh.formatter.IsJSON() {
			_ = sh.formatter.Success(builtinPatches())
		} else {
			writePatchList(sh.formatter, builtinPatches())
		}
	case "compile":
		if len(args) != 1 {
			sh.usage("compile <patch>")
			break
		}
		sh.compile(ctx, args[0])
	case "quit":
		if len(args) != 0 {
			sh.usage("quit")
			break
		}
		sh.quit(ctx)
	default:
		_ = sh.formatter.Error(ErrCodeUsage, fmt.Sprintf("unknown command %q (try help)", name), nil)
	}
	return true
}

func (sh *shell) compile(ctx context.Context, ref string) {
	compiled, cliErr := compilePatch(ref)
	if cliErr != nil {
		_ = sh.formatter.Error(cliErr.Code, cliErr.Message, cliErr.Details)
		return
	}
	n, cliErr := sh.session.compile(ctx, compiled)
	if cliErr != nil {
		_ = sh.formatter.Error(cliErr.Code, cliErr.Message, cliErr.Details)
		return
	}
	result := SendResult{
		Message: "compile",
		Patch:   compiled.Name,
		ID:      compiled.ID,
		Bytes:   n,
		Addr:    sh.session.proc.Addr(),
	}
	if sh.formatter.IsJSON() {
		_ = sh.formatter.SuccessWithTrace(result, sh.session.proc.Session())
		return
	}
	fmt.Fprintf(sh.formatter.Writer, "✓ Sent %s (%d bytes)\n", result.Patch, result.Bytes)
}

func (sh *shell) quit(ctx context.Context) {
	n, cliErr := sh.session.quit(ctx)
	if cliErr != nil {
		_ = sh.formatter.Error(cliErr.Code, cliErr.Message, cliErr.Details)
		return
	}
	result := SendResult{Message: "quit", Bytes: n, Addr: sh.session.proc.Addr()}
	if sh.formatter.IsJSON() {
		_ = sh.formatter.SuccessWithTrace(result, sh.session.proc.Session())
		return
	}
	fmt.Fprintln(sh.formatter.Writer, "✓ Sent quit")
}

func (sh *shell) help() {
	if sh.formatter.IsJSON() {
		_ = sh.formatter.Success([]string{"compile <patch>", "quit", "patches", "help", "exit"})
		return
	}
	fmt.Fprint(sh.formatter.Writer, `  compile <patch>   compile a patch and send it to the engine
  quit              ask the engine to exit
  patches           list built-in patches
  help              show this list
  exit              stop the engine and leave
`)
}

func (sh *shell) usage(form string) {
	_ = sh.formatter.Error(ErrCodeUsage, "usage: "+form, nil)
}

func (sh *shell) notice(msg string) {
	if sh.formatter.IsJSON() {
		_ = sh.formatter.Success(map[string]string{"event": msg})
		return
	}
	fmt.Fprintln(sh.formatter.Writer, msg)
}

// println ends the prompt line in text mode.
func (sh *shell) println() {
	if sh.prompt {
		fmt.Fprintln(sh.formatter.Writer)
	}
}
