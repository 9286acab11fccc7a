package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/minicollider/internal/engine"
	"github.com/roach88/minicollider/internal/store"
)

// EngineOptions holds the flags of commands that talk to an engine.
// Unset flags fall back to the config file.
type EngineOptions struct {
	*RootOptions
	Port     int
	Host     string
	Database string

	// SessionIDs allows overriding the session ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionIDs engine.SessionIDGenerator
}

func (o *EngineOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.Port, "port", "p", 0, "engine UDP port (default from config, 5555)")
	cmd.Flags().StringVar(&o.Host, "host", "", "engine host (default from config, localhost)")
	cmd.Flags().StringVar(&o.Database, "db", "", "record graphs and sends in this patch library (default from config)")
}

// engineConfig merges flags over the config file. It returns the engine
// settings and the patch library path, which may be empty.
func (o *EngineOptions) engineConfig() (engine.Config, string, error) {
	cfg, err := o.Config()
	if err != nil {
		return engine.Config{}, "", err
	}
	if o.Port != 0 {
		cfg.Engine.Port = o.Port
	}
	if o.Host != "" {
		cfg.Engine.Host = o.Host
	}
	if o.Database != "" {
		cfg.DB = o.Database
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, "", err
	}
	return engine.Config{
		Port:     cfg.Engine.Port,
		Host:     cfg.Engine.Host,
		Source:   cfg.Engine.Source,
		BuildDir: cfg.Engine.BuildDir,
		Preset:   cfg.Engine.Preset,
		Binary:   cfg.Engine.Binary,
	}, cfg.DB, nil
}

// session is an engine process plus the optional patch library that logs
// its sends.
type session struct {
	proc  *engine.Process
	store *store.Store
}

// openSession creates the engine process described by opts. The caller
// must call close.
func openSession(opts *EngineOptions, extra ...engine.Option) (*session, *CLIError) {
	ecfg, dbPath, err := opts.engineConfig()
	if err != nil {
		return nil, &CLIError{Code: ErrCodeConfig, Message: err.Error()}
	}

	s := &session{}
	engineOpts := []engine.Option{}
	if opts.SessionIDs != nil {
		engineOpts = append(engineOpts, engine.WithSessionIDs(opts.SessionIDs))
	}
	if dbPath != "" {
		s.store, err = store.Open(dbPath)
		if err != nil {
			return nil, &CLIError{Code: ErrCodeDatabase, Message: err.Error()}
		}
		engineOpts = append(engineOpts, engine.WithSendLog(s.store))
	}
	s.proc = engine.New(ecfg, append(engineOpts, extra...)...)
	return s, nil
}

// compile records c in the library, when there is one, and sends it.
func (s *session) compile(ctx context.Context, c *compiledPatch) (int, *CLIError) {
	if s.store != nil {
		if _, err := s.store.WriteGraph(ctx, c.Name, c.Graph, c.Wire); err != nil {
			return 0, &CLIError{Code: ErrCodeDatabase, Message: err.Error()}
		}
	}
	n, err := s.proc.Compile(ctx, c.Graph)
	if err != nil {
		return n, &CLIError{Code: ErrCodeSendFailed, Message: err.Error()}
	}
	return n, nil
}

func (s *session) quit(ctx context.Context) (int, *CLIError) {
	n, err := s.proc.Quit(ctx)
	if err != nil {
		return n, &CLIError{Code: ErrCodeSendFailed, Message: err.Error()}
	}
	return n, nil
}

func (s *session) close(ctx context.Context) {
	s.proc.Stop(ctx)
	if s.store != nil {
		_ = s.store.Close()
	}
}

// SendResult is the JSON payload of send and quit.
type SendResult struct {
	Message string `json:"message"`
	Patch   string `json:"patch,omitempty"`
	ID      string `json:"id,omitempty"`
	Bytes   int    `json:"bytes"`
	Addr    string `json:"addr"`
}

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	return newSendCommand(&EngineOptions{RootOptions: rootOpts})
}

func newSendCommand(opts *EngineOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <patch>",
		Short: "Compile a patch and send it to a running engine",
		Long: `Compile a patch and send it to an engine that is already running, as
one compile datagram.

Example:
  mc1 send sine
  mc1 send ./patches/chord.cue --port 5556 --db patches.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runSend(opts *EngineOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	compiled, cliErr := compilePatch(ref)
	if cliErr != nil {
		return fail(formatter, ExitCommandError, cliErr)
	}

	s, cliErr := openSession(opts)
	if cliErr != nil {
		return fail(formatter, ExitCommandError, cliErr)
	}
	defer s.close(ctx)

	n, cliErr := s.compile(ctx, compiled)
	if cliErr != nil {
		return fail(formatter, ExitFailure, cliErr)
	}

	result := SendResult{
		Message: "compile",
		Patch:   compiled.Name,
		ID:      compiled.ID,
		Bytes:   n,
		Addr:    s.proc.Addr(),
	}
	if formatter.IsJSON() {
		return formatter.SuccessWithTrace(result, s.proc.Session())
	}
	fmt.Fprintf(formatter.Writer, "✓ Sent %s (%d bytes) to %s\n", result.Patch, result.Bytes, result.Addr)
	return nil
}

// NewQuitCommand creates the quit command.
func NewQuitCommand(rootOpts *RootOptions) *cobra.Command {
	return newQuitCommand(&EngineOptions{RootOptions: rootOpts})
}

func newQuitCommand(opts *EngineOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quit",
		Short: "Ask a running engine to exit",
		Long: `Send a quit datagram to an engine that is already running.

Example:
  mc1 quit --port 5555`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuit(opts, cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runQuit(opts *EngineOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	s, cliErr := openSession(opts)
	if cliErr != nil {
		return fail(formatter, ExitCommandError, cliErr)
	}
	defer s.close(ctx)

	n, cliErr := s.quit(ctx)
	if cliErr != nil {
		return fail(formatter, ExitFailure, cliErr)
	}

	result := SendResult{Message: "quit", Bytes: n, Addr: s.proc.Addr()}
	if formatter.IsJSON() {
		return formatter.SuccessWithTrace(result, s.proc.Session())
	}
	fmt.Fprintf(formatter.Writer, "✓ Sent quit to %s\n", result.Addr)
	return nil
}
