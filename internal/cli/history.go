package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/store"
	"github.com/roach88/minicollider/internal/wire"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Name     string
	Session  string
	Show     string
}

// HistoryResult is the JSON payload of history.
type HistoryResult struct {
	Graphs []GraphEntry `json:"graphs"`
	Sends  []SendEntry  `json:"sends"`
}

// GraphEntry is a recorded graph without its wire bytes.
type GraphEntry struct {
	Seq        int64  `json:"seq"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Constants  int    `json:"constants"`
	Controls   int    `json:"controls"`
	Operations int    `json:"operations"`
	Bytes      int    `json:"bytes"`
	IRVersion  string `json:"ir_version"`
}

// SendEntry is a recorded datagram.
type SendEntry struct {
	Seq        int64  `json:"seq"`
	Session    string `json:"session"`
	SessionSeq int64  `json:"session_seq"`
	Message    string `json:"message"`
	GraphID    string `json:"graph_id,omitempty"`
	Bytes      int    `json:"bytes"`
}

// ShowResult is the JSON payload of history --show.
type ShowResult struct {
	GraphEntry
	Graph *ir.Graph `json:"graph"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List graphs and sends recorded in the patch library",
		Long: `List the graphs recorded by compile, send and run, and the datagrams
sent to engines, in the order they were recorded.

Example:
  mc1 history --db patches.db
  mc1 history --db patches.db --name sine
  mc1 history --db patches.db --show <graph-id>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "patch library (default from config)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only graphs with this patch name")
	cmd.Flags().StringVar(&opts.Session, "session", "", "only sends of this engine session")
	cmd.Flags().StringVar(&opts.Show, "show", "", "print the tables of one graph by ID")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	dbPath := opts.Database
	if dbPath == "" {
		cfg, err := opts.Config()
		if err != nil {
			return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeConfig, Message: err.Error()})
		}
		dbPath = cfg.DB
	}
	if dbPath == "" {
		return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeDatabase, Message: "no patch library: pass --db or set db in the config file"})
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", dbPath)})
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	defer st.Close()

	if opts.Show != "" {
		g, rec, err := st.ReadGraph(ctx, opts.Show)
		if errors.Is(err, store.ErrNotFound) {
			return fail(formatter, ExitCommandError, &CLIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("graph not found: %s", opts.Show)})
		}
		if err != nil {
			return fail(formatter, ExitFailure, &CLIError{Code: ErrCodeDatabase, Message: err.Error()})
		}
		if formatter.IsJSON() {
			return formatter.Success(ShowResult{GraphEntry: graphEntry(rec), Graph: g})
		}
		fmt.Fprintf(formatter.Writer, "%s (%s)\n", rec.Name, rec.ID)
		for i, c := range g.ControlNames {
			offset, n := g.ControlSpan(i)
			fmt.Fprintf(formatter.Writer, "  %s: %v\n", c.Name, g.Controls[offset:offset+n])
		}
		wire.Dump(formatter.Writer, g)
		return nil
	}

	graphs, err := st.ListGraphs(ctx, opts.Name)
	if err != nil {
		return fail(formatter, ExitFailure, &CLIError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	sends, err := st.ListSends(ctx, opts.Session)
	if err != nil {
		return fail(formatter, ExitFailure, &CLIError{Code: ErrCodeDatabase, Message: err.Error()})
	}

	result := HistoryResult{
		Graphs: make([]GraphEntry, 0, len(graphs)),
		Sends:  make([]SendEntry, 0, len(sends)),
	}
	for _, rec := range graphs {
		result.Graphs = append(result.Graphs, graphEntry(rec))
	}
	for _, s := range sends {
		result.Sends = append(result.Sends, SendEntry{
			Seq:        s.Seq,
			Session:    s.SessionID,
			SessionSeq: s.SessionSeq,
			Message:    s.Type.String(),
			GraphID:    s.GraphID,
			Bytes:      s.Bytes,
		})
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	outputHistoryText(formatter, result)
	return nil
}

func graphEntry(rec store.GraphRecord) GraphEntry {
	return GraphEntry{
		Seq:        rec.Seq,
		ID:         rec.ID,
		Name:       rec.Name,
		Constants:  rec.Constants,
		Controls:   rec.Controls,
		Operations: rec.Operations,
		Bytes:      len(rec.Wire),
		IRVersion:  rec.IRVersion,
	}
}

func outputHistoryText(formatter *OutputFormatter, result HistoryResult) {
	fmt.Fprintf(formatter.Writer, "Graphs (%d):\n", len(result.Graphs))
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	for _, g := range result.Graphs {
		fmt.Fprintf(tw, "  %d\t%s\t%d op(s)\t%d bytes\t%s\n", g.Seq, g.Name, g.Operations, g.Bytes, short(g.ID))
	}
	tw.Flush()

	fmt.Fprintf(formatter.Writer, "\nSends (%d):\n", len(result.Sends))
	tw = tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	for _, s := range result.Sends {
		fmt.Fprintf(tw, "  %d\t%s#%d\t%s\t%d bytes\t%s\n", s.Seq, s.Session, s.SessionSeq, s.Message, s.Bytes, short(s.GraphID))
	}
	tw.Flush()
}

// short abbreviates a graph ID for tables.
func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
