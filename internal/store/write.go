package store

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/wire"
)

// GraphRecord is one row of the graphs table.
type GraphRecord struct {
	ID         string
	Name       string
	Wire       []byte
	Constants  int
	Controls   int
	Operations int
	Seq        int64
	IRVersion  string
}

// Send is one datagram sent to an engine.
type Send struct {
	// Seq is assigned by the store when the send is first written.
	Seq int64

	SessionID  string
	SessionSeq int64
	Type       wire.MessageType

	// GraphID is empty for messages without a graph.
	GraphID string
	Bytes   int
}

// WriteGraph records g under name and returns its ID. encoded must be
// g's wire encoding. Uses ON CONFLICT(id) DO NOTHING for idempotency:
// writing an already recorded graph keeps the original record and seq.
func (s *Store) WriteGraph(ctx context.Context, name string, g *ir.Graph, encoded []byte) (string, error) {
	id := ir.GraphID(g, encoded)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}
	defer tx.Rollback()

	// WHERE true keeps SQLite from reading ON CONFLICT as a join constraint.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO graphs
		(id, name, wire, constants, controls, operations, seq, ir_version)
		SELECT ?, ?, ?, ?, ?, ?, COALESCE(MAX(seq), 0) + 1, ?
		FROM graphs WHERE true
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		norm.NFC.String(name),
		encoded,
		len(g.Constants),
		len(g.Controls),
		len(g.Ops),
		ir.IRVersion,
	)
	if err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}

	for i, c := range g.ControlNames {
		_, span := g.ControlSpan(i)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO controls (graph_id, position, name, first_slot, slots)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, id, i, norm.NFC.String(c.Name), c.Offset, span)
		if err != nil {
			return "", fmt.Errorf("write graph controls: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}
	return id, nil
}

// WriteSend records a datagram. Uses ON CONFLICT(session_id, session_seq)
// DO NOTHING for idempotency. A non-empty GraphID must name a recorded
// graph (foreign key constraint).
func (s *Store) WriteSend(ctx context.Context, send Send) error {
	var graphID sql.NullString
	if send.GraphID != "" {
		graphID = sql.NullString{String: send.GraphID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sends
		(seq, session_id, session_seq, message_type, graph_id, bytes)
		SELECT COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?
		FROM sends WHERE true
		ON CONFLICT(session_id, session_seq) DO NOTHING
	`,
		send.SessionID,
		send.SessionSeq,
		int(send.Type),
		graphID,
		send.Bytes,
	)
	if err != nil {
		return fmt.Errorf("write send: %w", err)
	}
	return nil
}
