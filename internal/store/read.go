package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/wire"
)

// ReadGraph returns the graph recorded under id, with its control
// directory restored. Returns ErrNotFound for an unknown id.
func (s *Store) ReadGraph(ctx context.Context, id string) (*ir.Graph, GraphRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, wire, constants, controls, operations, seq, ir_version
		FROM graphs
		WHERE id = ?
	`, id)
	rec, err := scanGraph(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, GraphRecord{}, fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, GraphRecord{}, err
	}

	g, err := wire.Decode(rec.Wire)
	if err != nil {
		return nil, rec, fmt.Errorf("decode graph %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, first_slot
		FROM controls
		WHERE graph_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, rec, fmt.Errorf("query controls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c ir.ControlName
		if err := rows.Scan(&c.Name, &c.Offset); err != nil {
			return nil, rec, fmt.Errorf("scan control: %w", err)
		}
		g.ControlNames = append(g.ControlNames, c)
	}
	if err := rows.Err(); err != nil {
		return nil, rec, fmt.Errorf("iterate controls: %w", err)
	}

	// Parameter operations carry their name in memory; restore it.
	j := 0
	for i := range g.Ops {
		if g.Ops[i].Kind == ir.KindParam && j < len(g.ControlNames) {
			g.Ops[i].Name = g.ControlNames[j].Name
			j++
		}
	}
	return g, rec, nil
}

// ListGraphs returns every recorded graph, optionally only those named
// name, ordered by seq.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListGraphs(ctx context.Context, name string) ([]GraphRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, wire, constants, controls, operations, seq, ir_version
		FROM graphs
		WHERE ? = '' OR name = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, name, name)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	graphs := []GraphRecord{}
	for rows.Next() {
		rec, err := scanGraph(rows)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}
	return graphs, nil
}

// ListSends returns recorded sends ordered by seq, optionally only those
// of one session.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListSends(ctx context.Context, sessionID string) ([]Send, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, session_id, session_seq, message_type, graph_id, bytes
		FROM sends
		WHERE ? = '' OR session_id = ?
		ORDER BY seq ASC
	`, sessionID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query sends: %w", err)
	}
	defer rows.Close()

	sends := []Send{}
	for rows.Next() {
		var (
			send    Send
			msgType int
			graphID sql.NullString
		)
		if err := rows.Scan(&send.Seq, &send.SessionID, &send.SessionSeq, &msgType, &graphID, &send.Bytes); err != nil {
			return nil, fmt.Errorf("scan send: %w", err)
		}
		send.Type = wire.MessageType(msgType)
		send.GraphID = graphID.String
		sends = append(sends, send)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sends: %w", err)
	}
	return sends, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGraph(row scanner) (GraphRecord, error) {
	var rec GraphRecord
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Wire,
		&rec.Constants,
		&rec.Controls,
		&rec.Operations,
		&rec.Seq,
		&rec.IRVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan graph: %w", err)
	}
	return rec, nil
}
