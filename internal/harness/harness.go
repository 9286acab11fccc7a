package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/minicollider/internal/dag"
	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/store"
	"github.com/roach88/minicollider/internal/wire"
)

// Harness runs scenarios against a private patch library.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run traces the scenario's patch and checks the result.
//
// Each scenario runs against a fresh in-memory patch library for
// isolation. A patch that fails to load or trace is not an error here: it
// is recorded in Result.Err for error assertions. Run returns an error
// only when the scenario could not be carried out at all.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()
	result.Patch = scenario.Patch
	if result.Patch == "" {
		result.Patch = scenario.Name
	}

	if err := h.trace(scenario, result); err != nil {
		result.Err = err
		if !scenario.expectsError() {
			result.AddError(fmt.Sprintf("patch failed: %v", err))
		}
		h.logger.Debug("patch failed", "scenario", scenario.Name, "error", err)
	} else {
		for _, problem := range result.Graph.Validate() {
			result.AddError(fmt.Sprintf("invalid graph: %s", problem.Error()))
		}
		h.checkDecode(result)
		if err := h.checkLibrary(ctx, result); err != nil {
			return nil, err
		}
		h.logger.Debug("patch traced", "scenario", scenario.Name, "id", result.ID, "bytes", len(result.Wire))
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// trace loads, traces and encodes the patch into result.
func (h *Harness) trace(scenario *Scenario, result *Result) error {
	p, err := scenario.open()
	if err != nil {
		return err
	}
	result.Patch = p.Name

	g, err := dag.Build(p)
	if err != nil {
		return err
	}
	encoded, err := wire.Encode(g)
	if err != nil {
		return err
	}

	result.Graph = g
	result.Wire = encoded
	result.ID = ir.GraphID(g, encoded)
	return nil
}

// checkDecode verifies that the encoding decodes to a graph that encodes
// to the same bytes.
func (h *Harness) checkDecode(result *Result) {
	decoded, err := wire.Decode(result.Wire)
	if err != nil {
		result.AddError(fmt.Sprintf("encoding does not decode: %v", err))
		return
	}
	again, err := wire.Encode(decoded)
	if err != nil {
		result.AddError(fmt.Sprintf("decoded graph does not encode: %v", err))
		return
	}
	if !bytes.Equal(again, result.Wire) {
		result.AddError("decoded graph encodes differently")
	}
}

// checkLibrary records the graph and verifies it reads back with the same
// ID, bytes, control directory and parameter names.
func (h *Harness) checkLibrary(ctx context.Context, result *Result) error {
	g := result.Graph
	id, err := h.store.WriteGraph(ctx, result.Patch, g, result.Wire)
	if err != nil {
		return fmt.Errorf("failed to record graph: %w", err)
	}
	if id != result.ID {
		result.AddError(fmt.Sprintf("library recorded graph as %s, want %s", id, result.ID))
	}

	back, rec, err := h.store.ReadGraph(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to read graph back: %w", err)
	}
	if !bytes.Equal(rec.Wire, result.Wire) {
		result.AddError("library returned different bytes")
	}
	if !slices.Equal(back.ControlNames, g.ControlNames) {
		result.AddError(fmt.Sprintf("library returned controls %v, want %v", back.ControlNames, g.ControlNames))
	}
	for i, op := range g.Ops {
		if i < len(back.Ops) && back.Ops[i].Name != op.Name {
			result.AddError(fmt.Sprintf("library returned name %q for operation %d, want %q", back.Ops[i].Name, i, op.Name))
		}
	}
	return nil
}
