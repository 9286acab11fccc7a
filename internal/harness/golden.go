package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/minicollider/internal/wire"
)

// hexLine is the number of encoded bytes per snapshot line.
const hexLine = 32

// Snapshot renders a result for golden comparison: the patch name, the
// encoded graph in hex and the engine's dump of it. A patch that failed
// renders as its error.
func Snapshot(result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "patch: %s\n", result.Patch)
	if result.Graph == nil {
		fmt.Fprintf(&buf, "error: %v\n", result.Err)
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "bytes: %d\n", len(result.Wire))
	fmt.Fprint(&buf, "wire:\n")
	for off := 0; off < len(result.Wire); off += hexLine {
		end := min(off+hexLine, len(result.Wire))
		fmt.Fprintf(&buf, "  %x\n", result.Wire[off:end])
	}
	wire.Dump(&buf, result.Graph)
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(result))
}
