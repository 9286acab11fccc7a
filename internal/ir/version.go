package ir

// Version constants for the graph model and tooling.
const (
	// IRVersion is the graph model version recorded alongside stored graphs.
	// The wire format itself carries no version field.
	IRVersion = "1"

	// ToolVersion is the mc1 tool version.
	ToolVersion = "0.1.0"
)
