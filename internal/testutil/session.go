package testutil

// FixedSessionGenerator returns the same session ID every time.
//
// Commands that start several engine sessions in one test then produce
// byte-identical output and send logs.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for
// concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id. An empty id
// becomes "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session ID.
//
// Implements engine.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
