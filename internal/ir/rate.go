package ir

import "fmt"

// Rate is a node's update-frequency class. Its value is the ASCII tag
// written to the wire.
type Rate byte

const (
	Audio Rate = 'a'
	Block Rate = 'b'
	Const Rate = 'c'
)

// ParseRate converts a wire tag to a Rate.
func ParseRate(b byte) (Rate, error) {
	r := Rate(b)
	if !r.Valid() {
		return 0, fmt.Errorf("invalid rate tag %q", b)
	}
	return r, nil
}

// Valid reports whether r is one of the three known rates.
func (r Rate) Valid() bool {
	switch r {
	case Audio, Block, Const:
		return true
	}
	return false
}

// Byte returns the wire tag.
func (r Rate) Byte() byte { return byte(r) }

func (r Rate) String() string {
	switch r {
	case Audio:
		return "audio"
	case Block:
		return "block"
	case Const:
		return "const"
	}
	return fmt.Sprintf("Rate(%d)", byte(r))
}

// MarshalText encodes the rate by name for JSON and YAML output.
func (r Rate) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rate %d", byte(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts either the rate name or its single-letter tag.
func (r *Rate) UnmarshalText(text []byte) error {
	switch string(text) {
	case "audio", "a":
		*r = Audio
	case "block", "b":
		*r = Block
	case "const", "c":
		*r = Const
	default:
		return fmt.Errorf("invalid rate %q", text)
	}
	return nil
}
