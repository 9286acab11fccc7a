package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MessageType is the u16 that opens every engine datagram.
type MessageType uint16

const (
	// Quit asks the engine to exit. It has no payload.
	Quit MessageType = 0
	// Compile carries an encoded graph for the engine to load.
	Compile MessageType = 1
)

func (t MessageType) String() string {
	switch t {
	case Quit:
		return "quit"
	case Compile:
		return "compile"
	}
	return fmt.Sprintf("MessageType(%d)", uint16(t))
}

// Message is one engine datagram.
type Message struct {
	Type    MessageType
	Payload []byte
}

// QuitMessage returns the message that stops the engine.
func QuitMessage() Message { return Message{Type: Quit} }

// CompileMessage returns the message that loads payload, an encoded graph.
func CompileMessage(payload []byte) Message {
	return Message{Type: Compile, Payload: payload}
}

// ErrShortFrame is returned by ParseFrame for datagrams under two bytes.
var ErrShortFrame = errors.New("wire: frame shorter than message type")

// Frame returns the datagram bytes for m.
func Frame(m Message) []byte {
	out := make([]byte, 0, 2+len(m.Payload))
	out = binary.LittleEndian.AppendUint16(out, uint16(m.Type))
	return append(out, m.Payload...)
}

// ParseFrame splits a datagram into its type and payload. The payload
// aliases data.
func ParseFrame(data []byte) (Message, error) {
	if len(data) < 2 {
		return Message{}, ErrShortFrame
	}
	m := Message{Type: MessageType(binary.LittleEndian.Uint16(data))}
	if len(data) > 2 {
		m.Payload = data[2:]
	}
	return m, nil
}
