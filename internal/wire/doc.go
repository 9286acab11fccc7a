// Package wire converts graphs to and from the engine's binary format and
// frames them as engine messages.
//
// All integers are little-endian. A graph is laid out as:
//
//	u16 constant count, then that many f32
//	u16 control count, then that many f32
//	u16 operation count, then per operation:
//	    u8  kind name length n, then n bytes of kind name
//	    u8  rate tag ('a', 'b' or 'c')
//	    u16 input count, then that many u16 addresses
//
// An address with bit 0x8000 set refers to the constants table; otherwise
// it refers to an earlier operation. The format carries no version field
// and no parameter names.
package wire
