package testutil

import (
	"net"
	"sync"
	"testing"
	"time"
)

// UDPCapture is a loopback UDP listener that records every datagram it
// receives. It stands in for the engine in tests.
//
// Thread-safety: all methods are safe for concurrent use.
type UDPCapture struct {
	conn    *net.UDPConn
	packets chan []byte
	once    sync.Once
	closing chan struct{}
	done    chan struct{}
}

// NewUDPCapture listens on an ephemeral loopback port. The listener is
// closed when the test ends.
func NewUDPCapture(t testing.TB) *UDPCapture {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	c := &UDPCapture{
		conn:    conn,
		packets: make(chan []byte, 64),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.read()
	t.Cleanup(c.Close)
	return c
}

func (c *UDPCapture) read() {
	defer close(c.done)
	// Larger than the engine's own buffer so oversized sends show up whole.
	buf := make([]byte, 64*1024)
	for {
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		packet := make([]byte, n)
		copy(packet, buf[:n])
		select {
		case c.packets <- packet:
		case <-c.closing:
			return
		}
	}
}

// Port returns the port the capture listens on.
func (c *UDPCapture) Port() int {
	return c.conn.LocalAddr().(*net.UDPAddr).Port
}

// Next waits up to timeout for the next datagram. It fails the test when
// none arrives.
func (c *UDPCapture) Next(t testing.TB, timeout time.Duration) []byte {
	t.Helper()
	select {
	case p := <-c.packets:
		return p
	case <-time.After(timeout):
		t.Fatalf("no datagram received within %v", timeout)
		return nil
	}
}

// Expect waits for n datagrams.
func (c *UDPCapture) Expect(t testing.TB, n int, timeout time.Duration) [][]byte {
	t.Helper()
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, c.Next(t, timeout))
	}
	return out
}

// None asserts that nothing arrives within wait.
func (c *UDPCapture) None(t testing.TB, wait time.Duration) {
	t.Helper()
	select {
	case p := <-c.packets:
		t.Fatalf("unexpected datagram of %d bytes", len(p))
	case <-time.After(wait):
	}
}

// Close stops the listener. It is safe to call more than once.
func (c *UDPCapture) Close() {
	c.once.Do(func() {
		close(c.closing)
		c.conn.Close()
		<-c.done
	})
}
