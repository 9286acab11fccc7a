// Package engine manages the external audio engine process and talks to
// it over UDP.
//
// The engine is a separate native program built with cmake. A Process
// builds it from its cmake presets, starts it on a port, sends it framed
// graphs, and stops it:
//
//	p := engine.New(engine.Config{Port: 5555, Source: ".", BuildDir: ".build/default", Preset: "default", Binary: "engine"})
//	if err := p.Build(ctx); err != nil { ... }
//	if err := p.Start(ctx); err != nil { ... }
//	defer p.Stop(ctx)
//	n, err := p.Compile(ctx, graph)
//
// Each datagram is at most MaxDatagram bytes, the size of the engine's
// receive buffer; larger messages are rejected rather than truncated.
// Sends are fire-and-forget: there is no acknowledgement, retry or
// supervision.
//
// Every process gets a session ID (UUIDv7 by default) and stamps each
// send with a per-session logical sequence number from its Clock.
package engine
