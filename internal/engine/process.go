package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/roach88/minicollider/internal/ctxlog"
	"github.com/roach88/minicollider/internal/ir"
	"github.com/roach88/minicollider/internal/store"
	"github.com/roach88/minicollider/internal/wire"
)

// MaxDatagram is the size of the engine's receive buffer. A longer
// datagram would be truncated by the engine and then fail to parse.
const MaxDatagram = 1024

// DefaultHost is where the engine listens.
const DefaultHost = "localhost"

// stopTimeout is how long Stop waits after SIGTERM before killing.
const stopTimeout = 5 * time.Second

// Config locates the engine's sources and build, and its UDP port.
type Config struct {
	Port     int
	Host     string
	Source   string
	BuildDir string
	Preset   string
	Binary   string
}

// Runner runs a command to completion in dir.
// The default runner uses os/exec; tests substitute a recorder.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// SendLog records sends. Implemented by *store.Store.
type SendLog interface {
	WriteSend(ctx context.Context, send store.Send) error
}

type execRunner struct {
	stdout, stderr io.Writer
}

func (r execRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	return cmd.Run()
}

// Option configures a Process.
type Option func(*Process)

// WithRunner replaces the command runner used by Build.
func WithRunner(r Runner) Option {
	return func(p *Process) { p.runner = r }
}

// WithSessionIDs replaces the UUIDv7 session ID generator.
func WithSessionIDs(gen SessionIDGenerator) Option {
	return func(p *Process) { p.sessions = gen }
}

// WithSendLog records every successful send.
func WithSendLog(log SendLog) Option {
	return func(p *Process) { p.sendLog = log }
}

// WithOutput sets where the engine and cmake write their output.
// Defaults to os.Stdout and os.Stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(p *Process) {
		p.stdout, p.stderr = stdout, stderr
	}
}

// Process manages one engine executable and the UDP socket used to talk
// to it.
//
// Thread-safety: all methods are safe for concurrent use.
type Process struct {
	cfg      Config
	runner   Runner
	sessions SessionIDGenerator
	sendLog  SendLog
	clock    *Clock
	stdout   io.Writer
	stderr   io.Writer

	mu      sync.Mutex
	run     *run
	session string
	conn    net.Conn
}

// run is one started engine executable.
type run struct {
	cmd    *exec.Cmd
	exited chan struct{}
	err    error // valid once exited is closed
}

// New creates a Process. Nothing is built, started or dialed until the
// corresponding method is called.
func New(cfg Config, opts ...Option) *Process {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	p := &Process{
		cfg:      cfg,
		sessions: UUIDv7Generator{},
		clock:    NewClock(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = execRunner{stdout: p.stdout, stderr: p.stderr}
	}
	return p
}

// Addr returns the engine's UDP address.
func (p *Process) Addr() string {
	return net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
}

// BuildPath returns the cmake build directory.
func (p *Process) BuildPath() string {
	return filepath.Join(p.cfg.Source, p.cfg.BuildDir)
}

// BinaryPath returns the engine executable's path.
func (p *Process) BinaryPath() string {
	return filepath.Join(p.BuildPath(), p.cfg.Binary)
}

// Build configures the engine with its cmake preset if the build
// directory does not exist yet, then builds it.
func (p *Process) Build(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)

	_, err := os.Stat(p.BuildPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info("configuring engine", "preset", p.cfg.Preset, "dir", p.BuildPath())
		if err := p.runner.Run(ctx, p.cfg.Source, "cmake", "--preset", p.cfg.Preset); err != nil {
			return &ProcessError{Code: ErrCodeConfigure, Message: "cmake --preset " + p.cfg.Preset, Err: err}
		}
	case err != nil:
		return &ProcessError{Code: ErrCodeConfigure, Message: "stat build directory", Err: err}
	default:
		log.Debug("build directory exists, skipping configure", "dir", p.BuildPath())
	}

	log.Info("building engine", "preset", p.cfg.Preset)
	if err := p.runner.Run(ctx, p.cfg.Source, "cmake", "--build", "--preset", p.cfg.Preset); err != nil {
		return &ProcessError{Code: ErrCodeBuild, Message: "cmake --build --preset " + p.cfg.Preset, Err: err}
	}
	return nil
}

// Start launches the engine executable with its port and begins a new
// session. The engine keeps running after ctx ends; use Stop.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.run != nil && !p.run.done() {
		return ErrAlreadyRunning
	}

	cmd := exec.Command(p.BinaryPath(), strconv.Itoa(p.cfg.Port))
	cmd.Dir = p.cfg.Source
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	if err := cmd.Start(); err != nil {
		return &ProcessError{Code: ErrCodeStart, Message: p.BinaryPath(), Err: err}
	}

	r := &run{cmd: cmd, exited: make(chan struct{})}
	go func() {
		r.err = cmd.Wait()
		close(r.exited)
	}()
	p.run = r
	p.newSession()

	ctxlog.FromContext(ctx).Info("engine started",
		"pid", cmd.Process.Pid,
		"port", p.cfg.Port,
		"session", p.session,
	)
	return nil
}

// newSession starts a new send sequence. Callers hold p.mu.
func (p *Process) newSession() {
	p.session = p.sessions.Generate()
	p.clock.Reset()
}

func (r *run) done() bool {
	select {
	case <-r.exited:
		return true
	default:
		return false
	}
}

// Running reports whether a started engine is still running.
func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run != nil && !p.run.done()
}

// Exited returns a channel closed when the started engine exits, or nil
// if none was started.
func (p *Process) Exited() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run == nil {
		return nil
	}
	return p.run.exited
}

// Session returns the current session ID, or "" before the first Start
// or send.
func (p *Process) Session() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Stop terminates the engine if it is still running and waits for it to
// exit, then closes the socket. Calling Stop again is a no-op.
func (p *Process) Stop(ctx context.Context) {
	p.mu.Lock()
	r, conn := p.run, p.conn
	p.run, p.conn = nil, nil
	p.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if r == nil {
		return
	}

	log := ctxlog.FromContext(ctx)
	if r.done() {
		log.Debug("engine already exited", "error", r.err)
		return
	}

	_ = r.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-r.exited:
	case <-time.After(stopTimeout):
		log.Warn("engine ignored SIGTERM, killing", "pid", r.cmd.Process.Pid)
		_ = r.cmd.Process.Kill()
		<-r.exited
	}
	log.Info("engine stopped", "pid", r.cmd.Process.Pid)
}

// Send frames msg and sends it as one datagram, returning the number of
// bytes sent. Sending does not require a started engine: an engine
// started elsewhere on the same port receives it just the same.
func (p *Process) Send(ctx context.Context, msg wire.Message) (int, error) {
	return p.send(ctx, msg, "")
}

// Compile encodes g and sends it as a compile message.
func (p *Process) Compile(ctx context.Context, g *ir.Graph) (int, error) {
	payload, err := wire.Encode(g)
	if err != nil {
		return 0, &ProcessError{Code: ErrCodeSend, Message: "encode graph", Err: err}
	}
	return p.send(ctx, wire.CompileMessage(payload), ir.GraphID(g, payload))
}

// Quit asks the engine to exit.
func (p *Process) Quit(ctx context.Context) (int, error) {
	return p.send(ctx, wire.QuitMessage(), "")
}

func (p *Process) send(ctx context.Context, msg wire.Message, graphID string) (int, error) {
	data := wire.Frame(msg)
	if len(data) > MaxDatagram {
		return 0, &ProcessError{
			Code:    ErrCodeSend,
			Message: fmt.Sprintf("%s message is %d bytes, limit %d", msg.Type, len(data), MaxDatagram),
			Err:     ErrDatagramTooLarge,
		}
	}

	p.mu.Lock()
	if p.session == "" {
		p.newSession()
	}
	session := p.session
	conn, err := p.dial()
	p.mu.Unlock()
	if err != nil {
		return 0, &ProcessError{Code: ErrCodeSend, Message: "dial " + p.Addr(), Session: session, Err: err}
	}

	n, err := conn.Write(data)
	if err != nil {
		return n, &ProcessError{Code: ErrCodeSend, Message: "write to " + p.Addr(), Session: session, Err: err}
	}
	seq := p.clock.Next()

	ctxlog.FromContext(ctx).Debug("datagram sent",
		"type", msg.Type.String(),
		"bytes", n,
		"session", session,
		"seq", seq,
	)

	if p.sendLog != nil {
		err := p.sendLog.WriteSend(ctx, store.Send{
			SessionID:  session,
			SessionSeq: seq,
			Type:       msg.Type,
			GraphID:    graphID,
			Bytes:      n,
		})
		if err != nil {
			return n, fmt.Errorf("record send: %w", err)
		}
	}
	return n, nil
}

// dial returns the socket, connecting on first use. Callers hold p.mu.
func (p *Process) dial() (net.Conn, error) {
	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := net.Dial("udp", p.Addr())
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}
