// Package tarantool implements a client for Tarantool's binary IPROTO
// protocol: a framed MessagePack wire codec, a CHAP-SHA1 handshake, a
// multiplexed request/response dispatcher, and a lazily populated schema
// cache that resolves space and index names to their numeric ids.
package tarantool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oleggator/go-tarantool/internal/config"
	"github.com/oleggator/go-tarantool/internal/iproto"
	"github.com/oleggator/go-tarantool/internal/wire"
)

// Connection is a single authenticated connection to a Tarantool instance.
// It owns exactly one background reader goroutine that demultiplexes
// replies onto their originating caller by sync id; Submit may be called
// concurrently from any number of goroutines.
type Connection struct {
	conn   net.Conn
	logger *slog.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration

	nextSync atomic.Uint64

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[uint64]chan pendingResult

	closeOnce sync.Once
	closed    chan struct{}
	fatalErr  atomic.Pointer[error]

	metrics metrics

	schemaMu sync.RWMutex
	schema   *Schema

	keepaliveStop chan struct{}
	keepaliveDone chan struct{}
}

type pendingResult struct {
	header wire.Header
	body   map[iproto.Key]any
	err    error
}

// Dial opens a TCP connection to addr, performs the IPROTO greeting
// handshake, authenticates if credentials are configured, and starts the
// background reader and keep-alive loop. The returned Connection is ready
// to accept Submit calls.
func Dial(ctx context.Context, addr string, opts ...DialOption) (*Connection, error) {
	options := defaultDialOptions()
	for _, opt := range opts {
		opt(options)
	}

	dialer := net.Dialer{Timeout: options.connectTimeout}
	if options.dnsTimeout > 0 {
		if host, port, splitErr := net.SplitHostPort(addr); splitErr == nil && net.ParseIP(host) == nil {
			resolveCtx, cancel := context.WithTimeout(ctx, options.dnsTimeout)
			ips, resolveErr := net.DefaultResolver.LookupHost(resolveCtx, host)
			cancel()
			if resolveErr != nil {
				return nil, fmt.Errorf("tarantool: resolving %s: %w", host, resolveErr)
			}
			addr = net.JoinHostPort(ips[0], port)
		}
	}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tarantool: dial %s: %w", addr, err)
	}

	c := &Connection{
		conn:         rawConn,
		logger:       options.logger,
		readTimeout:  options.readTimeout,
		writeTimeout: options.writeTimeout,
		pending:      make(map[uint64]chan pendingResult),
		closed:       make(chan struct{}),
		schema:       newSchema(),
	}

	if err := c.handshake(options.username, options.password); err != nil {
		rawConn.Close()
		return nil, err
	}

	go c.readLoop()

	if c.readTimeout > 0 {
		c.keepaliveStop = make(chan struct{})
		c.keepaliveDone = make(chan struct{})
		go c.keepaliveLoop(c.readTimeout / 3)
	}

	return c, nil
}

// FromConfig dials using an already-loaded config.Config.
func FromConfig(ctx context.Context, cfg *config.Config) (*Connection, error) {
	return Dial(ctx, cfg.Address, WithConfig(cfg))
}

func (c *Connection) handshake(username, password string) error {
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	greeting, err := wire.ReadGreeting(c.conn)
	c.conn.SetReadDeadline(time.Time{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	c.logger.Debug("received greeting", "version", greeting.Version)

	if username == "" || (username == "guest" && password == "") {
		return nil
	}

	scramble := wire.Scramble(greeting.Salt, password)
	syncID := c.nextSync.Add(1)
	frame, err := wire.EncodeFrame(iproto.Auth, syncID, map[iproto.Key]any{
		iproto.KeyUsername: username,
		iproto.KeyTuple:    []any{"chap-sha1", scramble[:]},
	})
	if err != nil {
		return fmt.Errorf("%w: encoding auth request: %v", ErrHandshakeFailed, err)
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("%w: writing auth request: %v", ErrHandshakeFailed, err)
	}

	header, body, err := wire.ReadFrame(c.conn)
	if err != nil {
		return fmt.Errorf("%w: reading auth response: %v", ErrHandshakeFailed, err)
	}
	if header.Code.IsError() {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, serverErrorFromBody(header.Code, body))
	}
	return nil
}

// Submit sends a request with the given command code and body, and blocks
// until a correlated reply arrives, the connection's read_timeout elapses,
// or ctx is cancelled. It may be called from any number of goroutines
// concurrently.
func (c *Connection) Submit(ctx context.Context, code iproto.Code, body map[iproto.Key]any) (map[iproto.Key]any, error) {
	select {
	case <-c.closed:
		return nil, fmt.Errorf("%w", ErrConnectionClosed)
	default:
	}

	syncID := c.nextSync.Add(1)
	rc := make(chan pendingResult, 1)

	c.pendingMu.Lock()
	c.pending[syncID] = rc
	c.pendingMu.Unlock()

	c.metrics.submitted.Add(1)

	cleanup := func() {
		c.pendingMu.Lock()
		delete(c.pending, syncID)
		c.pendingMu.Unlock()
	}

	frame, err := wire.EncodeFrame(code, syncID, body)
	if err != nil {
		cleanup()
		go c.fail(fmt.Errorf("%w: encoding request: %v", ErrWire, err))
		return nil, fmt.Errorf("%w: encoding request: %v", ErrWire, err)
	}

	if err := c.writeFrame(frame); err != nil {
		cleanup()
		c.metrics.failed.Add(1)
		return nil, err
	}

	var timeoutCh <-chan time.Time
	var timer *time.Timer
	if c.readTimeout > 0 {
		timer = time.NewTimer(c.readTimeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case res := <-rc:
		if res.err != nil {
			c.metrics.failed.Add(1)
			return nil, res.err
		}
		c.metrics.succeeded.Add(1)
		return res.body, nil
	case <-timeoutCh:
		cleanup()
		c.metrics.timedOut.Add(1)
		return nil, fmt.Errorf("%w (sync=%d)", ErrTimeout, syncID)
	case <-ctx.Done():
		cleanup()
		return nil, ctx.Err()
	case <-c.closed:
		cleanup()
		return nil, c.fatalOrClosed()
	}
}

func (c *Connection) writeFrame(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	n, err := c.conn.Write(frame)
	c.metrics.bytesSent.Add(uint64(n))
	if err != nil {
		go c.fail(fmt.Errorf("%w: %v", ErrWire, err))
		return fmt.Errorf("%w: %v", ErrWire, err)
	}
	return nil
}

// countingReader tallies bytes pulled through it into an atomic counter, so
// the dispatcher can report bytes read without wire.ReadFrame needing to
// know anything about metrics.
type countingReader struct {
	r io.Reader
	n *atomic.Uint64
}

func (cr countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n.Add(uint64(n))
	return n, err
}

// readLoop is the connection's single reader: it owns the socket's read
// side for the lifetime of the connection. It must never be cancelled by a
// request-level timeout.
func (c *Connection) readLoop() {
	r := countingReader{r: c.conn, n: &c.metrics.bytesRead}
	for {
		header, body, err := wire.ReadFrame(r)
		if err != nil {
			c.fail(fmt.Errorf("%w: %v", ErrWire, err))
			return
		}

		var resErr error
		if header.Code.IsError() {
			resErr = serverErrorFromBody(header.Code, body)
		}

		c.pendingMu.Lock()
		rc, ok := c.pending[header.Sync]
		if ok {
			delete(c.pending, header.Sync)
		}
		c.pendingMu.Unlock()

		if !ok {
			c.logger.Debug("dropping response for unknown sync", "sync", header.Sync)
			continue
		}
		rc <- pendingResult{header: header, body: body, err: resErr}
		close(rc)
	}
}

// fail marks the connection fatally broken exactly once, closes the
// socket, and fails every pending request with err.
func (c *Connection) fail(err error) {
	c.closeOnce.Do(func() {
		c.fatalErr.Store(&err)
		close(c.closed)
		c.conn.Close()

		if c.keepaliveStop != nil {
			close(c.keepaliveStop)
			<-c.keepaliveDone
		}

		c.pendingMu.Lock()
		pending := c.pending
		c.pending = make(map[uint64]chan pendingResult)
		c.pendingMu.Unlock()

		for _, rc := range pending {
			rc <- pendingResult{err: err}
			close(rc)
		}

		c.logger.Warn("connection closed", "error", err)
	})
}

// Close closes the connection and fails every pending request with
// ErrConnectionClosed.
func (c *Connection) Close() error {
	c.fail(fmt.Errorf("%w", ErrConnectionClosed))
	return nil
}

// Alive reports whether the connection is still open.
func (c *Connection) Alive() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

// Metrics returns a snapshot of the connection's request counters.
func (c *Connection) Metrics() Metrics {
	return c.metrics.snapshot()
}

func (c *Connection) fatalOrClosed() error {
	if p := c.fatalErr.Load(); p != nil {
		return *p
	}
	return fmt.Errorf("%w", ErrConnectionClosed)
}

func serverErrorFromBody(code iproto.Code, body map[iproto.Key]any) *ServerError {
	msg := ""
	if v, ok := body[iproto.KeyError]; ok {
		if s, ok := v.(string); ok {
			msg = s
		}
	}
	return &ServerError{Code: uint32(code &^ iproto.ErrorFlag), Message: msg}
}
