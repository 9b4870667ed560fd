// Package client sends a single framed RPC call to an NFSv4 server and
// returns the framed reply as an opaque buffer.
//
// A Client owns exactly one TCP connection. Exchange is the one-shot form:
// it dials, performs one call and closes the connection on every path.
package client

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/marmos91/nfs4probe/internal/logger"
	"github.com/marmos91/nfs4probe/internal/protocol/rpc"
	"github.com/marmos91/nfs4probe/pkg/metrics"
)

// Client is a connection handle to one server.
//
// Calls on a Client are serialized; the connection carries one outstanding
// record at a time.
type Client struct {
	conn    net.Conn
	cfg     Config
	metrics metrics.ClientMetrics
	op      string

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Option customizes a Client.
type Option func(*Client)

// WithMetrics records exchanges on m.
func WithMetrics(m metrics.ClientMetrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithOperation sets the label used for metrics and logs, e.g. "READDIR".
func WithOperation(op string) Option {
	return func(c *Client) {
		if op != "" {
			c.op = op
		}
	}
}

func newClient(conn net.Conn, cfg Config, opts []Option) *Client {
	c := &Client{
		conn:    conn,
		cfg:     cfg,
		metrics: metrics.NewNoopClientMetrics(),
		op:      "CALL",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient wraps an established connection. The Client takes ownership of conn.
func NewClient(conn net.Conn, cfg Config, opts ...Option) *Client {
	return newClient(conn, cfg, opts)
}

// Dial connects to cfg.Address().
//
// Returns a *ConnectionError if the connection cannot be established within
// cfg.ConnectTimeout or before ctx is done.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	addr := cfg.Address()
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)

	c := newClient(conn, cfg, opts)
	c.metrics.RecordConnection(err)

	if err != nil {
		logger.Debug("Dial failed", "addr", addr, "error", err)
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	logger.Debug("Connected", "addr", addr, "local", conn.LocalAddr().String())
	return c, nil
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Call sends payload as one record and waits for one reply record.
//
// The payload must be a complete RPC call without record marking. Partial
// replies are never returned: any failure yields a *rpc.TransportError and a
// nil Response. If ctx is done before the exchange completes the connection
// is closed and the error wraps ctx.Err().
func (c *Client) Call(ctx context.Context, payload []byte) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &rpc.TransportError{Op: "call", Err: err}
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.Close()
	})
	defer stop()

	start := time.Now()
	resp, err := c.exchange(ctx, payload)
	duration := time.Since(start)

	if err != nil && ctx.Err() != nil {
		err = &rpc.TransportError{Op: "call", Err: ctx.Err()}
	}
	c.metrics.RecordCall(c.op, duration, err)

	if err != nil {
		logger.DebugCtx(ctx, "Exchange failed", "op", c.op, "duration", duration, "error", err)
		return nil, err
	}

	resp.Duration = duration
	logger.DebugCtx(ctx, "Exchange complete",
		"op", c.op, "sent", resp.BytesSent, "received", resp.BytesReceived, "duration", duration)
	return resp, nil
}

func (c *Client) exchange(ctx context.Context, payload []byte) (*Response, error) {
	if err := c.conn.SetWriteDeadline(deadline(ctx, c.cfg.WriteTimeout)); err != nil {
		return nil, &rpc.TransportError{Op: "set write deadline", Err: err}
	}
	if err := rpc.WriteRecord(c.conn, payload); err != nil {
		return nil, err
	}
	sent := rpc.FragmentHeaderSize + len(payload)
	c.metrics.RecordBytes(metrics.DirectionSent, sent)

	if err := c.conn.SetReadDeadline(deadline(ctx, c.cfg.ReadTimeout)); err != nil {
		return nil, &rpc.TransportError{Op: "set read deadline", Err: err}
	}
	counter := &countingReader{r: c.conn}
	raw, err := rpc.ReadRecord(counter, c.cfg.maxRecordSize())
	c.metrics.RecordBytes(metrics.DirectionReceived, counter.n)
	if err != nil {
		return nil, err
	}

	return &Response{Raw: raw, BytesSent: sent, BytesReceived: counter.n}, nil
}

// deadline returns the earlier of now+timeout and the ctx deadline, or the
// zero time when neither applies.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}

// Close releases the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
		if errors.Is(c.closeErr, net.ErrClosed) {
			c.closeErr = nil
		}
	})
	return c.closeErr
}

// Exchange dials cfg, performs one Call and closes the connection, whatever
// the outcome.
func Exchange(ctx context.Context, cfg Config, payload []byte, opts ...Option) (*Response, error) {
	c, err := Dial(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			logger.Debug("Close failed", "addr", cfg.Address(), "error", cerr)
		}
	}()

	return c.Call(ctx, payload)
}

type countingReader struct {
	r io.Reader
	n int
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += n
	return n, err
}
