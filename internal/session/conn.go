// File: internal/session/conn.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Conn binds a socket to its accumulator and framing layer.

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-sock/api"
	"github.com/momentics/hioload-sock/control"
	"github.com/momentics/hioload-sock/core/buffer"
	"github.com/momentics/hioload-sock/core/framing"
	"github.com/momentics/hioload-sock/internal/transport"
	"github.com/momentics/hioload-sock/pool"
	"github.com/momentics/hioload-sock/reactor"
)

// Handler consumes one inbound block payload.
type Handler func(payload []byte) error

// Conn is a single framed connection. The read side (Fill, Push, Drain, Recv,
// ReadExact, ReadUntil and Serve) belongs to one goroutine. Send and SendRaw
// touch only the writer, the socket and atomic counters, so one other
// goroutine may write while Serve runs. Concurrent writers must serialize
// among themselves.
type Conn struct {
	id      string
	sock    api.RawConn
	cfg     control.Config
	acc     *buffer.Accumulator
	reader  *framing.Reader
	writer  *framing.Writer
	inbox   *queue.Queue
	chunks  *pool.BytePool
	metrics *control.MetricsRegistry
	log     zerolog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the connection logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Conn) { c.log = l }
}

// WithMetrics sets the registry that receives traffic counters.
func WithMetrics(m *control.MetricsRegistry) Option {
	return func(c *Conn) { c.metrics = m }
}

// WithChunkPool shares a read chunk pool between connections.
func WithChunkPool(p *pool.BytePool) Option {
	return func(c *Conn) { c.chunks = p }
}

// Dial connects to ip:port and wraps the socket in a Conn.
func Dial(cfg control.Config, ip string, port int, opts ...Option) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	sock, err := transport.Dial(ip, port)
	if err != nil {
		return nil, err
	}
	return New(sock, cfg, opts...), nil
}

// New wraps an already connected socket. cfg is assumed valid.
func New(sock api.RawConn, cfg control.Config, opts ...Option) *Conn {
	c := &Conn{
		id:    newID(),
		sock:  sock,
		cfg:   cfg,
		acc:   buffer.New(),
		inbox: queue.New(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chunks == nil {
		c.chunks = pool.NewBytePool(cfg.ReadChunk)
	}
	if c.metrics == nil {
		c.metrics = control.NewMetricsRegistry()
	}
	c.log = c.log.With().Str("conn", c.id).Logger()
	c.reader = framing.NewReader(c.acc,
		framing.WithHeaderWidth(cfg.HeaderWidth),
		framing.WithMaxPayload(cfg.MaxPayload))
	c.writer = framing.NewWriter(sock, framing.WithLogger(c.log))
	c.log.Debug().Uint64("fd", uint64(sock.RawFD())).Int("header", cfg.HeaderWidth).Msg("connection opened")
	return c
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// Metrics returns the registry receiving this connection's counters.
func (c *Conn) Metrics() *control.MetricsRegistry { return c.metrics }

// Buffered returns the number of inbound bytes not yet framed.
func (c *Conn) Buffered() int { return c.acc.Len() }

// Pending returns the number of decoded blocks waiting in Recv.
func (c *Conn) Pending() int { return c.inbox.Length() }

// Fill performs one transport read and appends the bytes to the
// accumulator. It returns the byte count and the transport error, io.EOF
// once the peer has closed.
func (c *Conn) Fill() (int, error) {
	if c.closed.Load() {
		return 0, api.ErrSocketClosed
	}
	chunk := c.chunks.GetBuffer()
	defer c.chunks.PutBuffer(chunk)

	n, err := c.sock.Read(chunk)
	if n > 0 {
		c.acc.Append(chunk[:n])
		c.metrics.Add(control.MetricBytesIn, int64(n))
	}
	return n, err
}

// Push appends bytes received by an external reader.
func (c *Conn) Push(p []byte) error {
	if c.closed.Load() {
		return api.ErrSocketClosed
	}
	c.acc.Append(p)
	c.metrics.Add(control.MetricBytesIn, int64(len(p)))
	return nil
}

// Drain decodes every complete block currently buffered and queues the
// payloads for Recv. It returns the number of blocks queued.
func (c *Conn) Drain() (int, error) {
	if c.closed.Load() {
		return 0, api.ErrSocketClosed
	}
	count := 0
	for {
		payload, ok, err := c.reader.NextBlock()
		if err != nil {
			c.metrics.Add(control.MetricErrors, 1)
			c.log.Warn().Err(err).Int("buffered", c.acc.Len()).Msg("inbound frame rejected")
			return count, err
		}
		if !ok {
			return count, nil
		}
		c.inbox.Add(payload)
		c.metrics.Add(control.MetricFramesIn, 1)
		count++
	}
}

// Recv pops the oldest decoded block.
func (c *Conn) Recv() ([]byte, bool) {
	if c.inbox.Length() == 0 {
		return nil, false
	}
	return c.inbox.Remove().([]byte), true
}

// ReadExact consumes exactly n buffered bytes.
func (c *Conn) ReadExact(n int) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}
	return c.reader.ReadExact(n)
}

// ReadUntil consumes bytes up to sep, or up to the configured separator
// when sep is nil.
func (c *Conn) ReadUntil(sep []byte) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}
	if sep == nil {
		sep = []byte(c.cfg.Separator)
	}
	return c.reader.ReadUntil(sep)
}

// Send writes payload as one block using the configured header width.
func (c *Conn) Send(payload []byte) error {
	if c.closed.Load() {
		return api.ErrSocketClosed
	}
	if err := c.writer.WriteBlock(c.cfg.HeaderWidth, payload); err != nil {
		c.metrics.Add(control.MetricErrors, 1)
		return err
	}
	c.metrics.Add(control.MetricFramesOut, 1)
	c.metrics.Add(control.MetricBytesOut, int64(c.cfg.HeaderWidth+len(payload)))
	return nil
}

// SendRaw writes payload without framing.
func (c *Conn) SendRaw(payload []byte) error {
	if c.closed.Load() {
		return api.ErrSocketClosed
	}
	if err := c.writer.WriteRaw(payload); err != nil {
		c.metrics.Add(control.MetricErrors, 1)
		return err
	}
	c.metrics.Add(control.MetricBytesOut, int64(len(payload)))
	return nil
}

// Serve runs the read loop until ctx is done, the peer closes, the handler
// fails or the transport fails. Every complete block is passed to handler
// in arrival order. A clean peer close returns nil.
func (c *Conn) Serve(ctx context.Context, handler Handler) error {
	r, err := reactor.NewReactor()
	if err != nil {
		return err
	}
	defer r.Close()

	fd := c.sock.RawFD()
	if err := r.Register(fd); err != nil {
		return err
	}
	defer r.Unregister(fd)

	events := make([]reactor.Event, 1)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Wait(events, c.cfg.PollInterval)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}

		_, rerr := c.Fill()
		if _, err := c.Drain(); err != nil {
			return err
		}
		if err := c.deliver(handler); err != nil {
			return err
		}
		switch {
		case rerr == nil, api.IsTransient(rerr):
		case errors.Is(rerr, io.EOF):
			c.log.Debug().Int("buffered", c.acc.Len()).Msg("peer closed")
			return nil
		default:
			c.metrics.Add(control.MetricErrors, 1)
			return api.WrapError(api.ErrCodeTransport, "read", rerr)
		}
	}
}

func (c *Conn) deliver(handler Handler) error {
	for {
		payload, ok := c.Recv()
		if !ok {
			return nil
		}
		if err := handler(payload); err != nil {
			return err
		}
	}
}

// Close releases the accumulator and closes the socket. Only the first
// call has an effect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.acc.Release()
		c.closeErr = c.sock.Close()
		c.log.Debug().Msg("connection closed")
	})
	return c.closeErr
}
