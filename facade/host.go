// File: facade/host.go
// Host binding surface for hioload-sock.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Host exposes the socket and buffer primitives through integer handles, the
// shape a scripting runtime binds against: sockets are addressed by their
// descriptor, buffers by an id issued from NewBuffer. The handle tables are
// guarded by a mutex; an individual buffer is not, and must be driven by one
// caller at a time.

package facade

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-sock/api"
	"github.com/momentics/hioload-sock/control"
	"github.com/momentics/hioload-sock/core/buffer"
	"github.com/momentics/hioload-sock/core/framing"
	"github.com/momentics/hioload-sock/internal/transport"
)

// Continuation receives a complete block payload, its length and the extra
// arguments given to ReadBlock, in their original order. Its return values
// are handed back to the ReadBlock caller. payload is only valid during the
// call.
type Continuation func(payload []byte, n int, args ...any) []any

// Dialer opens a connected socket.
type Dialer func(ip string, port int) (api.RawConn, error)

type hostSocket struct {
	conn   api.RawConn
	writer *framing.Writer
}

type hostBuffer struct {
	acc    *buffer.Accumulator
	reader *framing.Reader
}

// Host owns every socket and buffer created through it.
type Host struct {
	mu      sync.Mutex
	store   *control.ConfigStore
	log     zerolog.Logger
	metrics *control.MetricsRegistry
	dial    Dialer
	sockets map[int]*hostSocket
	buffers map[int]*hostBuffer
	nextBuf int
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Host) { h.log = l }
}

// WithDialer replaces the socket dialer.
func WithDialer(d Dialer) Option {
	return func(h *Host) { h.dial = d }
}

// WithMetrics sets the registry that receives traffic counters.
func WithMetrics(m *control.MetricsRegistry) Option {
	return func(h *Host) { h.metrics = m }
}

// NewHost creates a host reading framing settings from store.
func NewHost(store *control.ConfigStore, opts ...Option) *Host {
	h := &Host{
		store:   store,
		log:     zerolog.Nop(),
		metrics: control.NewMetricsRegistry(),
		dial: func(ip string, port int) (api.RawConn, error) {
			return transport.Dial(ip, port)
		},
		sockets: make(map[int]*hostSocket),
		buffers: make(map[int]*hostBuffer),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Metrics returns the host traffic counters.
func (h *Host) Metrics() *control.MetricsRegistry { return h.metrics }

// Open connects to ip:port and returns the socket descriptor.
func (h *Host) Open(ip string, port int) (int, error) {
	conn, err := h.dial(ip, port)
	if err != nil {
		h.log.Warn().Err(err).Str("ip", ip).Int("port", port).Msg("open failed")
		return -1, err
	}
	fd, err := h.Adopt(conn)
	if err != nil {
		_ = conn.Close()
		return -1, err
	}
	h.log.Debug().Int("fd", fd).Str("ip", ip).Int("port", port).Msg("socket opened")
	return fd, nil
}

// Adopt registers an already connected socket and returns its descriptor.
func (h *Host) Adopt(conn api.RawConn) (int, error) {
	fd := int(conn.RawFD())
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.sockets[fd]; dup {
		return -1, fmt.Errorf("adopt fd %d: %w", fd, api.ErrInvalidArgument)
	}
	h.sockets[fd] = &hostSocket{
		conn:   conn,
		writer: framing.NewWriter(conn, framing.WithLogger(h.log.With().Int("fd", fd).Logger())),
	}
	return fd, nil
}

// Close closes the socket fd and forgets it.
func (h *Host) Close(fd int) error {
	h.mu.Lock()
	s, ok := h.sockets[fd]
	delete(h.sockets, fd)
	h.mu.Unlock()
	if !ok {
		return notFound("socket", fd)
	}
	return s.conn.Close()
}

// Write sends payload on fd without framing.
func (h *Host) Write(fd int, payload []byte) error {
	s, err := h.socket(fd)
	if err != nil {
		return err
	}
	if err := s.writer.WriteRaw(payload); err != nil {
		h.metrics.Add(control.MetricErrors, 1)
		return err
	}
	h.metrics.Add(control.MetricBytesOut, int64(len(payload)))
	return nil
}

// WriteBlock sends payload on fd behind a header of the given width.
func (h *Host) WriteBlock(fd int, header int, payload []byte) error {
	s, err := h.socket(fd)
	if err != nil {
		return err
	}
	if err := s.writer.WriteBlock(header, payload); err != nil {
		h.metrics.Add(control.MetricErrors, 1)
		return err
	}
	h.metrics.Add(control.MetricFramesOut, 1)
	h.metrics.Add(control.MetricBytesOut, int64(header+len(payload)))
	return nil
}

// NewBuffer creates an empty accumulator and returns its id. The block
// header width and payload cap are taken from the current configuration.
func (h *Host) NewBuffer() int {
	cfg := h.store.Get()
	acc := buffer.New()
	b := &hostBuffer{
		acc: acc,
		reader: framing.NewReader(acc,
			framing.WithHeaderWidth(cfg.HeaderWidth),
			framing.WithMaxPayload(cfg.MaxPayload)),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextBuf++
	h.buffers[h.nextBuf] = b
	return h.nextBuf
}

// DeleteBuffer releases the buffer id. Unknown ids are ignored, so a
// buffer is released at most once.
func (h *Host) DeleteBuffer(id int) {
	h.mu.Lock()
	b, ok := h.buffers[id]
	delete(h.buffers, id)
	h.mu.Unlock()
	if ok {
		b.acc.Release()
	}
}

// Push appends p to buffer id.
func (h *Host) Push(id int, p []byte) error {
	b, err := h.buffer(id)
	if err != nil {
		return err
	}
	b.acc.Append(p)
	h.metrics.Add(control.MetricBytesIn, int64(len(p)))
	return nil
}

// Read consumes exactly n bytes from buffer id.
func (h *Host) Read(id int, n int) ([]byte, bool, error) {
	b, err := h.buffer(id)
	if err != nil {
		return nil, false, err
	}
	p, ok := b.reader.ReadExact(n)
	return p, ok, nil
}

// ReadLine consumes bytes up to sep from buffer id. A nil sep uses the
// configured separator.
func (h *Host) ReadLine(id int, sep []byte) ([]byte, bool, error) {
	b, err := h.buffer(id)
	if err != nil {
		return nil, false, err
	}
	if sep == nil {
		sep = []byte(h.store.Get().Separator)
	}
	p, ok := b.reader.ReadUntil(sep)
	return p, ok, nil
}

// ReadBlock dispatches the next complete block of buffer id to fn with
// args appended, and returns fn's results.
func (h *Host) ReadBlock(id int, fn Continuation, args ...any) ([]any, bool, error) {
	if fn == nil {
		return nil, false, fmt.Errorf("read block: nil continuation: %w", api.ErrInvalidArgument)
	}
	b, err := h.buffer(id)
	if err != nil {
		return nil, false, err
	}
	res, ok, err := framing.ReadBlock(b.reader, func(payload []byte, n int, extra []any) []any {
		return fn(payload, n, extra...)
	}, args)
	if err != nil {
		h.metrics.Add(control.MetricErrors, 1)
		return nil, false, err
	}
	if ok {
		h.metrics.Add(control.MetricFramesIn, 1)
	}
	return res, ok, nil
}

// Shutdown releases every buffer and closes every socket still registered.
func (h *Host) Shutdown() error {
	h.mu.Lock()
	sockets, buffers := h.sockets, h.buffers
	h.sockets = make(map[int]*hostSocket)
	h.buffers = make(map[int]*hostBuffer)
	h.mu.Unlock()

	for _, b := range buffers {
		b.acc.Release()
	}
	var firstErr error
	for fd, s := range sockets {
		if err := s.conn.Close(); err != nil {
			h.log.Warn().Err(err).Int("fd", fd).Msg("close failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (h *Host) socket(fd int) (*hostSocket, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sockets[fd]
	if !ok {
		return nil, notFound("socket", fd)
	}
	return s, nil
}

func (h *Host) buffer(id int) (*hostBuffer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buffers[id]
	if !ok {
		return nil, notFound("buffer", id)
	}
	return b, nil
}

func notFound(kind string, handle int) error {
	return api.WrapError(api.ErrCodeNotFound, kind, api.ErrNotFound).WithContext("handle", handle)
}
