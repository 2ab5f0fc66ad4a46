// File: core/framing/writer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Outbound framing. A block is sent as one scatter/gather write of header
// and payload. Transient transport signals are retried in place; a write
// that transfers fewer bytes than requested is reported as ErrShortWrite
// instead of aborting the process.

package framing

import (
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-sock/api"
)

// Writer frames and transmits outbound messages over an api.Sender.
type Writer struct {
	out api.Sender
	log zerolog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger attaches a logger for transport failures.
func WithLogger(l zerolog.Logger) WriterOption {
	return func(w *Writer) {
		w.log = l
	}
}

// NewWriter returns a Writer sending through out.
func NewWriter(out api.Sender, opts ...WriterOption) *Writer {
	w := &Writer{out: out, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteBlock sends payload prefixed with a width-byte big-endian length.
// Validation failures are returned before anything is transmitted.
func (w *Writer) WriteBlock(width int, payload []byte) error {
	hdr, err := EncodeHeader(width, len(payload))
	if err != nil {
		return err
	}
	want := len(hdr) + len(payload)
	for {
		n, err := w.out.Writev([][]byte{hdr, payload})
		if err != nil {
			if api.IsTransient(err) {
				continue
			}
			w.log.Error().Err(err).Int("header", width).Int("size", len(payload)).Msg("block write failed")
			return api.WrapError(api.ErrCodeTransport, "write block", err).
				WithContext("size", len(payload))
		}
		if n != want {
			w.log.Error().Int("sent", n).Int("want", want).Msg("short block write")
			return api.WrapError(api.ErrCodeShortWrite, "write block", api.ErrShortWrite).
				WithContext("sent", n).
				WithContext("want", want)
		}
		return nil
	}
}

// WriteRaw sends payload without framing.
func (w *Writer) WriteRaw(payload []byte) error {
	for {
		n, err := w.out.Write(payload)
		if err != nil {
			if api.IsTransient(err) {
				continue
			}
			w.log.Error().Err(err).Int("size", len(payload)).Msg("raw write failed")
			return api.WrapError(api.ErrCodeTransport, "write", err).
				WithContext("size", len(payload))
		}
		if n != len(payload) {
			w.log.Error().Int("sent", n).Int("want", len(payload)).Msg("short raw write")
			return api.WrapError(api.ErrCodeShortWrite, "write", api.ErrShortWrite).
				WithContext("sent", n).
				WithContext("want", len(payload))
		}
		return nil
	}
}
