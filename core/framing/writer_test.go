package framing_test

import (
	"bytes"
	"errors"
	"syscall"
	"testing"

	"github.com/momentics/hioload-sock/api"
	"github.com/momentics/hioload-sock/core/buffer"
	"github.com/momentics/hioload-sock/core/framing"
	"github.com/momentics/hioload-sock/fake"
)

func TestWriteBlock_TwoByteBoundary(t *testing.T) {
	s := fake.NewSender()
	w := framing.NewWriter(s)

	payload := bytes.Repeat([]byte{0xAB}, 65535)
	if err := w.WriteBlock(2, payload); err != nil {
		t.Fatalf("write 65535 bytes: %v", err)
	}
	sent := s.Sent()
	if len(sent) != 65537 {
		t.Fatalf("expected 65537 bytes on the wire, got %d", len(sent))
	}
	if sent[0] != 0xFF || sent[1] != 0xFF {
		t.Errorf("bad header % x", sent[:2])
	}

	err := w.WriteBlock(2, append(payload, 0x01))
	if !errors.Is(err, api.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if s.Calls() != 1 {
		t.Errorf("oversized payload must be rejected before transmission, calls=%d", s.Calls())
	}
}

func TestWriteBlock_RejectsInvalidWidth(t *testing.T) {
	s := fake.NewSender()
	w := framing.NewWriter(s)
	for _, width := range []int{0, 1, 3, 8} {
		if err := w.WriteBlock(width, []byte("x")); !errors.Is(err, api.ErrInvalidHeaderWidth) {
			t.Errorf("width %d: expected ErrInvalidHeaderWidth, got %v", width, err)
		}
	}
	if s.Calls() != 0 {
		t.Errorf("invalid width must not transmit, calls=%d", s.Calls())
	}
}

func TestWriteBlock_FourByteHeader(t *testing.T) {
	s := fake.NewSender()
	w := framing.NewWriter(s)
	payload := bytes.Repeat([]byte{'z'}, 70000)
	if err := w.WriteBlock(4, payload); err != nil {
		t.Fatal(err)
	}
	sent := s.Sent()
	if !bytes.Equal(sent[:4], []byte{0x00, 0x01, 0x11, 0x70}) {
		t.Errorf("bad header % x", sent[:4])
	}
	if len(sent) != 70004 {
		t.Errorf("expected 70004 bytes, got %d", len(sent))
	}
}

func TestWriteBlock_RetriesTransientErrors(t *testing.T) {
	s := fake.NewSender(
		fake.Step{Err: syscall.EAGAIN},
		fake.Step{Err: syscall.EINTR},
	)
	w := framing.NewWriter(s)
	if err := w.WriteBlock(2, []byte("hi")); err != nil {
		t.Fatalf("transient errors must be retried: %v", err)
	}
	if s.Calls() != 3 {
		t.Errorf("expected 3 attempts, got %d", s.Calls())
	}
	if !bytes.Equal(s.Sent(), []byte{0x00, 0x02, 'h', 'i'}) {
		t.Errorf("unexpected wire bytes % x", s.Sent())
	}
}

func TestWriteBlock_FatalErrorIsNotRetried(t *testing.T) {
	s := fake.NewSender(fake.Step{Err: syscall.EPIPE})
	w := framing.NewWriter(s)
	err := w.WriteBlock(2, []byte("hi"))
	if !errors.Is(err, syscall.EPIPE) || api.CodeOf(err) != api.ErrCodeTransport {
		t.Fatalf("expected transport error wrapping EPIPE, got %v", err)
	}
	if s.Calls() != 1 {
		t.Errorf("fatal error retried, calls=%d", s.Calls())
	}
}

func TestWriteBlock_ShortWriteIsTransportFailure(t *testing.T) {
	s := fake.NewSender(fake.Step{Short: 3})
	w := framing.NewWriter(s)
	err := w.WriteBlock(2, []byte("hello"))
	if !errors.Is(err, api.ErrShortWrite) {
		t.Fatalf("expected ErrShortWrite, got %v", err)
	}
	if api.CodeOf(err) != api.ErrCodeShortWrite {
		t.Errorf("expected ErrCodeShortWrite, got %v", api.CodeOf(err))
	}
	if errors.Is(err, api.ErrPayloadTooLarge) || errors.Is(err, api.ErrInvalidHeaderWidth) {
		t.Error("short write must be distinct from validation errors")
	}
}

func TestWriteRaw(t *testing.T) {
	s := fake.NewSender(fake.Step{Err: syscall.EWOULDBLOCK})
	w := framing.NewWriter(s)
	if err := w.WriteRaw([]byte("GET / HTTP/1.0\r\n\r\n")); err != nil {
		t.Fatal(err)
	}
	if string(s.Sent()) != "GET / HTTP/1.0\r\n\r\n" {
		t.Errorf("unexpected wire bytes %q", s.Sent())
	}

	s = fake.NewSender(fake.Step{Err: syscall.ECONNRESET})
	if err := framing.NewWriter(s).WriteRaw([]byte("x")); !errors.Is(err, syscall.ECONNRESET) {
		t.Errorf("expected ECONNRESET, got %v", err)
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, width := range []int{2, 4} {
		s := fake.NewSender()
		w := framing.NewWriter(s)
		msgs := []string{"alpha", "", "gamma delta"}
		for _, m := range msgs {
			if err := w.WriteBlock(width, []byte(m)); err != nil {
				t.Fatal(err)
			}
		}

		acc := buffer.New()
		r := framing.NewReader(acc, framing.WithHeaderWidth(width))
		// One byte at a time: framing must not depend on chunk boundaries.
		var got []string
		for _, b := range s.Sent() {
			acc.Append([]byte{b})
			for {
				p, ok, err := r.NextBlock()
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					break
				}
				got = append(got, string(p))
			}
		}
		if len(got) != len(msgs) {
			t.Fatalf("width %d: got %d frames, want %d", width, len(got), len(msgs))
		}
		for i := range msgs {
			if got[i] != msgs[i] {
				t.Errorf("width %d frame %d: got %q want %q", width, i, got[i], msgs[i])
			}
		}
	}
}

func TestEncodeDecodeHeader(t *testing.T) {
	hdr, err := framing.EncodeHeader(2, 0x0102)
	if err != nil || !bytes.Equal(hdr, []byte{0x01, 0x02}) {
		t.Fatalf("got % x err=%v", hdr, err)
	}
	n, err := framing.DecodeHeader(4, []byte{0x00, 0x00, 0x01, 0x00})
	if err != nil || n != 256 {
		t.Fatalf("got %d err=%v", n, err)
	}
	if _, err := framing.DecodeHeader(4, []byte{0x00}); err == nil {
		t.Error("expected error for truncated header")
	}
}
