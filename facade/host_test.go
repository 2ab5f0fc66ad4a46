package facade_test

import (
	"bytes"
	"errors"
	"syscall"
	"testing"

	"github.com/momentics/hioload-sock/api"
	"github.com/momentics/hioload-sock/control"
	"github.com/momentics/hioload-sock/facade"
	"github.com/momentics/hioload-sock/fake"
)

func newHost(t *testing.T, cfg control.Config, senders ...*fake.Sender) *facade.Host {
	t.Helper()
	i := 0
	h := facade.NewHost(control.NewConfigStore(cfg), facade.WithDialer(func(string, int) (api.RawConn, error) {
		if i >= len(senders) {
			return nil, api.WrapError(api.ErrCodeSocketConnect, "connect", syscall.ECONNREFUSED)
		}
		s := senders[i]
		i++
		return s, nil
	}))
	t.Cleanup(func() { _ = h.Shutdown() })
	return h
}

func TestHost_ReadBlockPassesArgsAndResults(t *testing.T) {
	h := newHost(t, control.DefaultConfig())
	id := h.NewBuffer()
	if err := h.Push(id, []byte{0x00, 0x05, 'h', 'e', 'l'}); err != nil {
		t.Fatal(err)
	}

	var gotArgs []any
	cont := func(payload []byte, n int, args ...any) []any {
		gotArgs = args
		return []any{string(payload), n}
	}
	if _, ok, err := h.ReadBlock(id, cont, "session", 7); ok || err != nil {
		t.Fatalf("dispatched a partial frame: ok=%v err=%v", ok, err)
	}
	_ = h.Push(id, []byte("lo"))
	res, ok, err := h.ReadBlock(id, cont, "session", 7)
	if !ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if res[0] != "hello" || res[1] != 5 {
		t.Errorf("results %v", res)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "session" || gotArgs[1] != 7 {
		t.Errorf("extra args %v", gotArgs)
	}
}

func TestHost_ContinuationMayDeleteItsBuffer(t *testing.T) {
	h := newHost(t, control.DefaultConfig())
	id := h.NewBuffer()
	_ = h.Push(id, []byte{0x00, 0x03, 'b', 'y', 'e', 0x00, 0x01, 'x'})

	res, ok, err := h.ReadBlock(id, func(p []byte, n int, _ ...any) []any {
		h.DeleteBuffer(id)
		return []any{string(p)}
	})
	if !ok || err != nil || res[0] != "bye" {
		t.Fatalf("res=%v ok=%v err=%v", res, ok, err)
	}
	if _, _, err := h.ReadBlock(id, func([]byte, int, ...any) []any { return nil }); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("buffer survived delete: %v", err)
	}
}

func TestHost_ReadAndReadLine(t *testing.T) {
	h := newHost(t, control.DefaultConfig())
	id := h.NewBuffer()
	_ = h.Push(id, []byte("foo"))
	_ = h.Push(id, []byte("bar\nxyz"))

	line, ok, err := h.ReadLine(id, nil)
	if err != nil || !ok || string(line) != "foobar" {
		t.Fatalf("line %q ok=%v err=%v", line, ok, err)
	}
	if _, ok, _ := h.Read(id, 4); ok {
		t.Fatal("read past buffered data")
	}
	p, ok, _ := h.Read(id, 3)
	if !ok || string(p) != "xyz" {
		t.Errorf("got %q ok=%v", p, ok)
	}
}

func TestHost_BufferUsesConfiguredHeaderWidth(t *testing.T) {
	store := control.NewConfigStore(control.DefaultConfig())
	h := facade.NewHost(store)
	defer h.Shutdown()

	cfg := control.DefaultConfig()
	cfg.HeaderWidth = 4
	if err := store.Set(cfg); err != nil {
		t.Fatal(err)
	}
	id := h.NewBuffer()
	_ = h.Push(id, []byte{0, 0, 0, 2, 'o', 'k'})
	res, ok, _ := h.ReadBlock(id, func(p []byte, n int, _ ...any) []any { return []any{string(p)} })
	if !ok || res[0] != "ok" {
		t.Errorf("res=%v ok=%v", res, ok)
	}
}

func TestHost_UnknownHandles(t *testing.T) {
	h := newHost(t, control.DefaultConfig())
	if err := h.Push(42, []byte("x")); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("push: %v", err)
	}
	if err := h.Write(42, []byte("x")); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("write: %v", err)
	}
	if err := h.Close(42); api.CodeOf(err) != api.ErrCodeNotFound {
		t.Errorf("close: %v", err)
	}

	id := h.NewBuffer()
	h.DeleteBuffer(id)
	h.DeleteBuffer(id)
	if _, _, err := h.Read(id, 1); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("read after delete: %v", err)
	}
}

func TestHost_SocketWrites(t *testing.T) {
	s := fake.NewSender(fake.Step{Err: syscall.EINTR})
	h := newHost(t, control.DefaultConfig(), s)

	fd, err := h.Open("127.0.0.1", 9000)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.WriteBlock(fd, 2, []byte("hi")); err != nil {
		t.Fatal(err)
	}
	if err := h.Write(fd, []byte("raw")); err != nil {
		t.Fatal(err)
	}
	if err := h.WriteBlock(fd, 3, []byte("x")); !errors.Is(err, api.ErrInvalidHeaderWidth) {
		t.Errorf("expected ErrInvalidHeaderWidth, got %v", err)
	}
	if !bytes.Equal(s.Sent(), []byte{0x00, 0x02, 'h', 'i', 'r', 'a', 'w'}) {
		t.Errorf("wire bytes % x", s.Sent())
	}
	if err := h.Close(fd); err != nil || !s.Closed() {
		t.Errorf("close: err=%v closed=%v", err, s.Closed())
	}
	if _, err := h.Open("127.0.0.1", 9000); api.CodeOf(err) != api.ErrCodeSocketConnect {
		t.Errorf("expected connect failure, got %v", err)
	}
}

func TestHost_ShutdownClosesEverything(t *testing.T) {
	a, b := fake.NewSender(), fake.NewSender()
	h := newHost(t, control.DefaultConfig(), a, b)
	if _, err := h.Open("10.0.0.1", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Open("10.0.0.2", 2); err != nil {
		t.Fatal(err)
	}
	id := h.NewBuffer()
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if !a.Closed() || !b.Closed() {
		t.Error("sockets left open")
	}
	if err := h.Push(id, []byte("x")); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("buffer survived shutdown: %v", err)
	}
}
