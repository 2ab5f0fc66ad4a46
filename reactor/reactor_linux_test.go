//go:build linux

package reactor_test

import (
	"testing"
	"time"

	"github.com/momentics/hioload-sock/reactor"
	"golang.org/x/sys/unix"
)

func TestLinuxReactor_ReadReadiness(t *testing.T) {
	r, err := reactor.NewReactor()
	if err != nil {
		t.Fatalf("new reactor: %v", err)
	}
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	if err := r.Register(uintptr(fds[1])); err != nil {
		t.Fatal(err)
	}
	events := make([]reactor.Event, 4)

	n, err := r.Wait(events, 10*time.Millisecond)
	if err != nil || n != 0 {
		t.Fatalf("expected timeout with no events, n=%d err=%v", n, err)
	}

	if _, err := unix.Write(fds[0], []byte("ping")); err != nil {
		t.Fatal(err)
	}
	n, err = r.Wait(events, time.Second)
	if err != nil || n != 1 {
		t.Fatalf("expected one event, n=%d err=%v", n, err)
	}
	if events[0].Fd != uintptr(fds[1]) || !events[0].Readable {
		t.Errorf("unexpected event %+v", events[0])
	}

	if err := r.Unregister(uintptr(fds[1])); err != nil {
		t.Fatal(err)
	}
	n, _ = r.Wait(events, 10*time.Millisecond)
	if n != 0 {
		t.Errorf("unregistered fd still reported, n=%d", n)
	}
}

func TestLinuxReactor_Hangup(t *testing.T) {
	r, err := reactor.NewReactor()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer unix.Close(fds[1])
	if err := r.Register(uintptr(fds[1])); err != nil {
		t.Fatal(err)
	}
	unix.Close(fds[0])

	events := make([]reactor.Event, 1)
	n, err := r.Wait(events, time.Second)
	if err != nil || n != 1 || !events[0].Hangup {
		t.Fatalf("expected hangup event, n=%d err=%v ev=%+v", n, err, events[0])
	}
}
