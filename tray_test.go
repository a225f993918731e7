package main

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNormalizeTrayTooltip(t *testing.T) {
	long := strings.Repeat("é", 200)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", defaultTooltip},
		{"blank", "   ", defaultTooltip},
		{"trimmed", "  Battery: 50% (Charging) ", "Battery: 50% (Charging)"},
		{"long", long, strings.Repeat("é", maxTooltipChars)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeTrayTooltip(tt.in); got != tt.want {
				t.Errorf("normalizeTrayTooltip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type fakeLoop struct {
	fakeTray
	name    string
	runErr  error
	hang    bool
	wedged  bool // ignore Stop until release is closed
	stop    chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
	stopped int
}

func newFakeLoop(name string) *fakeLoop {
	return &fakeLoop{name: name, stop: make(chan struct{}), release: make(chan struct{})}
}

func (l *fakeLoop) Name() string { return l.name }

func (l *fakeLoop) Run(ready chan<- error) {
	if !l.hang {
		ready <- l.runErr
		if l.runErr != nil {
			return
		}
	}
	if l.wedged {
		<-l.release
		return
	}
	<-l.stop
}

func (l *fakeLoop) Stop() {
	l.mu.Lock()
	l.stopped++
	l.mu.Unlock()
	l.once.Do(func() { close(l.stop) })
}

func (l *fakeLoop) stopCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

func TestSupervisorStartAndShutdown(t *testing.T) {
	battery, network := newFakeLoop("battery"), newFakeLoop("network")
	s := NewTraySupervisor(battery, network)

	if err := s.Start(time.Second); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
	if battery.stopCount() != 1 || network.stopCount() != 1 {
		t.Errorf("stop counts = %d/%d, want 1/1", battery.stopCount(), network.stopCount())
	}

	s.Shutdown()
	if battery.stopCount() != 1 {
		t.Error("second Shutdown stopped the loops again")
	}
}

func TestSupervisorStartFailureStopsEarlierLoops(t *testing.T) {
	battery, network := newFakeLoop("battery"), newFakeLoop("network")
	boom := errors.New("Shell_NotifyIcon failed")
	network.runErr = boom
	s := NewTraySupervisor(battery, network)

	err := s.Start(time.Second)
	if !errors.Is(err, boom) {
		t.Fatalf("Start error = %v, want %v", err, boom)
	}
	if !strings.Contains(err.Error(), "network") {
		t.Errorf("error %q does not name the failing tray", err)
	}
	if battery.stopCount() == 0 {
		t.Error("battery tray left running after network failed")
	}
}

func TestSupervisorStartTimeout(t *testing.T) {
	loop := newFakeLoop("battery")
	loop.hang = true
	s := NewTraySupervisor(loop)

	err := s.Start(20 * time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("Start error = %v, want a timeout", err)
	}
	if loop.stopCount() == 0 {
		t.Error("hung loop was not stopped")
	}
}

func TestSupervisorShutdownIsBounded(t *testing.T) {
	battery, network := newFakeLoop("battery"), newFakeLoop("network")
	network.wedged = true
	t.Cleanup(func() { close(network.release) })

	s := NewTraySupervisor(battery, network)
	s.StopTimeout = 50 * time.Millisecond
	if err := s.Start(time.Second); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown blocked on a loop that ignores Stop")
	}
	if battery.stopCount() != 1 || network.stopCount() != 1 {
		t.Errorf("stop counts = %d/%d, want 1/1", battery.stopCount(), network.stopCount())
	}
}

func TestRetryFor(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		ok := retryFor(time.Second, time.Millisecond, func() bool {
			calls++
			return calls == 3
		})
		if !ok || calls != 3 {
			t.Errorf("retryFor = %v after %d calls, want true after 3", ok, calls)
		}
	})

	t.Run("gives up after window", func(t *testing.T) {
		calls := 0
		start := time.Now()
		ok := retryFor(30*time.Millisecond, 10*time.Millisecond, func() bool {
			calls++
			return false
		})
		if ok {
			t.Fatal("retryFor reported success")
		}
		if calls < 2 {
			t.Errorf("calls = %d, want several attempts inside the window", calls)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("retryFor took %s, want about the 30ms window", elapsed)
		}
	})

	t.Run("zero window tries once", func(t *testing.T) {
		calls := 0
		if retryFor(0, time.Millisecond, func() bool { calls++; return false }) || calls != 1 {
			t.Errorf("calls = %d, want exactly 1", calls)
		}
	})
}
