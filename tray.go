package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// TrayHandle is one persistent shell icon. Implementations marshal the
// change onto the thread that owns the icon, so callers may invoke these
// from any goroutine.
type TrayHandle interface {
	SetIcon(ref IconRef) error
	SetTooltip(text string) error
}

// trayLoop is a tray handle with its own event loop.
type trayLoop interface {
	TrayHandle
	Name() string
	// Run creates the icon, reports the outcome on ready and then
	// services the icon until Stop is called.
	Run(ready chan<- error)
	Stop()
}

// Notification is a transient desktop popup.
type Notification struct {
	Title    string
	Body     string
	Duration time.Duration
	Warning  bool
}

// Notifier raises notifications without blocking the caller.
type Notifier interface {
	Notify(n Notification) error
}

var errTrayClosed = errors.New("tray icon closed")

const (
	maxTooltipChars = 127
	defaultTooltip  = "Phone Status"
)

func normalizeTrayTooltip(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = defaultTooltip
	}
	runes := []rune(text)
	if len(runes) > maxTooltipChars {
		text = string(runes[:maxTooltipChars])
	}
	return text
}

const defaultStopTimeout = 5 * time.Second

// retryFor calls try until it succeeds or window has elapsed, sleeping
// interval between attempts. It always tries at least once.
func retryFor(window, interval time.Duration, try func() bool) bool {
	deadline := time.Now().Add(window)
	for {
		if try() {
			return true
		}
		if time.Now().Add(interval).After(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}

// TraySupervisor owns the event loops of the tray icons.
type TraySupervisor struct {
	// StopTimeout bounds how long Shutdown waits for the loops to return.
	StopTimeout time.Duration

	loops    []trayLoop
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  []trayLoop
	shutdown sync.Once
}

func NewTraySupervisor(loops ...trayLoop) *TraySupervisor {
	return &TraySupervisor{loops: loops, StopTimeout: defaultStopTimeout}
}

// Start launches every loop and waits until each reports ready. If one
// fails, the loops already running are stopped and the error returned.
func (s *TraySupervisor) Start(timeout time.Duration) error {
	for _, l := range s.loops {
		ready := make(chan error, 1)
		s.wg.Add(1)
		go func(l trayLoop) {
			defer s.wg.Done()
			defer safeDefer("tray:" + l.Name())
			l.Run(ready)
		}(l)

		var err error
		select {
		case err = <-ready:
		case <-time.After(timeout):
			err = fmt.Errorf("timed out after %s", timeout)
		}
		if err != nil {
			l.Stop()
			s.Shutdown()
			return fmt.Errorf("start %s tray: %w", l.Name(), err)
		}
		s.mu.Lock()
		s.started = append(s.started, l)
		s.mu.Unlock()
		if logger != nil {
			logger.Printf("[TRAY] %s icon ready", l.Name())
		}
	}
	return nil
}

// Shutdown removes every icon and waits up to StopTimeout for the loops
// to return. A wedged loop is abandoned so process exit is not held up.
func (s *TraySupervisor) Shutdown() {
	s.shutdown.Do(func() {
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		for _, l := range started {
			l.Stop()
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		timeout := s.StopTimeout
		if timeout <= 0 {
			timeout = defaultStopTimeout
		}
		select {
		case <-done:
			if logger != nil {
				logger.Printf("[TRAY] all icons removed")
			}
		case <-time.After(timeout):
			if logger != nil {
				logger.Printf("[TRAY] tray loops still running after %s, giving up", timeout)
			}
		}
	})
}
