//go:build !windows

package main

import (
	"runtime"
	"sync"
)

// Tray is a headless stand-in for platforms without a Win32 shell. It
// keeps the icon and tooltip it was given and logs every change.
type Tray struct {
	name string
	uid  uint32

	OnQuit func()

	mu      sync.Mutex
	icon    IconRef
	tooltip string
	running bool
	closed  bool
	stop    chan struct{}
	once    sync.Once
}

func NewTray(name string, uid uint32, tooltip string) *Tray {
	return &Tray{
		name:    name,
		uid:     uid,
		tooltip: normalizeTrayTooltip(tooltip),
		stop:    make(chan struct{}),
	}
}

func (t *Tray) Name() string { return t.name }

func (t *Tray) Run(ready chan<- error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		ready <- errTrayClosed
		return
	}
	t.running = true
	t.mu.Unlock()

	if logger != nil {
		logger.Printf("[TRAY] %s: no system tray on %s, running headless", t.name, runtime.GOOS)
	}
	ready <- nil
	<-t.stop

	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

func (t *Tray) Stop() {
	t.once.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		close(t.stop)
	})
}

func (t *Tray) SetIcon(ref IconRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errTrayClosed
	}
	if t.icon.Key() != ref.Key() && logger != nil {
		logger.Printf("[TRAY] %s icon -> %s", t.name, ref.Key())
	}
	t.icon = ref
	return nil
}

func (t *Tray) SetTooltip(text string) error {
	text = normalizeTrayTooltip(text)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errTrayClosed
	}
	if t.tooltip != text && logger != nil {
		logger.Printf("[TOOLTIP] %s: %s", t.name, text)
	}
	t.tooltip = text
	return nil
}

// State returns the current icon and tooltip.
func (t *Tray) State() (IconRef, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.icon, t.tooltip
}
