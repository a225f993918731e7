//go:build !windows

package main

import "github.com/gen2brain/beeep"

// beeepNotifier sends desktop notifications through the platform's
// notification daemon. The display duration is left to the daemon.
type beeepNotifier struct {
	send func(title, body, icon string) error
}

func newNotifier(_ *Tray) Notifier {
	return &beeepNotifier{send: func(title, body, icon string) error {
		return beeep.Notify(title, body, icon)
	}}
}

func (b *beeepNotifier) Notify(n Notification) error {
	go func() {
		defer safeDefer("notify")
		if err := b.send(n.Title, n.Body, ""); err != nil && logger != nil {
			logger.Printf("[NOTIF] send failed: %v", err)
		}
	}()
	return nil
}
