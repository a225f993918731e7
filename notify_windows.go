//go:build windows
// +build windows

package main

// newNotifier shows notifications as balloons from the given tray icon.
func newNotifier(t *Tray) Notifier {
	return t
}
