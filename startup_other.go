//go:build !windows

package main

func enableStartup() error  { return nil }
func disableStartup() error { return nil }
