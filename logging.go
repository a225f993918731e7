package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var logger *log.Logger

// setupLogging points logger at path, truncating the previous run's log.
// On failure it falls back to stderr and returns the error.
func setupLogging(path string) (*os.File, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logger = log.New(os.Stderr, "", log.LstdFlags)
			return nil, fmt.Errorf("open log file: %w", err)
		}
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags)
	logger = log.New(f, "", log.LstdFlags)
	logger.Printf("=== Phone Status Tray v%s Started ===", currentVersion)
	logger.Printf("Log file location: %s", path)
	return f, nil
}

func logSettings(s Settings, path string) {
	if logger == nil {
		return
	}
	logger.Printf("[CONFIG] file=%s", path)
	logger.Printf("[CONFIG] url=%s interval=%ds low=%d%% high=%d%% notifications=%v",
		s.URL, s.PollIntervalSecs, s.LowThreshold, s.HighThreshold, s.NotificationsEnabled)
	logger.Printf("[CONFIG] battery icons=%s network icons=%s ext=%s strict=%v",
		filepath.Join(s.AssetsDir, s.BatteryIconDir), filepath.Join(s.AssetsDir, s.NetworkIconDir), s.IconExt, s.StrictAssets)
	if s.StatusAPIAddr != "" {
		logger.Printf("[CONFIG] status api on %s", s.StatusAPIAddr)
	}
}

func safeDefer(where string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Printf("[RECOVER] %s: %v", where, r)
		}
	}
}
