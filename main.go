package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"
)

const currentVersion = "1.0.0"

// Longer than the window the Windows tray spends retrying NIM_ADD.
const trayStartTimeout = 45 * time.Second

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Printf("[FATAL RECOVER] %v\n%s", r, debug.Stack())
			}
			fmt.Fprintf(os.Stderr, "phone status tray: panic: %v\n", r)
			code = 2
		}
	}()

	logPath := filepath.Join(dataDir(), "debug.log")
	if f, err := setupLogging(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "phone status tray: %v; logging to stderr\n", err)
	} else {
		defer f.Close()
	}

	cfgPath := settingsPath()
	settings, err := loadSettings(cfgPath)
	if err != nil {
		logger.Printf("[STARTUP] %v", err)
		fmt.Fprintf(os.Stderr, "phone status tray: %v\n", err)
		return 1
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		if err := saveSettings(cfgPath, defaultSettings()); err != nil {
			logger.Printf("[STARTUP] could not write default config: %v", err)
		} else {
			logger.Printf("[STARTUP] wrote default config to %s", cfgPath)
		}
	}
	logSettings(settings, cfgPath)
	syncStartup(settings.StartWithWindows)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batteryTray := NewTray("battery", 1, "Battery")
	networkTray := NewTray("network", 2, "Network")
	batteryTray.OnQuit = stop
	networkTray.OnQuit = stop

	trays := NewTraySupervisor(batteryTray, networkTray)
	if err := trays.Start(trayStartTimeout); err != nil {
		logger.Printf("[STARTUP] %v", err)
		fmt.Fprintf(os.Stderr, "phone status tray: %v\n", err)
		return 1
	}
	defer trays.Shutdown()

	board := &StatusBoard{}
	if settings.StatusAPIAddr != "" {
		go startStatusAPI(ctx, settings.StatusAPIAddr, board)
	}

	presenter := NewPresenter(batteryTray, networkTray, NewIconResolver(settings), newNotifier(batteryTray), settings)
	scheduler := &Scheduler{
		Source:   NewPoller(settings.URL),
		Sink:     presenter,
		Interval: time.Duration(settings.PollIntervalSecs) * time.Second,
		Board:    board,
	}
	scheduler.Run(ctx)

	logger.Printf("[SHUTDOWN] removing tray icons")
	return 0
}

func syncStartup(enabled bool) {
	var err error
	if enabled {
		err = enableStartup()
	} else {
		err = disableStartup()
	}
	if err != nil {
		logger.Printf("[STARTUP] autostart (enabled=%v): %v", enabled, err)
	}
}
