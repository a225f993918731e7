package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	appName                 = "PhoneStatusTray"
	defaultURL              = "http://192.168.58.103:8000/"
	defaultPollIntervalSecs = 60
	defaultLowThreshold     = 30
	defaultHighThreshold    = 70
)

// Settings is the on-disk configuration, config.toml in the data dir.
type Settings struct {
	URL                  string `toml:"url"`
	PollIntervalSecs     int    `toml:"poll_interval_secs"`
	LowThreshold         int    `toml:"low_threshold"`
	HighThreshold        int    `toml:"high_threshold"`
	NotificationsEnabled bool   `toml:"notifications_enabled"`
	AssetsDir            string `toml:"assets_dir,omitempty"` // empty: next to the executable
	BatteryIconDir       string `toml:"battery_icon_dir"`
	NetworkIconDir       string `toml:"network_icon_dir"`
	IconExt              string `toml:"icon_ext"`
	StrictAssets         bool   `toml:"strict_assets"`
	StartWithWindows     bool   `toml:"start_with_windows"`
	StatusAPIAddr        string `toml:"status_api_addr"`
}

func defaultSettings() Settings {
	return Settings{
		URL:                  defaultURL,
		PollIntervalSecs:     defaultPollIntervalSecs,
		LowThreshold:         defaultLowThreshold,
		HighThreshold:        defaultHighThreshold,
		NotificationsEnabled: true,
		BatteryIconDir:       "Bat Ico",
		NetworkIconDir:       "Net Ico",
		IconExt:              ".ico",
	}
}

// loadSettings reads path over the defaults. A missing file is not an
// error. Environment overrides are applied last.
func loadSettings(path string) (Settings, error) {
	s := defaultSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil && !errors.Is(err, os.ErrNotExist) {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	applyEnvOverrides(&s)
	s.normalize()
	return s, nil
}

func saveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(s)
}

func applyEnvOverrides(s *Settings) {
	if v := strings.TrimSpace(os.Getenv("PHONE_STATUS_URL")); v != "" {
		s.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("PHONE_STATUS_INTERVAL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.PollIntervalSecs = n
		} else if logger != nil {
			logger.Printf("[CONFIG] ignoring PHONE_STATUS_INTERVAL=%q: %v", v, err)
		}
	}
}

func (s *Settings) normalize() {
	if strings.TrimSpace(s.URL) == "" {
		s.URL = defaultURL
	}
	if s.PollIntervalSecs < 1 {
		s.PollIntervalSecs = defaultPollIntervalSecs
	}
	s.LowThreshold = clampPercent(s.LowThreshold)
	s.HighThreshold = clampPercent(s.HighThreshold)
	if s.AssetsDir == "" {
		s.AssetsDir = executableDir()
	}
	if s.IconExt != "" && !strings.HasPrefix(s.IconExt, ".") {
		s.IconExt = "." + s.IconExt
	}
}

func clampPercent(v int) int {
	return min(max(v, 0), 100)
}

// dataDir is %APPDATA%\PhoneStatusTray on Windows and the XDG config
// dir elsewhere.
func dataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, appName)
}

func settingsPath() string {
	if p := os.Getenv("PHONE_STATUS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(dataDir(), "config.toml")
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
