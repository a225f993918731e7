package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestBatteryIndex(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{42.3, 42},
		{42.5, 42},
		{43.5, 44},
		{99.6, 100},
		{100, 100},
		{100.4, 100},
		{150, 100},
		{-0.4, 0},
		{-3, 0},
		{7, 7},
	}
	for _, tt := range tests {
		if got := BatteryIndex(tt.in); got != tt.want {
			t.Errorf("BatteryIndex(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBatteryIndexAlwaysInRange(t *testing.T) {
	for b := -250.0; b <= 250.0; b += 0.25 {
		idx := BatteryIndex(b)
		if idx < 0 || idx > 100 {
			t.Fatalf("BatteryIndex(%v) = %d, outside [0,100]", b, idx)
		}
	}
}

// newAssetTree creates battery icons 0..100 and the given network icons.
func newAssetTree(t *testing.T, networks ...string) Settings {
	t.Helper()
	root := t.TempDir()
	s := defaultSettings()
	s.AssetsDir = root
	for _, dir := range []string{s.BatteryIconDir, s.NetworkIconDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	for i := 0; i <= 100; i++ {
		writeFile(t, filepath.Join(root, s.BatteryIconDir, strconv.Itoa(i)+".ico"))
	}
	for _, n := range networks {
		writeFile(t, filepath.Join(root, s.NetworkIconDir, n+".ico"))
	}
	return s
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("ico"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveBatteryMatchesClampedIndex(t *testing.T) {
	s := newAssetTree(t)
	r := NewIconResolver(s)

	for _, b := range []float64{-20, -0.5, 0, 0.49, 12.5, 42.3, 55, 99.5, 100, 100.2, 180} {
		got, err := r.Battery(b)
		if err != nil {
			t.Fatalf("Battery(%v): %v", b, err)
		}
		clamped, err := r.Battery(float64(BatteryIndex(b)))
		if err != nil {
			t.Fatalf("Battery(%d): %v", BatteryIndex(b), err)
		}
		if got.Path != clamped.Path {
			t.Errorf("Battery(%v) = %s, want same as clamped %s", b, got.Path, clamped.Path)
		}
		want := filepath.Join(s.AssetsDir, s.BatteryIconDir, strconv.Itoa(BatteryIndex(b))+".ico")
		if got.Path != want {
			t.Errorf("Battery(%v) = %s, want %s", b, got.Path, want)
		}
	}
}

func TestResolveNetworkIsCaseSensitive(t *testing.T) {
	s := newAssetTree(t, "wifi", "4G")
	s.StrictAssets = true
	r := NewIconResolver(s)

	ref, err := r.Network("wifi")
	if err != nil {
		t.Fatalf("Network(wifi): %v", err)
	}
	if want := filepath.Join(s.AssetsDir, s.NetworkIconDir, "wifi.ico"); ref.Path != want {
		t.Errorf("Network(wifi) = %s, want %s", ref.Path, want)
	}
	if _, err := r.Network("4G"); err != nil {
		t.Errorf("Network(4G): %v", err)
	}

	for _, label := range []string{"WIFI", "Wifi", "4g", "ethernet"} {
		if _, err := r.Network(label); !errors.Is(err, ErrAssetMissing) {
			t.Errorf("Network(%q) error = %v, want ErrAssetMissing", label, err)
		}
	}
}

func TestResolveNetworkWrongCaseFallsBackToBuiltin(t *testing.T) {
	s := newAssetTree(t, "wifi")
	ref, err := NewIconResolver(s).Network("WIFI")
	if err != nil {
		t.Fatalf("Network(WIFI): %v", err)
	}
	if ref.Path != "" || ref.Builtin == nil || ref.Builtin.Label != "WIFI" {
		t.Errorf("Network(WIFI) = %+v, want the built-in icon rather than wifi.ico", ref)
	}
}

func TestResolveRejectsPathTraversal(t *testing.T) {
	s := newAssetTree(t, "wifi")
	s.StrictAssets = true
	r := NewIconResolver(s)

	for _, label := range []string{"", ".", "..", "../Bat Ico/50", `..\Bat Ico\50`, "a/b", "c:evil"} {
		if _, err := r.Network(label); !errors.Is(err, ErrAssetMissing) {
			t.Errorf("Network(%q) error = %v, want ErrAssetMissing", label, err)
		}
	}
}

func TestMissingAssetStrict(t *testing.T) {
	s := defaultSettings()
	s.AssetsDir = t.TempDir()
	s.StrictAssets = true
	r := NewIconResolver(s)

	if _, err := r.Battery(50); !errors.Is(err, ErrAssetMissing) {
		t.Errorf("Battery(50) error = %v, want ErrAssetMissing", err)
	}
	if _, err := r.Network("wifi"); !errors.Is(err, ErrAssetMissing) {
		t.Errorf("Network(wifi) error = %v, want ErrAssetMissing", err)
	}
}

func TestMissingAssetFallsBackToBuiltin(t *testing.T) {
	s := defaultSettings()
	s.AssetsDir = t.TempDir()
	r := NewIconResolver(s)

	ref, err := r.Battery(63.7)
	if err != nil {
		t.Fatalf("Battery: %v", err)
	}
	if ref.Path != "" {
		t.Errorf("Path = %q, want empty for a built-in icon", ref.Path)
	}
	if ref.Builtin == nil || ref.Builtin.Kind != iconKindBattery || ref.Builtin.Level != 64 {
		t.Errorf("Builtin = %+v, want battery level 64", ref.Builtin)
	}
	if ref.Key() != "builtin:battery:064" {
		t.Errorf("Key = %q", ref.Key())
	}

	ref, err = r.Network("5G")
	if err != nil {
		t.Fatalf("Network: %v", err)
	}
	if ref.Builtin == nil || ref.Builtin.Kind != iconKindNetwork || ref.Builtin.Label != "5G" {
		t.Errorf("Builtin = %+v, want network 5G", ref.Builtin)
	}
}

func TestDirectoryIsNotAnAsset(t *testing.T) {
	s := newAssetTree(t)
	s.StrictAssets = true
	if err := os.Mkdir(filepath.Join(s.AssetsDir, s.NetworkIconDir, "wifi.ico"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := NewIconResolver(s).Network("wifi"); !errors.Is(err, ErrAssetMissing) {
		t.Errorf("error = %v, want ErrAssetMissing", err)
	}
}
