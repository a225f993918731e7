package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrAssetMissing is returned by the resolver in strict mode when the
// icon file for a value does not exist.
var ErrAssetMissing = errors.New("icon asset missing")

type iconKind int

const (
	iconKindBattery iconKind = iota
	iconKindNetwork
)

// BuiltinIcon describes an icon drawn in memory instead of loaded from disk.
type BuiltinIcon struct {
	Kind  iconKind
	Level int    // battery percentage, 0..100
	Label string // network label
}

// IconRef points at an asset on disk, a built-in icon, or both; the
// built-in one is drawn when Path is empty or cannot be loaded.
type IconRef struct {
	Path    string
	Builtin *BuiltinIcon
}

// Key identifies the icon for caching.
func (r IconRef) Key() string {
	if r.Path != "" {
		return "file:" + r.Path
	}
	if r.Builtin == nil {
		return "blank"
	}
	if r.Builtin.Kind == iconKindBattery {
		return fmt.Sprintf("builtin:battery:%03d", r.Builtin.Level)
	}
	return "builtin:network:" + r.Builtin.Label
}

// IconResolver maps battery levels and network labels to icon files.
type IconResolver struct {
	BatteryDir string
	NetworkDir string
	Ext        string
	Strict     bool // report ErrAssetMissing instead of substituting a built-in icon
}

func NewIconResolver(s Settings) *IconResolver {
	return &IconResolver{
		BatteryDir: filepath.Join(s.AssetsDir, s.BatteryIconDir),
		NetworkDir: filepath.Join(s.AssetsDir, s.NetworkIconDir),
		Ext:        s.IconExt,
		Strict:     s.StrictAssets,
	}
}

// BatteryIndex rounds half to even and clamps to [0,100].
func BatteryIndex(pct float64) int {
	if math.IsNaN(pct) {
		return 0
	}
	r := math.RoundToEven(pct)
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return int(r)
}

// Battery resolves the icon for a battery percentage.
func (r *IconResolver) Battery(pct float64) (IconRef, error) {
	idx := BatteryIndex(pct)
	path := filepath.Join(r.BatteryDir, strconv.Itoa(idx)+r.Ext)
	return r.lookup(path, BuiltinIcon{Kind: iconKindBattery, Level: idx})
}

// Network resolves the icon for a network label. The match is exact
// and case-sensitive; labels that would leave the directory never match.
func (r *IconResolver) Network(label string) (IconRef, error) {
	fallback := BuiltinIcon{Kind: iconKindNetwork, Label: label}
	path := filepath.Join(r.NetworkDir, label+r.Ext)
	if !safeAssetName(label) || !hasExactEntry(r.NetworkDir, label+r.Ext) {
		return r.missing(path, fallback)
	}
	return r.lookup(path, fallback)
}

// hasExactEntry reports whether dir lists name byte for byte. os.Stat
// alone would also match "WIFI.ico" against wifi.ico on NTFS and APFS.
func hasExactEntry(dir, name string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name() == name {
			return true
		}
	}
	return false
}

func (r *IconResolver) lookup(path string, fallback BuiltinIcon) (IconRef, error) {
	info, err := os.Stat(path)
	if err == nil && info.Mode().IsRegular() {
		return IconRef{Path: path, Builtin: &fallback}, nil
	}
	return r.missing(path, fallback)
}

func (r *IconResolver) missing(path string, fallback BuiltinIcon) (IconRef, error) {
	if r.Strict {
		return IconRef{}, fmt.Errorf("%w: %s", ErrAssetMissing, path)
	}
	if logger != nil {
		logger.Printf("[ICON] %s not found, using built-in icon", path)
	}
	return IconRef{Builtin: &fallback}, nil
}

func safeAssetName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\:`) && !strings.Contains(name, "..")
}
