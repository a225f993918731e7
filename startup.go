package main

import "path/filepath"

const startupShortcutName = appName + ".lnk"

type shortcutProperty struct {
	name  string
	value interface{}
}

// startupShortcutProperties lists what the logon shortcut sets. The
// working directory matters: icon assets resolve next to the executable.
func startupShortcutProperties(exePath string) []shortcutProperty {
	return []shortcutProperty{
		{"TargetPath", exePath},
		{"WorkingDirectory", filepath.Dir(exePath)},
		{"Description", "Phone battery and network tray icons"},
	}
}
