//go:build windows
// +build windows

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

func startupShortcutPath() (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		return "", errors.New("APPDATA is not set")
	}
	return filepath.Join(appData, `Microsoft\Windows\Start Menu\Programs\Startup`, startupShortcutName), nil
}

// withShell runs fn against a WScript.Shell object. COM is initialised
// per thread, so the goroutine stays on one thread until fn returns.
func withShell(fn func(shell *ole.IDispatch) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		// S_FALSE: already initialised on this thread, still needs the uninit.
		if !errors.As(err, &oleErr) || oleErr.Code() != 1 {
			return fmt.Errorf("initialise COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("create WScript.Shell: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("WScript.Shell dispatch: %w", err)
	}
	defer shell.Release()
	return fn(shell)
}

func writeShortcut(linkPath string, props []shortcutProperty) error {
	if err := os.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		return err
	}
	return withShell(func(shell *ole.IDispatch) error {
		v, err := oleutil.CallMethod(shell, "CreateShortcut", linkPath)
		if err != nil {
			return fmt.Errorf("CreateShortcut %s: %w", linkPath, err)
		}
		link := v.ToIDispatch()
		defer link.Release()

		for _, p := range props {
			if _, err := oleutil.PutProperty(link, p.name, p.value); err != nil {
				return fmt.Errorf("shortcut %s: %w", p.name, err)
			}
		}
		if _, err := oleutil.CallMethod(link, "Save"); err != nil {
			return fmt.Errorf("save %s: %w", linkPath, err)
		}
		return nil
	})
}

func enableStartup() error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}
	linkPath, err := startupShortcutPath()
	if err != nil {
		return err
	}
	return writeShortcut(linkPath, startupShortcutProperties(exePath))
}

func disableStartup() error {
	linkPath, err := startupShortcutPath()
	if err != nil {
		return err
	}
	if err := os.Remove(linkPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
