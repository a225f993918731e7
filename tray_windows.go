//go:build windows
// +build windows

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
)

const (
	WM_APP          = 0x8000
	WM_APP_TRAY_DO  = WM_APP + 1
	WM_APP_TRAY_MSG = WM_APP + 10

	WM_CONTEXTMENU = 0x007B
	NIN_SELECT     = win.WM_USER + 0
	NIN_KEYSELECT  = win.WM_USER + 1

	NIF_SHOWTIP = 0x00000080

	ID_QUIT = 1002
)

const (
	trayAddWindow   = 30 * time.Second
	trayAddInterval = time.Second
)

var (
	user32         = syscall.NewLazyDLL("user32.dll")
	appendMenuW    = user32.NewProc("AppendMenuW")
	trackPopupMenu = user32.NewProc("TrackPopupMenu")

	gdi32            = syscall.NewLazyDLL("gdi32.dll")
	createDIBSection = gdi32.NewProc("CreateDIBSection")

	trayClassName  = syscall.StringToUTF16Ptr("PhoneStatusTrayClass")
	trayClassOnce  sync.Once
	trayClassErr   error
	taskbarCreated = win.RegisterWindowMessage(syscall.StringToUTF16Ptr("TaskbarCreated"))

	traysMu     sync.Mutex
	traysByHwnd = make(map[win.HWND]*Tray)
)

// Tray is one notification-area icon. Each Tray owns a hidden window and
// runs its message loop on a dedicated OS thread; every change to the
// icon is posted to that thread.
type Tray struct {
	name string
	uid  uint32

	// OnQuit is called from the tray thread when "Quit" is picked.
	OnQuit func()

	ops      chan func()
	done     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	hwnd   win.HWND
	closed bool

	// owned by the tray thread
	nid     win.NOTIFYICONDATA
	tip     string
	icons   map[string]win.HICON
	current IconRef

	balloonSeq uint64
}

func NewTray(name string, uid uint32, tooltip string) *Tray {
	return &Tray{
		name:  name,
		uid:   uid,
		tip:   normalizeTrayTooltip(tooltip),
		ops:   make(chan func(), 64),
		done:  make(chan struct{}),
		icons: make(map[string]win.HICON),
	}
}

func (t *Tray) Name() string { return t.name }

func registerTrayClass(hInst win.HINSTANCE) error {
	trayClassOnce.Do(func() {
		wc := win.WNDCLASSEX{
			CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
			LpfnWndProc:   syscall.NewCallback(trayWndProc),
			HInstance:     hInst,
			LpszClassName: trayClassName,
		}
		if win.RegisterClassEx(&wc) == 0 {
			trayClassErr = fmt.Errorf("RegisterClassEx failed: error %d", win.GetLastError())
		}
	})
	return trayClassErr
}

func (t *Tray) Run(ready chan<- error) {
	defer close(t.done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer t.cleanup()

	hInst := win.GetModuleHandle(nil)
	if err := registerTrayClass(hInst); err != nil {
		ready <- err
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		ready <- errTrayClosed
		return
	}
	windowName, _ := syscall.UTF16PtrFromString(appName + " " + t.name)
	hwnd := win.CreateWindowEx(0, trayClassName, windowName, 0, 0, 0, 0, 0, 0, 0, hInst, nil)
	if hwnd == 0 {
		t.mu.Unlock()
		ready <- fmt.Errorf("CreateWindowEx failed: error %d", win.GetLastError())
		return
	}
	t.hwnd = hwnd
	t.mu.Unlock()

	traysMu.Lock()
	traysByHwnd[hwnd] = t
	traysMu.Unlock()

	t.nid = win.NOTIFYICONDATA{}
	t.nid.CbSize = uint32(unsafe.Sizeof(t.nid))
	t.nid.HWnd = hwnd
	t.nid.UID = t.uid
	t.nid.UCallbackMessage = WM_APP_TRAY_MSG
	t.nid.HIcon = t.iconFor(IconRef{})
	putUTF16(t.nid.SzTip[:], t.tip)

	// At logon the shell's notification area may not exist yet.
	attempts := 0
	added := retryFor(trayAddWindow, trayAddInterval, func() bool {
		attempts++
		return t.addIcon()
	})
	if !added {
		win.DestroyWindow(hwnd)
		ready <- fmt.Errorf("Shell_NotifyIcon(NIM_ADD) failed for %s after %d attempts", t.name, attempts)
		return
	}
	if attempts > 1 && logger != nil {
		logger.Printf("[TRAY] %s icon added after %d attempts", t.name, attempts)
	}
	ready <- nil

	var msg win.MSG
	for win.GetMessage(&msg, 0, 0, 0) > 0 {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	if logger != nil {
		logger.Printf("[TRAY] %s message loop exited", t.name)
	}
}

func (t *Tray) addIcon() bool {
	t.nid.UFlags = win.NIF_ICON | win.NIF_MESSAGE | win.NIF_TIP | NIF_SHOWTIP
	if !win.Shell_NotifyIcon(win.NIM_ADD, &t.nid) {
		return false
	}
	t.nid.UVersion = win.NOTIFYICON_VERSION_4
	win.Shell_NotifyIcon(win.NIM_SETVERSION, &t.nid)
	return true
}

func (t *Tray) cleanup() {
	t.mu.Lock()
	hwnd := t.hwnd
	t.hwnd = 0
	t.closed = true
	t.mu.Unlock()

	if hwnd != 0 {
		traysMu.Lock()
		delete(traysByHwnd, hwnd)
		traysMu.Unlock()
	}
	for key, h := range t.icons {
		win.DestroyIcon(h)
		delete(t.icons, key)
	}
}

// Stop removes the icon and waits briefly for the loop to finish.
func (t *Tray) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		hwnd := t.hwnd
		t.mu.Unlock()
		if hwnd != 0 {
			win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
		}
	})
	select {
	case <-t.done:
	case <-time.After(3 * time.Second):
		if logger != nil {
			logger.Printf("[TRAY] %s did not stop within 3s", t.name)
		}
	}
}

func (t *Tray) invoke(fn func()) error {
	t.mu.Lock()
	hwnd, closed := t.hwnd, t.closed
	t.mu.Unlock()
	if closed || hwnd == 0 {
		return errTrayClosed
	}
	select {
	case t.ops <- fn:
	default:
		return fmt.Errorf("%s tray: op queue full", t.name)
	}
	win.PostMessage(hwnd, WM_APP_TRAY_DO, 0, 0)
	return nil
}

func (t *Tray) SetIcon(ref IconRef) error {
	return t.invoke(func() {
		h := t.iconFor(ref)
		if h == 0 {
			return
		}
		t.current = ref
		t.nid.HIcon = h
		t.nid.UFlags = win.NIF_ICON
		win.Shell_NotifyIcon(win.NIM_MODIFY, &t.nid)
	})
}

func (t *Tray) SetTooltip(text string) error {
	text = normalizeTrayTooltip(text)
	return t.invoke(func() {
		if text == t.tip {
			return
		}
		t.tip = text
		putUTF16(t.nid.SzTip[:], text)
		t.nid.UFlags = win.NIF_TIP | NIF_SHOWTIP
		win.Shell_NotifyIcon(win.NIM_MODIFY, &t.nid)
		if logger != nil {
			logger.Printf("[TOOLTIP] %s: %s", t.name, text)
		}
	})
}

// Notify shows a balloon from this icon and clears it once n.Duration
// has passed, unless a newer balloon replaced it.
func (t *Tray) Notify(n Notification) error {
	seq := atomic.AddUint64(&t.balloonSeq, 1)
	err := t.invoke(func() {
		t.nid.UFlags = win.NIF_INFO
		t.nid.DwInfoFlags = win.NIIF_INFO
		if n.Warning {
			t.nid.DwInfoFlags = win.NIIF_WARNING
		}
		putUTF16(t.nid.SzInfoTitle[:], n.Title)
		putUTF16(t.nid.SzInfo[:], n.Body)
		win.Shell_NotifyIcon(win.NIM_MODIFY, &t.nid)
	})
	if err != nil || n.Duration <= 0 {
		return err
	}
	time.AfterFunc(n.Duration, func() {
		if atomic.LoadUint64(&t.balloonSeq) != seq {
			return
		}
		_ = t.invoke(func() {
			t.nid.UFlags = win.NIF_INFO
			putUTF16(t.nid.SzInfoTitle[:], "")
			putUTF16(t.nid.SzInfo[:], "")
			win.Shell_NotifyIcon(win.NIM_MODIFY, &t.nid)
		})
	})
	return nil
}

func (t *Tray) iconFor(ref IconRef) win.HICON {
	if ref.Path != "" {
		if h, ok := t.icons[ref.Key()]; ok {
			return h
		}
		if h := loadIconFile(ref.Path); h != 0 {
			t.icons[ref.Key()] = h
			return h
		}
		if logger != nil {
			logger.Printf("[ICON] LoadImage failed for %s (error %d), drawing built-in icon", ref.Path, win.GetLastError())
		}
		ref = IconRef{Builtin: ref.Builtin}
	}
	key := ref.Key()
	if h, ok := t.icons[key]; ok {
		return h
	}
	var canvas *iconCanvas
	if ref.Builtin != nil {
		canvas = renderBuiltinIcon(*ref.Builtin, builtinIconSize)
	} else {
		canvas = newIconCanvas(builtinIconSize)
	}
	h := createIconFromCanvas(canvas)
	if h != 0 {
		t.icons[key] = h
	}
	return h
}

func loadIconFile(path string) win.HICON {
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return 0
	}
	cx := win.GetSystemMetrics(win.SM_CXSMICON)
	cy := win.GetSystemMetrics(win.SM_CYSMICON)
	return win.HICON(win.LoadImage(0, p, win.IMAGE_ICON, cx, cy, win.LR_LOADFROMFILE))
}

func createIconFromCanvas(c *iconCanvas) win.HICON {
	var bi win.BITMAPINFOHEADER
	bi.BiSize = uint32(unsafe.Sizeof(bi))
	bi.BiWidth = int32(c.size)
	bi.BiHeight = -int32(c.size)
	bi.BiPlanes = 1
	bi.BiBitCount = 32
	bi.BiCompression = win.BI_RGB

	hdc := win.GetDC(0)
	if hdc == 0 {
		if logger != nil {
			logger.Printf("[ICON] GetDC failed")
		}
		return 0
	}
	defer win.ReleaseDC(0, hdc)

	var bits unsafe.Pointer
	r, _, _ := createDIBSection.Call(
		uintptr(hdc),
		uintptr(unsafe.Pointer(&bi)),
		0,
		uintptr(unsafe.Pointer(&bits)),
		0,
		0,
	)
	hBitmap := win.HBITMAP(r)
	if hBitmap == 0 || bits == nil {
		if logger != nil {
			logger.Printf("[ICON] CreateDIBSection failed")
		}
		return 0
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))
	copy(unsafe.Slice((*uint32)(bits), len(c.pix)), c.pix)

	hMask := win.CreateBitmap(int32(c.size), int32(c.size), 1, 1, nil)
	if hMask == 0 {
		if logger != nil {
			logger.Printf("[ICON] CreateBitmap(mask) failed")
		}
		return 0
	}
	defer win.DeleteObject(win.HGDIOBJ(hMask))

	var iconInfo win.ICONINFO
	iconInfo.FIcon = 1
	iconInfo.HbmColor = hBitmap
	iconInfo.HbmMask = hMask
	hIcon := win.CreateIconIndirect(&iconInfo)
	if hIcon == 0 && logger != nil {
		logger.Printf("[ICON] CreateIconIndirect failed")
	}
	return hIcon
}

// putUTF16 copies s into a fixed NUL-terminated buffer, truncating.
func putUTF16(dst []uint16, s string) {
	for i := range dst {
		dst[i] = 0
	}
	src, _ := syscall.UTF16FromString(s)
	n := len(src)
	if n > len(dst)-1 {
		n = len(dst) - 1
	}
	copy(dst[:n], src[:n])
}

func trayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	traysMu.Lock()
	t := traysByHwnd[hwnd]
	traysMu.Unlock()
	if t == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}
	return t.wndProc(hwnd, msg, wParam, lParam)
}

func (t *Tray) wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	if msg == taskbarCreated {
		if logger != nil {
			logger.Printf("[TRAY] %s: taskbar recreated, re-adding icon", t.name)
		}
		t.addIcon()
		return 0
	}

	switch msg {
	case WM_APP_TRAY_DO:
		for {
			select {
			case fn := <-t.ops:
				t.runOp(fn)
			default:
				return 0
			}
		}

	case WM_APP_TRAY_MSG:
		code := uint32(lParam) & 0xFFFF
		if code == win.WM_RBUTTONUP || code == WM_CONTEXTMENU || code == NIN_SELECT || code == NIN_KEYSELECT {
			t.showMenu(hwnd)
		}
		return 0

	case win.WM_CLOSE:
		win.DestroyWindow(hwnd)
		return 0

	case win.WM_DESTROY:
		t.nid.UFlags = 0
		win.Shell_NotifyIcon(win.NIM_DELETE, &t.nid)
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (t *Tray) runOp(fn func()) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Printf("[TRAY_OP] %s op recovered: %v\n%s", t.name, r, debug.Stack())
		}
		if d := time.Since(start); d > 200*time.Millisecond && logger != nil {
			logger.Printf("[TRAY_OP] %s long-running op: %s", t.name, d)
		}
	}()
	fn()
}

func (t *Tray) showMenu(hwnd win.HWND) {
	hMenu := win.CreatePopupMenu()
	if hMenu == 0 {
		return
	}
	defer win.DestroyMenu(hMenu)

	statusItem, _ := syscall.UTF16PtrFromString(t.tip)
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_STRING|win.MF_GRAYED), 0, uintptr(unsafe.Pointer(statusItem)))
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_SEPARATOR), 0, 0)
	quitItem, _ := syscall.UTF16PtrFromString("Quit")
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_STRING), ID_QUIT, uintptr(unsafe.Pointer(quitItem)))

	var pt win.POINT
	win.GetCursorPos(&pt)
	win.SetForegroundWindow(hwnd)

	cmd, _, _ := trackPopupMenu.Call(
		uintptr(hMenu),
		uintptr(win.TPM_RETURNCMD|win.TPM_RIGHTBUTTON),
		uintptr(pt.X),
		uintptr(pt.Y),
		0,
		uintptr(hwnd),
		0,
	)
	win.PostMessage(hwnd, win.WM_NULL, 0, 0)

	if cmd == ID_QUIT {
		if logger != nil {
			logger.Printf("[TRAY] quit requested from %s menu", t.name)
		}
		if t.OnQuit != nil {
			go t.OnQuit()
		}
	}
}
