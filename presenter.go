package main

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const notificationDuration = 5 * time.Second

// Presenter pushes a PhoneStatus onto the two tray icons and raises the
// battery threshold notifications.
type Presenter struct {
	battery  TrayHandle
	network  TrayHandle
	icons    *IconResolver
	notifier Notifier

	LowThreshold         float64
	HighThreshold        float64
	NotificationsEnabled bool
}

func NewPresenter(battery, network TrayHandle, icons *IconResolver, notifier Notifier, s Settings) *Presenter {
	return &Presenter{
		battery:              battery,
		network:              network,
		icons:                icons,
		notifier:             notifier,
		LowThreshold:         float64(s.LowThreshold),
		HighThreshold:        float64(s.HighThreshold),
		NotificationsEnabled: s.NotificationsEnabled,
	}
}

// Update applies st to both icons. A failure on one handle does not stop
// the other; the returned error joins everything that went wrong.
func (p *Presenter) Update(st PhoneStatus) error {
	var errs []error

	if ref, err := p.icons.Battery(st.Battery); err != nil {
		errs = append(errs, fmt.Errorf("battery icon: %w", err))
	} else if err := p.battery.SetIcon(ref); err != nil {
		errs = append(errs, fmt.Errorf("battery icon: %w", err))
	}
	if err := p.battery.SetTooltip(batteryTooltip(st)); err != nil {
		errs = append(errs, fmt.Errorf("battery tooltip: %w", err))
	}

	if ref, err := p.icons.Network(st.Network); err != nil {
		errs = append(errs, fmt.Errorf("network icon: %w", err))
	} else if err := p.network.SetIcon(ref); err != nil {
		errs = append(errs, fmt.Errorf("network icon: %w", err))
	}
	if err := p.network.SetTooltip(networkTooltip(st)); err != nil {
		errs = append(errs, fmt.Errorf("network tooltip: %w", err))
	}

	if n, ok := p.thresholdNotification(st); ok {
		if err := p.notifier.Notify(n); err != nil {
			errs = append(errs, fmt.Errorf("notify: %w", err))
		} else if logger != nil {
			logger.Printf("[NOTIF] %s: %s", n.Title, n.Body)
		}
	}
	return errors.Join(errs...)
}

// thresholdNotification returns the popup for st, if any. The check is
// stateless, so a condition that persists fires again on every tick.
func (p *Presenter) thresholdNotification(st PhoneStatus) (Notification, bool) {
	if !p.NotificationsEnabled || p.notifier == nil {
		return Notification{}, false
	}
	switch st.ChargeState() {
	case ChargeDischarging:
		if st.Battery <= p.LowThreshold {
			return Notification{
				Title:    "Battery Low",
				Body:     fmt.Sprintf("%.0f%% discharging. Please charge.", st.Battery),
				Duration: notificationDuration,
				Warning:  true,
			}, true
		}
	case ChargeCharging:
		if st.Battery >= p.HighThreshold {
			return Notification{
				Title:    "Battery High",
				Body:     fmt.Sprintf("%.0f%% charging. Consider unplugging.", st.Battery),
				Duration: notificationDuration,
			}, true
		}
	}
	return Notification{}, false
}

func batteryTooltip(st PhoneStatus) string {
	return fmt.Sprintf("Battery: %.0f%% (%s)", st.Battery, capitalize(st.Status))
}

func networkTooltip(st PhoneStatus) string {
	return "Network: " + st.Network
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
