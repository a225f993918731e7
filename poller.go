package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ChargeState is the charging condition reported by the phone.
type ChargeState int

const (
	ChargeUnknown ChargeState = iota
	ChargeCharging
	ChargeDischarging
)

func (c ChargeState) String() string {
	switch c {
	case ChargeCharging:
		return "charging"
	case ChargeDischarging:
		return "discharging"
	}
	return "unknown"
}

// PhoneStatus is one poll result. It is only meaningful when Fetch
// reported ok; the zero value stands in for "no data this cycle".
type PhoneStatus struct {
	Battery float64
	Network string
	Status  string // lower-cased label as reported, e.g. "charging"
}

// ChargeState maps the status label onto the known states.
func (s PhoneStatus) ChargeState() ChargeState {
	switch s.Status {
	case "charging":
		return ChargeCharging
	case "discharging":
		return ChargeDischarging
	}
	return ChargeUnknown
}

const (
	requestTimeout  = 5 * time.Second
	maxResponseBody = 64 << 10
)

var (
	errMissingField = errors.New("missing field")
	errBadBattery   = errors.New("unparsable battery value")
)

type statusPayload struct {
	Battery *string `json:"battery"`
	Network *string `json:"network"`
	Status  *string `json:"status"`
}

// Poller fetches PhoneStatus from the phone's HTTP endpoint.
type Poller struct {
	URL    string
	Client *http.Client
}

func NewPoller(url string) *Poller {
	return &Poller{
		URL:    url,
		Client: &http.Client{Timeout: requestTimeout},
	}
}

// Fetch performs one request. Any failure is logged and reported as
// ok == false; it never returns an error to the caller.
func (p *Poller) Fetch(ctx context.Context) (PhoneStatus, bool) {
	st, err := p.fetch(ctx)
	if err != nil {
		if logger != nil {
			logger.Printf("[POLL] no data this cycle: %v", err)
		}
		return PhoneStatus{}, false
	}
	return st, true
}

func (p *Poller) fetch(ctx context.Context) (PhoneStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return PhoneStatus{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return PhoneStatus{}, fmt.Errorf("get %s: %w", p.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return PhoneStatus{}, fmt.Errorf("get %s: unexpected status %s", p.URL, resp.Status)
	}

	var payload statusPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&payload); err != nil {
		return PhoneStatus{}, fmt.Errorf("decode body: %w", err)
	}
	return payload.toStatus()
}

func (p statusPayload) toStatus() (PhoneStatus, error) {
	if p.Battery == nil {
		return PhoneStatus{}, fmt.Errorf("battery: %w", errMissingField)
	}
	if p.Network == nil {
		return PhoneStatus{}, fmt.Errorf("network: %w", errMissingField)
	}
	if p.Status == nil {
		return PhoneStatus{}, fmt.Errorf("status: %w", errMissingField)
	}
	batt, ok := ParseBattery(*p.Battery)
	if !ok {
		return PhoneStatus{}, fmt.Errorf("%w: %q", errBadBattery, *p.Battery)
	}
	return PhoneStatus{
		Battery: batt,
		Network: *p.Network,
		Status:  strings.ToLower(*p.Status),
	}, nil
}

// ParseBattery turns a value like "55%" into 55. Only plain decimal
// notation is accepted: hex floats, underscores, NaN and infinities are
// all rejected even though strconv would read some of them.
func ParseBattery(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "%"))
	if s == "" || strings.IndexFunc(s, notDecimalRune) >= 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func notDecimalRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return false
	case r == '.' || r == '+' || r == '-' || r == 'e' || r == 'E':
		return false
	}
	return true
}
