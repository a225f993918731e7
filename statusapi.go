package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatusBoard holds the outcome of the most recent poll for the local
// status API. It is display-only: the poll loop never reads it back.
type StatusBoard struct {
	mu        sync.RWMutex
	last      PhoneStatus
	ok        bool
	checkedAt time.Time
	ticks     uint64
	failures  uint64
	rates     RateEstimator
}

func (b *StatusBoard) Record(st PhoneStatus, ok bool, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks++
	b.checkedAt = at
	b.ok = ok
	if ok {
		b.last = st
		b.rates.Record(st, at)
	} else {
		b.last = PhoneStatus{}
		b.failures++
	}
}

type statusResponse struct {
	OK             bool     `json:"ok"`
	CheckedAt      string   `json:"checkedAt,omitempty"`
	Battery        *float64 `json:"battery,omitempty"`
	Network        string   `json:"network,omitempty"`
	Status         string   `json:"status,omitempty"`
	BatteryTooltip string   `json:"batteryTooltip,omitempty"`
	NetworkTooltip string   `json:"networkTooltip,omitempty"`
	RatePerHour    *float64 `json:"ratePerHour,omitempty"`
	HoursRemaining *float64 `json:"hoursRemaining,omitempty"`
	Ticks          uint64   `json:"ticks"`
	Failures       uint64   `json:"failures"`
}

func (b *StatusBoard) snapshot() statusResponse {
	b.mu.RLock()
	defer b.mu.RUnlock()
	resp := statusResponse{OK: b.ok, Ticks: b.ticks, Failures: b.failures}
	if !b.checkedAt.IsZero() {
		resp.CheckedAt = b.checkedAt.Format(time.RFC3339)
	}
	if b.ok {
		batt := b.last.Battery
		resp.Battery = &batt
		resp.Network = b.last.Network
		resp.Status = b.last.Status
		resp.BatteryTooltip = normalizeTrayTooltip(batteryTooltip(b.last))
		resp.NetworkTooltip = normalizeTrayTooltip(networkTooltip(b.last))
		if est := b.rates.Estimate(b.checkedAt); est.Valid {
			rate, hours := roundTo(est.RatePerHour, 2), roundTo(est.Hours, 2)
			resp.RatePerHour = &rate
			resp.HoursRemaining = &hours
		}
	}
	return resp
}

// statusHandler returns the router for the local status API.
func statusHandler(board *StatusBoard) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, board.snapshot())
	})
	return r
}

// startStatusAPI serves the status API on addr until ctx is done.
func startStatusAPI(ctx context.Context, addr string, board *StatusBoard) {
	defer safeDefer("startStatusAPI")
	srv := &http.Server{
		Addr:              addr,
		Handler:           statusHandler(board),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if logger != nil {
		logger.Printf("[API] listening on %s", addr)
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if logger != nil {
			logger.Printf("[API] server error: %v", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
