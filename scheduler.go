package main

import (
	"context"
	"runtime/debug"
	"time"
)

type statusSource interface {
	Fetch(ctx context.Context) (PhoneStatus, bool)
}

type statusSink interface {
	Update(st PhoneStatus) error
}

// Scheduler runs the poll → update cycle on a fixed interval.
type Scheduler struct {
	Source   statusSource
	Sink     statusSink
	Interval time.Duration
	Board    *StatusBoard // optional
}

// Run ticks immediately and then every Interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Duration(defaultPollIntervalSecs) * time.Second
	}
	if logger != nil {
		logger.Printf("[POLL] polling every %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			if logger != nil {
				logger.Printf("[POLL] stopped: %v", ctx.Err())
			}
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Printf("[RECOVER] poll cycle: %v\n%s", r, debug.Stack())
		}
	}()

	if ctx.Err() != nil {
		return
	}
	st, ok := s.Source.Fetch(ctx)
	if s.Board != nil {
		s.Board.Record(st, ok, time.Now())
	}
	if !ok {
		return
	}
	if err := s.Sink.Update(st); err != nil && logger != nil {
		logger.Printf("[TRAY] update incomplete: %v", err)
	}
}
