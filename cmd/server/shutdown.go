package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rangestream/internal/config"
)

var ErrShutdownTimeout = errors.New("shutdown timer triggered")

// shutdownMonitor stops the server after a period without requests, after a
// fixed sleep timer, or at a wall-clock time, whichever comes first.
type shutdownMonitor struct {
	cfg        config.ShutdownTimersConfig
	logger     *slog.Logger
	activityCh chan struct{} // signals activity
}

func NewShutdownMonitor(cfg config.ShutdownTimersConfig, l *slog.Logger) *shutdownMonitor {
	return &shutdownMonitor{
		cfg:        cfg,
		logger:     l,
		activityCh: make(chan struct{}, 1),
	}
}

func (s *shutdownMonitor) NotifyActivity() {
	select {
	case s.activityCh <- struct{}{}:
	default:
	}
}

// deadline is how long until the sleep timer or the time to end fires; ok is false when neither is set.
func (s *shutdownMonitor) deadline(now time.Time) (d time.Duration, ok bool) {
	if !s.cfg.TimeToEnd.IsZero() {
		d, ok = s.cfg.TimeToEnd.Sub(now), true
	}

	if s.cfg.SleepTimer > 0 && (!ok || s.cfg.SleepTimer < d) {
		d, ok = s.cfg.SleepTimer, true
	}

	return max(d, 0), ok
}

// Run blocks until ctx is done (nil) or a timer fires (ErrShutdownTimeout).
func (s *shutdownMonitor) Run(ctx context.Context) error {
	var deadlineC, inactivityC <-chan time.Time

	if d, ok := s.deadline(time.Now()); ok {
		if d == 0 {
			s.logger.Warn("shutdown time is in the past; shutting down immediately")
			return ErrShutdownTimeout
		}
		deadlineTimer := time.NewTimer(d)
		defer deadlineTimer.Stop()
		deadlineC = deadlineTimer.C
	}

	var inactivityTimer *time.Timer
	if s.cfg.InactiveLimit > 0 {
		inactivityTimer = time.NewTimer(s.cfg.InactiveLimit)
		defer inactivityTimer.Stop()
		inactivityC = inactivityTimer.C
	}

	s.logger.Info("shutdown monitor started",
		"inactive_limit", s.cfg.InactiveLimit,
		"sleep_timer", s.cfg.SleepTimer,
		"time_to_end", s.cfg.TimeToEnd)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.activityCh:
			if inactivityTimer != nil {
				// since go1.23 Reset also drains a fired timer
				inactivityTimer.Reset(s.cfg.InactiveLimit)
				s.logger.Debug("activity detected, timer reset")
			}

		case <-inactivityC:
			s.logger.Info("inactivity limit reached")
			return ErrShutdownTimeout

		case <-deadlineC:
			s.logger.Info("deadline reached")
			return ErrShutdownTimeout
		}
	}
}
