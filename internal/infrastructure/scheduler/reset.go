// Package scheduler runs the daily quota reset at a fixed local wall-clock
// time. The reset zeroes every identity's daily counter and re-arms the
// one-shot claim flag so the next claim of the day goes through the full
// redemption flow again.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rewarddesk/coupon-service/internal/api/metrics"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

const resetTimeout = 30 * time.Second

// ResetScheduler fires EntitlementRepository.ResetAllDaily once per day at
// hour:minute in the configured location.
type ResetScheduler struct {
	repo     ports.EntitlementRepository
	hour     int
	minute   int
	location *time.Location
	log      zerolog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewResetScheduler creates a scheduler firing daily at hour:minute in loc.
func NewResetScheduler(repo ports.EntitlementRepository, hour, minute int, loc *time.Location, log zerolog.Logger) *ResetScheduler {
	return &ResetScheduler{
		repo:     repo,
		hour:     hour,
		minute:   minute,
		location: loc,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start launches the scheduling loop in a background goroutine.
func (s *ResetScheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop terminates the loop and waits for an in-flight reset to finish.
func (s *ResetScheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *ResetScheduler) run() {
	defer s.wg.Done()
	for {
		next := nextRun(time.Now().In(s.location), s.hour, s.minute, s.location)
		s.log.Info().Time("next_reset", next).Msg("daily reset scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
			if err := s.RunNow(ctx); err != nil {
				s.log.Error().Err(err).Msg("daily reset failed")
			}
			cancel()
		}
	}
}

// RunNow executes the reset immediately. Safe to call from operational tooling
// or repeatedly; the reset is idempotent at the storage layer.
func (s *ResetScheduler) RunNow(ctx context.Context) error {
	start := time.Now()
	if err := s.repo.ResetAllDaily(ctx); err != nil {
		metrics.DailyResetsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.DailyResetsTotal.WithLabelValues("ok").Inc()
	s.log.Info().Dur("took", time.Since(start)).Msg("daily quota reset complete")
	return nil
}

// nextRun returns the next hour:minute occurrence in loc strictly after now.
func nextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
