package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartExpiryScheduler runs ExpireStale every interval. Callers own the
// returned scheduler and must Shutdown it.
func (s *GameService) StartExpiryScheduler(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(s.Clock))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			n, err := s.ExpireStale(ctx)
			if err != nil {
				s.Log.Error().Err(err).Msg("[Scheduler] failed to expire sessions")
				return
			}
			if n > 0 {
				s.Log.Info().Int64("count", n).Msg("⏰ [Scheduler] expired stale sessions")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
