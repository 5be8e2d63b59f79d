package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Sweeper evicts abandoned conversation flows.
type Sweeper interface {
	Sweep(now time.Time, ttl time.Duration) (int, error)
}

type JanitorConfig struct {
	Interval time.Duration
	TTL      time.Duration
}

// StartJanitor runs sweeper every cfg.Interval. The caller owns Shutdown.
func StartJanitor(clock clockwork.Clock, sweeper Sweeper, cfg JanitorConfig, log zerolog.Logger) (gocron.Scheduler, error) {
	log = log.With().Str("component", "janitor").Logger()

	s, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLogger(cronLogger{log: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("create janitor: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func() {
			n, err := sweeper.Sweep(clock.Now(), cfg.TTL)
			if err != nil {
				log.Error().Err(err).Msg("sweep conversations")
				return
			}
			if n > 0 {
				log.Info().Int("evicted", n).Msg("abandoned flows evicted")
			}
		}),
		gocron.WithName("sweep-conversations"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("register sweep job: %w", err)
	}

	s.Start()
	return s, nil
}

// cronLogger routes gocron's own logging through zerolog.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Debug(msg string, args ...any) { l.log.Debug().Fields(args).Msg(msg) }
func (l cronLogger) Info(msg string, args ...any)  { l.log.Info().Fields(args).Msg(msg) }
func (l cronLogger) Warn(msg string, args ...any)  { l.log.Warn().Fields(args).Msg(msg) }
func (l cronLogger) Error(msg string, args ...any) { l.log.Error().Fields(args).Msg(msg) }
