package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"telegram-reminder-bot/internal/models"
)

// DeliverFunc sends a fired reminder to its chat.
type DeliverFunc func(ctx context.Context, r models.Reminder) error

// Dispatcher fires one-shot reminders. Jobs live only in memory and are lost
// on restart. A failed delivery is logged and the job is still consumed.
type Dispatcher struct {
	clock   clockwork.Clock
	deliver DeliverFunc
	timeout time.Duration
	log     zerolog.Logger

	mu   sync.Mutex
	jobs jobQueue
	seq  uint64
	wake chan struct{}
}

// NewDispatcher creates a Dispatcher. timeout bounds a single delivery (0 = none).
func NewDispatcher(clock clockwork.Clock, deliver DeliverFunc, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		clock:   clock,
		deliver: deliver,
		timeout: timeout,
		log:     log.With().Str("component", "dispatcher").Logger(),
		wake:    make(chan struct{}, 1),
	}
}

// Schedule queues a reminder. A deadline that already passed fires on the
// next loop iteration instead of being rejected.
func (d *Dispatcher) Schedule(firesAt time.Time, chatID int64, text string) models.JobHandle {
	r := models.Reminder{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Text:      text,
		FiresAt:   firesAt,
		CreatedAt: d.clock.Now(),
	}
	if !firesAt.After(r.CreatedAt) {
		d.log.Warn().
			Str("job_id", r.ID).
			Int64("chat_id", chatID).
			Time("fires_at", firesAt).
			Msg("deadline already passed, firing immediately")
	}

	d.mu.Lock()
	d.seq++
	j := &job{reminder: r, seq: d.seq}
	heap.Push(&d.jobs, j)
	earliest := d.jobs[0] == j
	d.mu.Unlock()

	if earliest {
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
	return models.JobHandle{ID: r.ID, FiresAt: firesAt}
}

// Pending returns the number of jobs that have not fired yet.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.jobs.Len()
}

// Run sleeps until the earliest deadline and fires due jobs in order.
// It returns when ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info().Msg("dispatcher started")
	defer d.log.Info().Msg("dispatcher stopped")

	for {
		if due := d.popDue(); due != nil {
			d.fire(ctx, due.reminder)
			continue
		}

		var (
			timer clockwork.Timer
			tick  <-chan time.Time
		)
		d.mu.Lock()
		if d.jobs.Len() > 0 {
			wait := d.jobs[0].reminder.FiresAt.Sub(d.clock.Now())
			if wait <= 0 {
				d.mu.Unlock()
				continue
			}
			timer = d.clock.NewTimer(wait)
			tick = timer.Chan()
		}
		d.mu.Unlock()

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-d.wake:
		case <-tick:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (d *Dispatcher) popDue() *job {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.jobs.Len() == 0 || d.jobs[0].reminder.FiresAt.After(d.clock.Now()) {
		return nil
	}
	return heap.Pop(&d.jobs).(*job)
}

func (d *Dispatcher) fire(ctx context.Context, r models.Reminder) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	lag := d.clock.Since(r.FiresAt)
	if err := d.deliver(ctx, r); err != nil {
		d.log.Error().
			Err(err).
			Str("job_id", r.ID).
			Int64("chat_id", r.ChatID).
			Msg("reminder delivery failed, dropping job")
		return
	}
	d.log.Info().
		Str("job_id", r.ID).
		Int64("chat_id", r.ChatID).
		Dur("lag", lag).
		Msg("reminder delivered")
}
