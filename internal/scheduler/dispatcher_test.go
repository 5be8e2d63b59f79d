package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"telegram-reminder-bot/internal/models"
)

var start = time.Date(2030, time.May, 20, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	got  []models.Reminder
	fail bool
	ch   chan models.Reminder
}

func newRecorder() *recorder { return &recorder{ch: make(chan models.Reminder, 64)} }

func (r *recorder) deliver(_ context.Context, rem models.Reminder) error {
	r.mu.Lock()
	r.got = append(r.got, rem)
	fail := r.fail
	r.mu.Unlock()
	r.ch <- rem
	if fail {
		return errors.New("telegram: bad gateway")
	}
	return nil
}

func (r *recorder) wait(t *testing.T) models.Reminder {
	t.Helper()
	select {
	case rem := <-r.ch:
		return rem
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return models.Reminder{}
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case rem := <-r.ch:
		t.Fatalf("unexpected delivery: %+v", rem)
	case <-time.After(50 * time.Millisecond):
	}
}

func runDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func blockUntil(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("waiting for %d timers: %v", n, err)
	}
}

func TestDispatcherFiresAtDeadline(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(start)
	rec := newRecorder()
	d := NewDispatcher(clock, rec.deliver, 0, zerolog.Nop())

	h := d.Schedule(start.Add(10*time.Minute), 42, "buy milk")
	if h.ID == "" || !h.FiresAt.Equal(start.Add(10*time.Minute)) {
		t.Fatalf("handle = %+v", h)
	}
	runDispatcher(t, d)

	blockUntil(t, clock, 1)
	clock.Advance(9 * time.Minute)
	rec.none(t)

	clock.Advance(time.Minute)
	got := rec.wait(t)
	if got.ChatID != 42 || got.Text != "buy milk" || got.ID != h.ID {
		t.Fatalf("delivered %+v", got)
	}
	rec.none(t)
	if n := d.Pending(); n != 0 {
		t.Fatalf("Pending = %d after firing", n)
	}
}

func TestDispatcherPastDeadlineFiresImmediately(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(start)
	rec := newRecorder()
	d := NewDispatcher(clock, rec.deliver, 0, zerolog.Nop())
	runDispatcher(t, d)

	d.Schedule(start.Add(-time.Minute), 1, "late")
	if got := rec.wait(t); got.Text != "late" {
		t.Fatalf("delivered %+v", got)
	}

	d.Schedule(start, 1, "now")
	if got := rec.wait(t); got.Text != "now" {
		t.Fatalf("delivered %+v", got)
	}
}

func TestDispatcherOrdersByDeadline(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(start)
	rec := newRecorder()
	d := NewDispatcher(clock, rec.deliver, 0, zerolog.Nop())

	d.Schedule(start.Add(3*time.Minute), 7, "third")
	d.Schedule(start.Add(time.Minute), 7, "first")
	d.Schedule(start.Add(2*time.Minute), 7, "second")
	d.Schedule(start.Add(2*time.Minute), 7, "second-tie")
	runDispatcher(t, d)

	blockUntil(t, clock, 1)
	clock.Advance(5 * time.Minute)

	for _, want := range []string{"first", "second", "second-tie", "third"} {
		if got := rec.wait(t); got.Text != want {
			t.Fatalf("delivered %q, want %q", got.Text, want)
		}
	}
}

func TestDispatcherEarlierJobWakesWaiter(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(start)
	rec := newRecorder()
	d := NewDispatcher(clock, rec.deliver, 0, zerolog.Nop())
	runDispatcher(t, d)

	d.Schedule(start.Add(time.Hour), 1, "later")
	blockUntil(t, clock, 1)

	d.Schedule(start.Add(time.Minute), 2, "sooner")
	blockUntil(t, clock, 1)
	clock.Advance(time.Minute)

	if got := rec.wait(t); got.Text != "sooner" {
		t.Fatalf("delivered %q, want sooner", got.Text)
	}
	rec.none(t)
	if n := d.Pending(); n != 1 {
		t.Fatalf("Pending = %d, want 1", n)
	}
}

func TestDispatcherDeliveryFailureConsumesJob(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(start)
	rec := newRecorder()
	rec.fail = true
	d := NewDispatcher(clock, rec.deliver, time.Second, zerolog.Nop())
	runDispatcher(t, d)

	d.Schedule(start, 5, "lost")
	rec.wait(t)
	rec.none(t)
	if n := d.Pending(); n != 0 {
		t.Fatalf("Pending = %d, failed job must not be re-queued", n)
	}

	d.Schedule(start, 5, "next")
	if got := rec.wait(t); got.Text != "next" {
		t.Fatalf("dispatcher stalled after failure, got %+v", got)
	}
}

func TestDispatcherManyChats(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(start)
	rec := newRecorder()
	d := NewDispatcher(clock, rec.deliver, 0, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			d.Schedule(start.Add(time.Duration(id)*time.Second), id, fmt.Sprintf("text-%d", id))
		}(int64(i))
	}
	wg.Wait()
	runDispatcher(t, d)

	blockUntil(t, clock, 1)
	clock.Advance(time.Minute)

	seen := make(map[int64]bool)
	for i := 0; i < 20; i++ {
		got := rec.wait(t)
		if got.Text != fmt.Sprintf("text-%d", got.ChatID) {
			t.Fatalf("chat %d got %q", got.ChatID, got.Text)
		}
		if seen[got.ChatID] {
			t.Fatalf("chat %d delivered twice", got.ChatID)
		}
		seen[got.ChatID] = true
	}
	rec.none(t)
}
