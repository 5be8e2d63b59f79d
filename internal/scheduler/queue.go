package scheduler

import "telegram-reminder-bot/internal/models"

type job struct {
	reminder models.Reminder
	seq      uint64
}

// jobQueue is a container/heap min-heap ordered by fire time, then by
// insertion order so equal deadlines fire FIFO.
type jobQueue []*job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	a, b := q[i].reminder.FiresAt, q[j].reminder.FiresAt
	if a.Equal(b) {
		return q[i].seq < q[j].seq
	}
	return a.Before(b)
}

func (q jobQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *jobQueue) Push(x any) { *q = append(*q, x.(*job)) }

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}
