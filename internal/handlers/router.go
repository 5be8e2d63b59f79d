package handlers

import "sync"

// Router runs events of one chat strictly in arrival order while different
// chats are handled concurrently. A chat's worker exits once its queue drains.
type Router struct {
	mu     sync.Mutex
	queues map[int64][]func()
	wg     sync.WaitGroup
}

func NewRouter() *Router {
	return &Router{queues: make(map[int64][]func())}
}

// Dispatch queues fn behind earlier events of the same chat.
func (r *Router) Dispatch(chatID int64, fn func()) {
	r.mu.Lock()
	q, busy := r.queues[chatID]
	r.queues[chatID] = append(q, fn)
	if !busy {
		r.wg.Add(1)
		go r.drain(chatID)
	}
	r.mu.Unlock()
}

// Wait blocks until every queued event has been handled.
func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) drain(chatID int64) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		q := r.queues[chatID]
		if len(q) == 0 {
			delete(r.queues, chatID)
			r.mu.Unlock()
			return
		}
		fn := q[0]
		q[0] = nil
		r.queues[chatID] = q[1:]
		r.mu.Unlock()

		fn()
	}
}
