package conversation

import "sync"

// keyLocks hands out one mutex per chat. Entries are dropped once nobody holds
// or waits for them, so the map stays proportional to active chats.
type keyLocks struct {
	mu    sync.Mutex
	locks map[int64]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[int64]*keyLock)}
}

// Lock blocks until chatID is free and returns the matching unlock func.
func (k *keyLocks) Lock(chatID int64) func() {
	k.mu.Lock()
	l, ok := k.locks[chatID]
	if !ok {
		l = &keyLock{}
		k.locks[chatID] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, chatID)
		}
		k.mu.Unlock()
	}
}
