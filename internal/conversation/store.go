package conversation

import (
	"sync"

	"telegram-reminder-bot/internal/models"
)

// Store persists conversation states. Implementations must be safe for
// concurrent use; per-chat ordering is enforced by Machine, not by the store.
type Store interface {
	Load(chatID int64) (models.ConversationState, bool, error)
	Save(st models.ConversationState) error
	Delete(chatID int64) error
	All() ([]models.ConversationState, error)
}

// MemoryStore is a volatile Store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[int64]models.ConversationState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]models.ConversationState)}
}

func (s *MemoryStore) Load(chatID int64) (models.ConversationState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[chatID]
	return st, ok, nil
}

func (s *MemoryStore) Save(st models.ConversationState) error {
	s.mu.Lock()
	s.states[st.ChatID] = st
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(chatID int64) error {
	s.mu.Lock()
	delete(s.states, chatID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) All() ([]models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]models.ConversationState, 0, len(s.states))
	for _, st := range s.states {
		res = append(res, st)
	}
	return res, nil
}
