package memory

import (
	"context"
	"sync"

	"github.com/aescanero/agor/pkg/domain"
)

// ConversationStore keeps thread histories in process memory. Useful
// for tests and deployments that do not need persistence.
type ConversationStore struct {
	mu      sync.RWMutex
	threads map[string][]domain.Message
}

// NewConversationStore creates an in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{threads: make(map[string][]domain.Message)}
}

// History returns a copy of a thread's messages, oldest first.
func (s *ConversationStore) History(ctx context.Context, threadID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.threads[threadID]
	msgs := make([]domain.Message, len(stored))
	copy(msgs, stored)
	return msgs, nil
}

// Append adds messages to a thread's history.
func (s *ConversationStore) Append(ctx context.Context, threadID string, messages []domain.Message) error {
	if len(messages) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads[threadID] = append(s.threads[threadID], messages...)
	return nil
}

// Delete removes a thread's history.
func (s *ConversationStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads, threadID)
	return nil
}
