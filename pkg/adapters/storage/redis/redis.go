package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aescanero/agor/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConversationStore keeps each thread's message history in a Redis
// list, one JSON-encoded message per entry, refreshed with a TTL on
// every append.
type ConversationStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewConversationStore creates a Redis conversation store.
func NewConversationStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ConversationStore {
	return &ConversationStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// History returns a thread's messages, oldest first. An unknown thread
// yields an empty history, not an error.
func (s *ConversationStore) History(ctx context.Context, threadID string) ([]domain.Message, error) {
	key := getThreadKey(threadID)

	entries, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	msgs := make([]domain.Message, 0, len(entries))
	for _, entry := range entries {
		var m domain.Message
		if err := json.Unmarshal([]byte(entry), &m); err != nil {
			s.logger.Warn("skipping undecodable message",
				zap.String("thread_id", threadID),
				zap.Error(err))
			continue
		}
		msgs = append(msgs, m)
	}

	return msgs, nil
}

// Append adds messages to a thread's history.
func (s *ConversationStore) Append(ctx context.Context, threadID string, messages []domain.Message) error {
	if len(messages) == 0 {
		return nil
	}
	key := getThreadKey(threadID)

	entries := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		entries = append(entries, string(data))
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, entries...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append messages: %w", err)
	}

	s.logger.Debug("messages appended",
		zap.String("thread_id", threadID),
		zap.Int("count", len(messages)))

	return nil
}

// Delete removes a thread's history.
func (s *ConversationStore) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, getThreadKey(threadID)).Err(); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}

func getThreadKey(threadID string) string {
	return "agor:thread:" + threadID
}
