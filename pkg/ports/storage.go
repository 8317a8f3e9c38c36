package ports

import (
	"context"

	"github.com/aescanero/agor/pkg/domain"
)

// ConversationStore supplies the ordered message list for a run and
// receives the messages appended during it.
type ConversationStore interface {
	// History returns the stored messages for a thread, oldest first.
	History(ctx context.Context, threadID string) ([]domain.Message, error)

	// Append adds messages to a thread at run end.
	Append(ctx context.Context, threadID string, messages []domain.Message) error
}
