package memory

import (
	"context"
	"testing"

	"github.com/aescanero/agor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryUnknownThreadIsEmpty(t *testing.T) {
	s := NewConversationStore()

	msgs, err := s.History(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAppendAndHistory(t *testing.T) {
	s := NewConversationStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "t1", []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
	}))
	require.NoError(t, s.Append(ctx, "t1", []domain.Message{
		{Role: domain.RoleAssistant, Content: "hi", Name: "responder"},
	}))

	msgs, err := s.History(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "responder", msgs[1].Name)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewConversationStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "t1", []domain.Message{{Role: domain.RoleUser, Content: "original"}}))

	msgs, err := s.History(ctx, "t1")
	require.NoError(t, err)
	msgs[0].Content = "mutated"

	again, err := s.History(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestDelete(t *testing.T) {
	s := NewConversationStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "t1", []domain.Message{{Role: domain.RoleUser, Content: "x"}}))
	require.NoError(t, s.Delete(ctx, "t1"))

	msgs, err := s.History(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
