package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatest(t *testing.T) {
	assert.Equal(t, Message{}, Latest(nil))

	msgs := []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "second"},
	}
	assert.Equal(t, "second", Latest(msgs).Content)
}

func TestFilterInternal(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, Content: "routing to researcher", Internal: true},
		{Role: RoleAssistant, Content: "findings"},
	}

	filtered := FilterInternal(msgs)
	assert.Len(t, filtered, 2)
	assert.Equal(t, "question", filtered[0].Content)
	assert.Equal(t, "findings", filtered[1].Content)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(&RoutingError{Err: errors.New("x")}))
	assert.False(t, IsFatal(&NodeExecutionError{NodeID: "n", Err: errors.New("x")}))
	assert.False(t, IsFatal(errors.New("x")))
	assert.False(t, IsFatal(nil))
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("timeout")
	assert.ErrorIs(t, &RoutingError{Err: cause}, cause)
	assert.ErrorIs(t, &NodeExecutionError{NodeID: "n", Err: cause}, cause)
}
