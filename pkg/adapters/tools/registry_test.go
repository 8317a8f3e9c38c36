package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCurrentTime())

	tool, ok := r.Get("current_time")
	require.True(t, ok)
	assert.Equal(t, "current_time", tool.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryDescriptorsSkipUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCurrentTime())
	r.Register(NewWebSearch())

	descs := r.Descriptors([]string{"current_time", "nope", "web_search"})
	require.Len(t, descs, 2)
	assert.Equal(t, "current_time", descs[0].Name)
	assert.Equal(t, "web_search", descs[1].Name)
	assert.NotEmpty(t, descs[0].Description)
	assert.NotEmpty(t, descs[0].InputSchema)
}

func TestCurrentTimeDefaultsToUTC(t *testing.T) {
	tool := NewCurrentTime()

	out, err := tool.Invoke(context.Background(), nil)
	require.NoError(t, err)

	parsed, err := time.Parse(time.RFC1123, out)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, time.Minute)
}

func TestCurrentTimeWithTimezone(t *testing.T) {
	tool := NewCurrentTime()

	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"timezone":"Europe/Madrid"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = tool.Invoke(context.Background(), json.RawMessage(`{"timezone":"Nowhere/Atlantis"}`))
	assert.Error(t, err)
}

func TestWebSearchRequiresQuery(t *testing.T) {
	tool := NewWebSearch()

	_, err := tool.Invoke(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)

	_, err = tool.Invoke(context.Background(), json.RawMessage(`{"query":"   "}`))
	assert.Error(t, err)

	_, err = tool.Invoke(context.Background(), json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestWebSearchSchemaIsValidJSON(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal(NewWebSearch().InputSchema(), &schema))
	assert.Equal(t, "object", schema["type"])
}
