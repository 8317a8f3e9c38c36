package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkupCompleteBlock(t *testing.T) {
	got := stripMarkup(`Let me check. <tool_call>{"name":"get_weather"}</tool_call> Done.`, []string{"tool_call"})
	assert.Equal(t, "Let me check.  Done.", got)
}

func TestStripMarkupMultipleBlocks(t *testing.T) {
	got := stripMarkup("a<tool_call>x</tool_call>b<tool_call>y</tool_call>c", []string{"tool_call"})
	assert.Equal(t, "abc", got)
}

func TestStripMarkupUnterminatedBlock(t *testing.T) {
	got := stripMarkup(`I'll look that up. <tool_call>{"name":"web_se`, []string{"tool_call"})
	assert.Equal(t, "I'll look that up.", got)
}

func TestStripMarkupTruncatedOpeningTag(t *testing.T) {
	assert.Equal(t, "thinking", stripMarkup("thinking<tool_ca", []string{"tool_call"}))
	assert.Equal(t, "thinking", stripMarkup("thinking<", []string{"tool_call"}))
}

func TestStripMarkupNoTags(t *testing.T) {
	assert.Equal(t, "plain text", stripMarkup("  plain text  ", []string{"tool_call"}))
	assert.Equal(t, "a < b", stripMarkup("a < b ", []string{"tool_call"}))
}

func TestStripMarkupCustomTags(t *testing.T) {
	got := stripMarkup("keep<think>hidden</think> this", []string{"tool_call", "think"})
	assert.Equal(t, "keep this", got)
}

func TestStripMarkupOnlyMarkup(t *testing.T) {
	assert.Equal(t, "", stripMarkup("<tool_call>x</tool_call>", []string{"tool_call"}))
}
