package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortTextUntouched(t *testing.T) {
	parts := SplitMessage("curto", MaxMessageLen)
	assert.Equal(t, []string{"curto"}, parts)
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	text := strings.Repeat("a", 80) + "\n" + strings.Repeat("b", 80)
	parts := SplitMessage(text, 100)

	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("a", 80)+"\n", parts[0])
	assert.Equal(t, strings.Repeat("b", 80), parts[1])
}

func TestSplitMessageRespectsMaxLen(t *testing.T) {
	text := strings.Repeat("x", 250)
	for _, part := range SplitMessage(text, 100) {
		assert.LessOrEqual(t, utf8.RuneCountInString(part), 100)
	}
}

func TestSplitMessageMultibyteSplitsAtNewline(t *testing.T) {
	// Accented runes are two bytes each, so byte and rune offsets diverge.
	text := strings.Repeat("ã", 80) + "\n" + strings.Repeat("é", 80)
	parts := SplitMessage(text, 100)

	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("ã", 80)+"\n", parts[0])
	assert.Equal(t, strings.Repeat("é", 80), parts[1])
	for _, part := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(part), 100)
	}
}

func TestFixMarkdownClosesCodeBlocks(t *testing.T) {
	assert.Equal(t, "```go\ncode\n```", FixMarkdown("```go\ncode"))
	assert.Equal(t, "sem mudanças", FixMarkdown("sem mudanças"))
}

func TestFixMarkdownClosesInlineCode(t *testing.T) {
	assert.Equal(t, "um `trecho`", FixMarkdown("um `trecho"))
}
