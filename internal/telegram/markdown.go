package telegram

import (
	"strings"
	"unicode/utf8"
)

const MaxMessageLen = 4096

// SplitMessage splits a message into chunks of maxLen runes, preferring to
// split at newlines when one falls in the second half of a chunk.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if utf8.RuneCountInString(text) <= maxLen {
			parts = append(parts, text)
			break
		}

		runes := []rune(text)
		splitAt := maxLen

		// Search for the newline in rune space; a byte index would overshoot
		// on multibyte text.
		for i := maxLen - 1; i > maxLen/2; i-- {
			if runes[i] == '\n' {
				splitAt = i + 1
				break
			}
		}

		parts = append(parts, string(runes[:splitAt]))
		text = string(runes[splitAt:])
	}

	return parts
}

// FixMarkdown closes unbalanced code fences and inline code spans so Telegram
// does not reject the message outright.
func FixMarkdown(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}
	return fixInlineCode(text)
}

func fixInlineCode(text string) string {
	var builder strings.Builder
	inCodeBlock := false
	inlineOpen := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && string(runes[i:i+3]) == "```" {
			if inlineOpen {
				builder.WriteRune('`')
				inlineOpen = false
			}
			inCodeBlock = !inCodeBlock
			builder.WriteString("```")
			i += 2
			continue
		}

		if !inCodeBlock && runes[i] == '`' {
			inlineOpen = !inlineOpen
		}

		builder.WriteRune(runes[i])
	}

	if inlineOpen {
		builder.WriteRune('`')
	}

	return builder.String()
}
