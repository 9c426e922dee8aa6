package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// WordCount returns the number of maximal non-whitespace runs in text.
// Deterministic: the same text always yields the same count.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CharacterCount returns the number of runes in text.
func CharacterCount(text string) int {
	return utf8.RuneCountInString(text)
}

// isBlank reports whether s is empty or whitespace-only. Blank extracted
// text is always a terminal failure, never a valid result.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// collapseSpaces normalises runs of whitespace (except newlines) to a
// single space and trims the result. Newlines are preserved so paragraph
// structure survives for later conversion.
func collapseSpaces(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		default:
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
