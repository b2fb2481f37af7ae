package textstats

import (
	"strings"
	"unicode"
)

// Normalize drops every rune of token that is not a letter and lowercases
// the rest, keeping their order. A token without letters normalizes to "".
func Normalize(token string) string {
	var sb strings.Builder
	sb.Grow(len(token))
	for _, r := range token {
		if unicode.IsLetter(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// sentenceClosers may trail the terminal punctuation of a sentence.
const sentenceClosers = "\"'’”)]»"

// endsSentence reports whether a raw token closes a sentence: its last
// character, ignoring closing quotes and brackets, is '.', '!' or '?'.
func endsSentence(token string) bool {
	token = strings.TrimRight(token, sentenceClosers)
	if token == "" {
		return false
	}
	switch token[len(token)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
