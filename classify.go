package dyntl

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var urlPattern = regexp.MustCompile(`(?i)^(?:[a-z][a-z0-9+.\-]*://\S*|data:\S*|www\.\S+|mailto:\S+)$`)

// IsEligible reports whether a string leaf should be sent for translation.
// Strings shorter than minLength runes (after trimming), URLs including
// data URIs, and anything containing markup tags are rejected. A
// non-positive minLength means DefaultMinLength.
func IsEligible(text string, minLength int) bool {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minLength {
		return false
	}

	if IsURL(trimmed) {
		return false
	}

	return !ContainsMarkup(trimmed)
}

// IsURL reports whether text is a single URL, data URI or mail link.
func IsURL(text string) bool {
	return urlPattern.MatchString(strings.TrimSpace(text))
}

// ContainsMarkup reports whether text contains HTML/XML tag syntax.
// Plain comparisons like "a < b" are not markup.
func ContainsMarkup(text string) bool {
	if !strings.ContainsRune(text, '<') {
		return false
	}

	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or an unterminated "<..." fragment that never formed a tag.
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken,
			html.CommentToken, html.DoctypeToken:
			return true
		}
	}
}
