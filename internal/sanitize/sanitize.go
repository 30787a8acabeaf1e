// Package sanitize cleans user-supplied free text before it is stored in
// the session or forwarded to the backend. Nothing user-supplied is ever
// rendered as HTML, so every tag is stripped.
package sanitize

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all HTML from input and unescapes the entities bluemonday
// leaves behind, so "Tom &amp; Jerry" round-trips as "Tom & Jerry".
func Text(input string) string {
	if input == "" {
		return ""
	}
	return html.UnescapeString(getPolicy().Sanitize(input))
}

// Name cleans a display name: HTML stripped, control characters removed,
// internal whitespace collapsed to single spaces.
func Name(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, Text(input))
	return strings.Join(strings.Fields(cleaned), " ")
}
