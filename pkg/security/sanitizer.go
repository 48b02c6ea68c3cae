package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from user-supplied free text before it is stored.
// A bluemonday policy is safe for concurrent use once built.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text removes all HTML and returns plain text. Entities produced by the
// policy are unescaped so that "R&D" stays "R&D".
func (s *Sanitizer) Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(input)))
}
