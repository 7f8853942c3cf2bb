// Package sanitize neutralizes markup in user-authored text before it
// enters the chat log.
package sanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer converts raw text into a form safe for storage and
// display. Implementations must be pure: no side effects, no failure
// mode.
type Sanitizer interface {
	Sanitize(raw string) string
}

// HTML escapes markup-significant characters, equivalent to assigning
// the text to a DOM text node: content is preserved, never deleted.
// Applied to user-authored text only; QA service responses are
// trusted plain text.
type HTML struct {
	policy *bluemonday.Policy
}

func NewHTML() *HTML {
	return &HTML{policy: bluemonday.StrictPolicy()}
}

func (s *HTML) Sanitize(raw string) string {
	// Escape first: the input must survive as text, so "<HDMI>" stays
	// readable instead of being stripped as a tag. StrictPolicy then
	// guards the escaped result, which it passes through untouched.
	return s.policy.Sanitize(html.EscapeString(raw))
}
