package assistant

import (
	"regexp"
	"strings"
)

// The model is only loosely compliant with its formatting instructions, so
// replies pass through an ordered sequence of cosmetic rewrites before
// delivery. Order matters: later rules assume earlier ones already ran.
// FormatReply is idempotent; reapplying it to formatted text is a no-op.

var (
	// **text** -> *text* (transport emphasis convention)
	boldRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	// Bullet items missing a trailing line break.
	bulletRe = regexp.MustCompile(`•[ \t]*([^\n•]+?)[ \t]*(\n|$)`)
	// Numbered items missing a trailing line break. The item text must not
	// start with a digit: "1.5 km" is a decimal, not a list item.
	numberedRe = regexp.MustCompile(`(?m)^(\d+\.)[ \t]*([^\n\d \t][^\n]*?)[ \t]*(\n|$)`)
	// Section-heading emojis force a paragraph break before them.
	sectionEmojiRe = regexp.MustCompile(`[ \t]*(📋|📱|⏱️|✅|🚗|💰|🎯|📍|💳)`)
	// Runs of three or more line breaks collapse to exactly two.
	excessBreaksRe = regexp.MustCompile(`\n{3,}`)
)

// FormatReply normalizes raw model output into display-ready text.
func FormatReply(raw string) string {
	s := boldRe.ReplaceAllString(raw, "*$1*")
	s = bulletRe.ReplaceAllString(s, "• $1\n")
	s = numberedRe.ReplaceAllString(s, "$1 $2\n")
	s = sectionEmojiRe.ReplaceAllString(s, "\n\n$1")
	s = excessBreaksRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
