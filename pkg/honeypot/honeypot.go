// Package honeypot implements trap-field bot detection.
//
// The widget renders a form field that is invisible to humans. Naive
// automated submitters fill every field they find, so a non-empty value is a
// strong signal of bot traffic. Callers must mask a positive result as a
// normal success so scripted attackers cannot tell they were filtered.
package honeypot

import "strings"

// IsLikelyBot reports whether the trap field value indicates an automated
// submission. Whitespace-only values are treated as empty.
func IsLikelyBot(trapValue string) bool {
	return strings.TrimSpace(trapValue) != ""
}
