// Package emoji recognises standard Unicode emoji as Discord accepts them for
// reactions.
package emoji

import (
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

// IsStandardEmoji reports whether text is exactly one Unicode emoji,
// including skin tone, flag, keycap and ZWJ sequences.
func IsStandardEmoji(text string) bool {
	if text == "" || uniseg.GraphemeClusterCount(text) != 1 {
		return false
	}
	if !gomoji.ContainsEmoji(text) {
		return false
	}
	return strings.TrimSpace(gomoji.RemoveEmojis(text)) == ""
}

// variationSelector asks for emoji presentation. Clients differ in whether
// they send it, so it is not part of an emoji's identity.
const variationSelector = "\uFE0F"

// Key returns the form emoji are stored and compared under: the text with
// every emoji presentation selector removed, so "❤" and "❤️" share a key.
func Key(text string) string {
	return strings.ReplaceAll(text, variationSelector, "")
}
