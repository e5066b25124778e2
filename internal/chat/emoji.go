package chat

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Reaction glyphs used for confirmations and status ticks.
const (
	Yes   = "✅" // WHITE HEAVY CHECK MARK
	No    = "❌" // CROSS MARK
	Maybe = "⚠" // WARNING SIGN
)

// variationSelector16 requests emoji presentation. Platforms add or drop it
// freely, so it never takes part in comparisons.
const variationSelector16 = "\uFE0F"

// NormalizeEmoji returns the comparison form of an emoji: NFC with
// presentation selectors removed.
func NormalizeEmoji(s string) string {
	return norm.NFC.String(strings.ReplaceAll(s, variationSelector16, ""))
}

// SameEmoji reports whether a and b denote the same emoji.
func SameEmoji(a, b string) bool {
	return NormalizeEmoji(a) == NormalizeEmoji(b)
}

// Mark is a tri-state status tick.
type Mark int

const (
	MarkMaybe Mark = iota
	MarkYes
	MarkNo
)

// MarkOf maps a boolean outcome to a tick; nil means undetermined.
func MarkOf(v *bool) Mark {
	switch {
	case v == nil:
		return MarkMaybe
	case *v:
		return MarkYes
	default:
		return MarkNo
	}
}

// Glyph returns the emoji for the mark.
func (m Mark) Glyph() string {
	switch m {
	case MarkYes:
		return Yes
	case MarkNo:
		return No
	default:
		return Maybe
	}
}

func (m Mark) String() string {
	switch m {
	case MarkYes:
		return "yes"
	case MarkNo:
		return "no"
	default:
		return "maybe"
	}
}
