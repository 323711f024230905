package codeact

// DefaultMaxChars is the observation length above which the middle of the
// text is dropped.
const DefaultMaxChars = 10000

// TruncationMarker replaces the discarded middle of a truncated text.
const TruncationMarker = "\n[... Observation truncated due to length ...]\n"

// Truncate keeps the first and last maxChars/2 characters of text and
// replaces the middle with TruncationMarker. Text that already fits is
// returned unchanged. Lengths are counted in runes.
func Truncate(text string, maxChars int) string {
	// Byte length bounds rune length, so this covers the common case
	// without decoding.
	if len(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	half := maxChars / 2
	if half < 0 {
		half = 0
	}
	return string(runes[:half]) + TruncationMarker + string(runes[len(runes)-half:])
}
