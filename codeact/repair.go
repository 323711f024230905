package codeact

import (
	"strings"
	"unicode"
)

// StopSequences end generation right after the model has issued a command,
// so a reply never carries more than one tagged span.
var StopSequences = []string{
	closeTag(TagExecuteEditor),
	closeTag(TagExecuteBash),
}

// repairFamilies are checked in order by Repair.
var repairFamilies = []string{TagExecuteBash, TagExecuteEditor}

// minPartialClose is the shortest closing-tag prefix ("</") that Repair
// completes in place rather than appending a whole closing tag.
const minPartialClose = 2

// Repair closes execute tags left open because generation stopped at a stop
// sequence. For each family whose opening tag is present and closing tag
// absent, the closing tag is appended; a reply already ending in a prefix
// of it, possibly followed by whitespace, is completed instead. Repair is
// idempotent.
func Repair(reply string) string {
	for _, family := range repairFamilies {
		open, end := openTag(family), closeTag(family)
		if !strings.Contains(reply, open) || strings.Contains(reply, end) {
			continue
		}
		trimmed := strings.TrimRightFunc(reply, unicode.IsSpace)
		if n := partialClose(trimmed, end); n > 0 {
			reply = trimmed + end[n:]
		} else {
			reply += end
		}
	}
	return reply
}

// partialClose returns the length of the longest proper prefix of tag that
// ends text, or 0 when it is shorter than minPartialClose.
func partialClose(text, tag string) int {
	for n := len(tag) - 1; n >= minPartialClose; n-- {
		if strings.HasSuffix(text, tag[:n]) {
			return n
		}
	}
	return 0
}
