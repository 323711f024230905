package codeact

import "strings"

// Tag names of the wire grammar. They are matched case-sensitively.
const (
	TagExecuteBash   = "execute_bash"
	TagExecuteEditor = "execute_editor"
	TagFinish        = "finish"
	TagOperation     = "operation"
	TagPath          = "path"
	TagStart         = "start"
	TagStop          = "stop"
	TagContent       = "content"
)

// closeMatch selects which closing tag ends a span.
type closeMatch int

const (
	// firstClose ends the span at the first closing tag after the opening
	// tag.
	firstClose closeMatch = iota
	// lastClose ends the span at the last closing tag in the text.
	lastClose
)

// span locates one <tag>inner</tag> occurrence inside a text.
type span struct {
	start int // offset of the opening tag
	end   int // offset just past the closing tag
	inner string
}

func openTag(name string) string  { return "<" + name + ">" }
func closeTag(name string) string { return "</" + name + ">" }

// findSpan returns the first opening tag of name together with its closing
// tag. Inner text may span lines.
func findSpan(text, name string, match closeMatch) (span, bool) {
	open, end := openTag(name), closeTag(name)
	i := strings.Index(text, open)
	if i < 0 {
		return span{}, false
	}
	innerStart := i + len(open)

	var j int
	if match == lastClose {
		j = strings.LastIndex(text[innerStart:], end)
	} else {
		j = strings.Index(text[innerStart:], end)
	}
	if j < 0 {
		return span{}, false
	}
	innerEnd := innerStart + j
	return span{
		start: i,
		end:   innerEnd + len(end),
		inner: text[innerStart:innerEnd],
	}, true
}

// without returns text with the span cut out.
func (s span) without(text string) string {
	return text[:s.start] + text[s.end:]
}
