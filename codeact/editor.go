package codeact

import (
	"strconv"
	"strings"
)

// EditorOp is an operation of the <execute_editor> channel.
type EditorOp string

const (
	OpCreate EditorOp = "create"
	OpRead   EditorOp = "read"
	OpUpdate EditorOp = "update"
)

// editorSynonyms maps operation words models emit interchangeably onto the
// canonical operation.
var editorSynonyms = map[string]EditorOp{
	"create": OpCreate,
	"read":   OpRead,
	"open":   OpRead,
	"update": OpUpdate,
	"edit":   OpUpdate,
}

// NormalizeEditorOp returns the canonical operation for word.
func NormalizeEditorOp(word string) (EditorOp, bool) {
	op, ok := editorSynonyms[strings.TrimSpace(word)]
	return op, ok
}

// EditorPayload is the parsed body of an <execute_editor> span. Start, Stop
// and Content are only set for OpUpdate.
type EditorPayload struct {
	Op      EditorOp
	Path    string
	Start   int
	Stop    int
	Content string
}

// Action converts the payload into the matching action.
func (p EditorPayload) Action(thought string) Action {
	switch p.Op {
	case OpCreate:
		return CreateFileAction{Path: p.Path, Thought: thought}
	case OpRead:
		return ReadFileAction{Path: p.Path, Thought: thought}
	default:
		return UpdateFileAction{
			Path:    p.Path,
			Start:   p.Start,
			Stop:    p.Stop,
			Content: p.Content,
			Thought: thought,
		}
	}
}

// ParseEditor parses the inner text of an <execute_editor> span. The
// returned error is a *TagError wrapping ErrMalformedTag,
// ErrUnknownOperation or ErrInvalidRange.
func ParseEditor(inner string) (EditorPayload, error) {
	word, err := requiredTag(inner, TagOperation)
	if err != nil {
		return EditorPayload{}, err
	}
	path, err := requiredTag(inner, TagPath)
	if err != nil {
		return EditorPayload{}, err
	}
	path = strings.TrimSpace(path)

	op, ok := NormalizeEditorOp(word)
	if !ok {
		return EditorPayload{}, &TagError{
			Tag:    TagOperation,
			Reason: strconv.Quote(word),
			Err:    ErrUnknownOperation,
		}
	}

	switch op {
	case OpCreate, OpRead:
		return EditorPayload{Op: op, Path: path}, nil
	}

	start, err := intTag(inner, TagStart)
	if err != nil {
		return EditorPayload{}, err
	}
	stop, err := intTag(inner, TagStop)
	if err != nil {
		return EditorPayload{}, err
	}
	content, err := requiredTag(inner, TagContent)
	if err != nil {
		return EditorPayload{}, err
	}

	update := UpdateFileAction{Path: path, Start: start, Stop: stop}
	if update.Validate() != nil {
		return EditorPayload{}, &TagError{
			Reason: "start " + strconv.Itoa(start) + ", stop " + strconv.Itoa(stop),
			Err:    ErrInvalidRange,
		}
	}

	return EditorPayload{
		Op:      OpUpdate,
		Path:    path,
		Start:   start,
		Stop:    stop,
		Content: content,
	}, nil
}

func requiredTag(text, name string) (string, error) {
	s, ok := findSpan(text, name, firstClose)
	if !ok {
		return "", &TagError{Tag: name, Reason: "missing", Err: ErrMalformedTag}
	}
	return s.inner, nil
}

func intTag(text, name string) (int, error) {
	raw, err := requiredTag(text, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &TagError{Tag: name, Reason: "not an integer: " + strconv.Quote(raw), Err: ErrMalformedTag}
	}
	return n, nil
}
