package codeact

import (
	"fmt"
	"strings"
)

// ObservationPrefix starts every rendered observation.
const ObservationPrefix = "OBSERVATION:\n"

// Encoder renders actions and observations into protocol text.
type Encoder struct {
	// ReadOperation is the operation word written for a ReadFileAction.
	// OpCreate reproduces the historical rendering, in which reads and
	// creates are indistinguishable in the transcript; OpRead writes a
	// distinct read operation.
	ReadOperation EditorOp

	// MaxObservationChars bounds rendered observations. Zero means
	// DefaultMaxChars.
	MaxObservationChars int
}

// DefaultEncoder is used by the package-level functions.
var DefaultEncoder = Encoder{ReadOperation: OpCreate, MaxObservationChars: DefaultMaxChars}

// EncodeAction renders an action with DefaultEncoder.
func EncodeAction(a Action) string {
	return DefaultEncoder.EncodeAction(a)
}

// EncodeObservation renders an observation with DefaultEncoder.
func EncodeObservation(o Observation) (string, bool) {
	return DefaultEncoder.EncodeObservation(o)
}

// EncodeAction renders a as the text the model would have written to
// request it. Actions without a textual form render as "".
func (e Encoder) EncodeAction(a Action) string {
	switch a := a.(type) {
	case CommandAction:
		return a.Thought + "\n" + openTag(TagExecuteBash) + "\n" + a.Command + "\n" + closeTag(TagExecuteBash)
	case CreateFileAction:
		return editorBlock(a.Thought, OpCreate, a.Path, "")
	case ReadFileAction:
		op := e.ReadOperation
		if op == "" {
			op = OpCreate
		}
		return editorBlock(a.Thought, op, a.Path, "")
	case UpdateFileAction:
		extra := fmt.Sprintf("<start>%d</start><stop>%d</stop><content>%s</content>", a.Start, a.Stop, a.Content)
		return editorBlock(a.Thought, OpUpdate, a.Path, extra)
	case MessageAction:
		return a.Content
	default:
		return ""
	}
}

func editorBlock(thought string, op EditorOp, path, extra string) string {
	var sb strings.Builder
	sb.WriteString(thought)
	sb.WriteString("\n")
	sb.WriteString(openTag(TagExecuteEditor))
	sb.WriteString("\n<operation>")
	sb.WriteString(string(op))
	sb.WriteString("</operation><path>")
	sb.WriteString(path)
	sb.WriteString("</path>")
	sb.WriteString(extra)
	sb.WriteString("\n")
	sb.WriteString(closeTag(TagExecuteEditor))
	return sb.String()
}

// EncodeObservation renders o as environment feedback. The boolean is
// false for observations that produce no message.
func (e Encoder) EncodeObservation(o Observation) (string, bool) {
	limit := e.MaxObservationChars
	if limit <= 0 {
		limit = DefaultMaxChars
	}

	switch o := o.(type) {
	case CommandOutput:
		return ObservationPrefix + Truncate(o.Content, limit) +
			fmt.Sprintf("\n[Command %d finished with exit code %d]]", o.CommandID, o.ExitCode), true
	case CreateFileResult:
		return Truncate(ObservationPrefix+o.Content, limit), true
	case ReadFileResult:
		return Truncate(ObservationPrefix+o.Content, limit), true
	case UpdateFileResult:
		return Truncate(ObservationPrefix+o.Content, limit), true
	default:
		return "", false
	}
}
