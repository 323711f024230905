package codeact

import "fmt"

// EndOfFile is the Stop value of an UpdateFileAction whose range runs to
// the end of the file.
const EndOfFile = -1

// Source identifies who produced a MessageAction.
type Source string

const (
	SourceUser  Source = "user"
	SourceAgent Source = "agent"
)

// ActionKind discriminates between action variants.
type ActionKind string

const (
	KindCommand    ActionKind = "run"
	KindCreateFile ActionKind = "create"
	KindReadFile   ActionKind = "read"
	KindUpdateFile ActionKind = "update"
	KindMessage    ActionKind = "message"
	KindFinish     ActionKind = "finish"
)

// Action is a structured request emitted by the agent. The set of
// implementations is closed; switch on the concrete type.
type Action interface {
	Kind() ActionKind
	isAction()
}

// CommandAction runs a shell command.
type CommandAction struct {
	Command string `json:"command"`
	Thought string `json:"thought,omitempty"`
}

// CreateFileAction creates an empty file.
type CreateFileAction struct {
	Path    string `json:"path"`
	Thought string `json:"thought,omitempty"`
}

// ReadFileAction reads a file.
type ReadFileAction struct {
	Path    string `json:"path"`
	Thought string `json:"thought,omitempty"`
}

// UpdateFileAction replaces the 0-based lines [Start, Stop) of a file with
// Content. A Stop of EndOfFile runs to the end of the file.
type UpdateFileAction struct {
	Path    string `json:"path"`
	Start   int    `json:"start"`
	Stop    int    `json:"stop"`
	Content string `json:"content"`
	Thought string `json:"thought,omitempty"`
}

// MessageAction is plain text addressed to the other party. Messages from
// the agent usually wait for a user response.
type MessageAction struct {
	Content         string `json:"content"`
	Source          Source `json:"source"`
	WaitForResponse bool   `json:"wait_for_response,omitempty"`
}

// FinishAction ends the session.
type FinishAction struct {
	Thought string `json:"thought,omitempty"`
}

func (CommandAction) Kind() ActionKind    { return KindCommand }
func (CreateFileAction) Kind() ActionKind { return KindCreateFile }
func (ReadFileAction) Kind() ActionKind   { return KindReadFile }
func (UpdateFileAction) Kind() ActionKind { return KindUpdateFile }
func (MessageAction) Kind() ActionKind    { return KindMessage }
func (FinishAction) Kind() ActionKind     { return KindFinish }

func (CommandAction) isAction()    {}
func (CreateFileAction) isAction() {}
func (ReadFileAction) isAction()   {}
func (UpdateFileAction) isAction() {}
func (MessageAction) isAction()    {}
func (FinishAction) isAction()     {}

// Validate reports whether the line range is well formed: Start must not
// exceed Stop unless Stop is EndOfFile.
func (a UpdateFileAction) Validate() error {
	if a.Start < 0 {
		return fmt.Errorf("%w: start %d is negative", ErrInvalidRange, a.Start)
	}
	if a.Stop != EndOfFile && a.Start > a.Stop {
		return fmt.Errorf("%w: start %d is after stop %d", ErrInvalidRange, a.Start, a.Stop)
	}
	return nil
}

// NewUserMessage returns the message a user sends to the agent.
func NewUserMessage(content string) MessageAction {
	return MessageAction{Content: content, Source: SourceUser}
}

// NewAgentMessage returns a message from the agent that waits for the user.
func NewAgentMessage(content string) MessageAction {
	return MessageAction{Content: content, Source: SourceAgent, WaitForResponse: true}
}
