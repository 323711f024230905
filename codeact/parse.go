package codeact

import "strings"

// ExitCommand, issued through the bash channel, finishes the session.
const ExitCommand = "exit"

// InvalidEditorOperation is the message content produced for an editor
// span that cannot be parsed.
const InvalidEditorOperation = "Invalid editor operation"

// Branch names the precedence rule that produced a parsed action.
type Branch string

const (
	BranchFinish  Branch = "finish"
	BranchBash    Branch = "bash"
	BranchEditor  Branch = "editor"
	BranchMessage Branch = "message"
)

// ParseResult is the detailed outcome of parsing a reply.
type ParseResult struct {
	Action Action
	Branch Branch
	// Err is the editor error that was recovered from, if any.
	Err error
}

// rule tries to recognize one tagged span in a reply.
type rule struct {
	branch Branch
	tag    string
	match  closeMatch
	build  func(inner, thought string) (Action, error)
}

// precedence is checked in order and the first matching rule wins. A
// reply holding both a bash and an editor span is a bash command; the
// editor span becomes part of the discarded thought.
var precedence = []rule{
	{branch: BranchFinish, tag: TagFinish, match: lastClose, build: buildFinish},
	{branch: BranchBash, tag: TagExecuteBash, match: firstClose, build: buildCommand},
	{branch: BranchEditor, tag: TagExecuteEditor, match: firstClose, build: buildEditor},
}

// Parse turns a repaired model reply into exactly one action. It never
// fails: an unusable editor span yields an "Invalid editor operation"
// message and untagged text yields a message to the user.
func Parse(reply string) Action {
	return ParseDetailed(reply).Action
}

// ParseDetailed is Parse with the branch taken and any recovered error.
func ParseDetailed(reply string) ParseResult {
	for _, r := range precedence {
		s, ok := findSpan(reply, r.tag, r.match)
		if !ok {
			continue
		}
		thought := strings.TrimSpace(s.without(reply))
		action, err := r.build(s.inner, thought)
		if err != nil {
			return ParseResult{Action: NewAgentMessage(InvalidEditorOperation), Branch: r.branch, Err: err}
		}
		return ParseResult{Action: action, Branch: r.branch}
	}
	return ParseResult{Action: NewAgentMessage(reply), Branch: BranchMessage}
}

func buildFinish(_, thought string) (Action, error) {
	return FinishAction{Thought: thought}, nil
}

func buildCommand(inner, thought string) (Action, error) {
	command := strings.TrimSpace(inner)
	if command == ExitCommand {
		return FinishAction{}, nil
	}
	return CommandAction{Command: command, Thought: thought}, nil
}

func buildEditor(inner, thought string) (Action, error) {
	payload, err := ParseEditor(strings.TrimSpace(inner))
	if err != nil {
		return nil, err
	}
	return payload.Action(thought), nil
}
