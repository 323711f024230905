package codeact

import "unicode/utf8"

// Role identifies the speaker of a rendered message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the rendered prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryEntry pairs an action with the observation it produced.
type HistoryEntry struct {
	Action      Action
	Observation Observation
}

// History is the chronological list of entries of a session.
type History []HistoryEntry

// Render converts history into messages with DefaultEncoder.
func Render(history History) []Message {
	return DefaultEncoder.Render(history)
}

// BuildPrompt returns the system message, the in-context example as a user
// message and the rendered history, in that order.
func BuildPrompt(system, example string, history History) []Message {
	return DefaultEncoder.BuildPrompt(system, example, history)
}

// Render converts each entry into an optional action message followed by
// an optional observation message, preserving history order.
func (e Encoder) Render(history History) []Message {
	messages := make([]Message, 0, 2*len(history))
	for _, entry := range history {
		if entry.Action != nil {
			if text := e.EncodeAction(entry.Action); text != "" {
				messages = append(messages, Message{Role: actionRole(entry.Action), Content: text})
			}
		}
		if entry.Observation != nil {
			if text, ok := e.EncodeObservation(entry.Observation); ok {
				messages = append(messages, Message{Role: RoleUser, Content: text})
			}
		}
	}
	return messages
}

// BuildPrompt is the Encoder form of the package-level BuildPrompt.
func (e Encoder) BuildPrompt(system, example string, history History) []Message {
	messages := []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: example},
	}
	return append(messages, e.Render(history)...)
}

func actionRole(a Action) Role {
	if m, ok := a.(MessageAction); ok && m.Source == SourceUser {
		return RoleUser
	}
	return RoleAssistant
}

// CountChars returns the number of characters exchanged in one turn: every
// rendered message plus the model reply.
func CountChars(messages []Message, reply string) int {
	total := utf8.RuneCountInString(reply)
	for _, m := range messages {
		total += utf8.RuneCountInString(m.Content)
	}
	return total
}
