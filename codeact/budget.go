package codeact

import (
	"fmt"
	"strings"
)

// ExitDirective, sent as the whole user message, ends the session without
// consulting the model.
const ExitDirective = "/exit"

// AnnotateTurnBudget appends a reminder of the remaining turns to the last
// user message, modifying messages in place. If that message is the exit
// directive it is left untouched and a FinishAction is returned instead.
// It returns ErrNoUserMessage if messages contains no user message.
func AnnotateTurnBudget(messages []Message, turnsLeft int) (Action, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != RoleUser {
			continue
		}
		if strings.TrimSpace(messages[i].Content) == ExitDirective {
			return FinishAction{}, nil
		}
		messages[i].Content += TurnReminder(turnsLeft)
		return nil, nil
	}
	return nil, ErrNoUserMessage
}

// TurnReminder is the suffix AnnotateTurnBudget appends.
func TurnReminder(turnsLeft int) string {
	return fmt.Sprintf("\n\nENVIRONMENT REMINDER: You have %d turns left to complete the task.", turnsLeft)
}
