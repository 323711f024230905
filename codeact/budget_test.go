package codeact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotateTurnBudget(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleUser, Content: "latest"},
		{Role: RoleAssistant, Content: "thinking"},
	}

	action, err := AnnotateTurnBudget(messages, 3)
	require.NoError(t, err)
	assert.Nil(t, action)

	assert.Equal(t, "first", messages[1].Content)
	assert.Equal(t, "latest\n\nENVIRONMENT REMINDER: You have 3 turns left to complete the task.", messages[2].Content)
	assert.Equal(t, "thinking", messages[3].Content)
}

func TestAnnotateTurnBudgetNonPositive(t *testing.T) {
	for _, n := range []int{0, -2} {
		messages := []Message{{Role: RoleUser, Content: "go"}}
		_, err := AnnotateTurnBudget(messages, n)
		require.NoError(t, err)
		assert.Equal(t, "go"+TurnReminder(n), messages[0].Content)
	}
}

func TestAnnotateTurnBudgetExit(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "  /exit\n"},
	}

	action, err := AnnotateTurnBudget(messages, 5)
	require.NoError(t, err)
	assert.Equal(t, FinishAction{}, action)
	assert.Equal(t, "  /exit\n", messages[1].Content)
}

func TestAnnotateTurnBudgetNoUserMessage(t *testing.T) {
	messages := []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleAssistant, Content: "hi"}}

	_, err := AnnotateTurnBudget(messages, 1)
	assert.ErrorIs(t, err, ErrNoUserMessage)

	_, err = AnnotateTurnBudget(nil, 1)
	assert.ErrorIs(t, err, ErrNoUserMessage)
}
