package codeact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	history := History{
		{Action: NewUserMessage("fix the build"), Observation: NullObservation{}},
		{
			Action:      CommandAction{Command: "make", Thought: "build it"},
			Observation: CommandOutput{Content: "error: x", CommandID: 0, ExitCode: 2},
		},
		{
			Action:      FinishAction{Thought: "gave up"},
			Observation: ReadFileResult{Path: "a", Content: "orphan"},
		},
		{Action: NewAgentMessage("which target?"), Observation: nil},
	}

	got := Render(history)

	want := []Message{
		{Role: RoleUser, Content: "fix the build"},
		{Role: RoleAssistant, Content: "build it\n<execute_bash>\nmake\n</execute_bash>"},
		{Role: RoleUser, Content: "OBSERVATION:\nerror: x\n[Command 0 finished with exit code 2]]"},
		{Role: RoleUser, Content: "OBSERVATION:\norphan"},
		{Role: RoleAssistant, Content: "which target?"},
	}
	assert.Equal(t, want, got)
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, Render(nil))
}

func TestBuildPrompt(t *testing.T) {
	history := History{{Action: NewUserMessage("hi"), Observation: NullObservation{}}}

	got := BuildPrompt("sys", "example", history)

	require.Len(t, got, 3)
	assert.Equal(t, Message{Role: RoleSystem, Content: "sys"}, got[0])
	assert.Equal(t, Message{Role: RoleUser, Content: "example"}, got[1])
	assert.Equal(t, Message{Role: RoleUser, Content: "hi"}, got[2])
}

func TestCountChars(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "abc"},
		{Role: RoleUser, Content: "héllo"},
	}
	assert.Equal(t, 3+5+2, CountChars(messages, "ok"))
	assert.Equal(t, 0, CountChars(nil, ""))
}
