package codeact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAction(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{
			name:   "command",
			action: CommandAction{Command: "ls -la", Thought: "list files"},
			want:   "list files\n<execute_bash>\nls -la\n</execute_bash>",
		},
		{
			name:   "create",
			action: CreateFileAction{Path: "/a.py", Thought: "new file"},
			want:   "new file\n<execute_editor>\n<operation>create</operation><path>/a.py</path>\n</execute_editor>",
		},
		{
			name:   "read renders as create",
			action: ReadFileAction{Path: "/a.py", Thought: "look"},
			want:   "look\n<execute_editor>\n<operation>create</operation><path>/a.py</path>\n</execute_editor>",
		},
		{
			name:   "update",
			action: UpdateFileAction{Path: "/f", Start: 3, Stop: 7, Content: "x", Thought: "fix"},
			want:   "fix\n<execute_editor>\n<operation>update</operation><path>/f</path><start>3</start><stop>7</stop><content>x</content>\n</execute_editor>",
		},
		{
			name:   "message",
			action: NewAgentMessage("which file?"),
			want:   "which file?",
		},
		{
			name:   "finish",
			action: FinishAction{Thought: "done"},
			want:   "",
		},
		{
			name:   "nil",
			action: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeAction(tt.action))
		})
	}
}

func TestEncoderReadOperation(t *testing.T) {
	enc := Encoder{ReadOperation: OpRead}
	got := enc.EncodeAction(ReadFileAction{Path: "/a", Thought: "t"})
	assert.Equal(t, "t\n<execute_editor>\n<operation>read</operation><path>/a</path>\n</execute_editor>", got)

	// The zero Encoder keeps the historical rendering.
	got = Encoder{}.EncodeAction(ReadFileAction{Path: "/a"})
	assert.Contains(t, got, "<operation>create</operation>")
}

func TestEncodeObservation(t *testing.T) {
	t.Run("command output", func(t *testing.T) {
		got, ok := EncodeObservation(CommandOutput{Content: "hello", CommandID: 4, ExitCode: 1})
		require.True(t, ok)
		assert.Equal(t, "OBSERVATION:\nhello\n[Command 4 finished with exit code 1]]", got)
	})

	t.Run("command output is truncated before the footer", func(t *testing.T) {
		content := strings.Repeat("a", DefaultMaxChars+50)
		got, ok := EncodeObservation(CommandOutput{Content: content, CommandID: 1})
		require.True(t, ok)
		assert.Contains(t, got, TruncationMarker)
		assert.True(t, strings.HasSuffix(got, "\n[Command 1 finished with exit code 0]]"))
		assert.Equal(t, len(ObservationPrefix)+DefaultMaxChars+len(TruncationMarker)+len("\n[Command 1 finished with exit code 0]]"), len(got))
	})

	t.Run("file results", func(t *testing.T) {
		for _, obs := range []Observation{
			CreateFileResult{Path: "/a", Success: true, Content: "created"},
			ReadFileResult{Path: "/a", Content: "created"},
			UpdateFileResult{Path: "/a", Success: true, Content: "created"},
		} {
			got, ok := EncodeObservation(obs)
			require.True(t, ok, "%T", obs)
			assert.Equal(t, "OBSERVATION:\ncreated", got)
		}
	})

	t.Run("file result truncation includes the prefix", func(t *testing.T) {
		enc := Encoder{MaxObservationChars: 20}
		got, ok := enc.EncodeObservation(ReadFileResult{Content: strings.Repeat("b", 100)})
		require.True(t, ok)
		assert.Equal(t, "OBSERVATION:\n"[:10]+TruncationMarker+strings.Repeat("b", 10), got)
	})

	t.Run("null observation", func(t *testing.T) {
		_, ok := EncodeObservation(NullObservation{})
		assert.False(t, ok)
		_, ok = EncodeObservation(nil)
		assert.False(t, ok)
	})
}

func TestEditorRoundTrip(t *testing.T) {
	for _, action := range []Action{CreateFileAction{Path: "/a"}, ReadFileAction{Path: "/a"}} {
		s, ok := findSpan(EncodeAction(action), TagExecuteEditor, firstClose)
		require.True(t, ok)
		payload, err := ParseEditor(s.inner)
		require.NoError(t, err)
		assert.Equal(t, "/a", payload.Path)
	}

	s, ok := findSpan(EncodeAction(UpdateFileAction{Path: "/f", Start: 3, Stop: 7, Content: "x"}), TagExecuteEditor, firstClose)
	require.True(t, ok)
	payload, err := ParseEditor(s.inner)
	require.NoError(t, err)
	assert.Equal(t, EditorPayload{Op: OpUpdate, Path: "/f", Start: 3, Stop: 7, Content: "x"}, payload)
}

func TestParseEncodedActions(t *testing.T) {
	enc := Encoder{ReadOperation: OpRead}
	for _, action := range []Action{
		CommandAction{Command: "go test ./...", Thought: "run the tests"},
		CreateFileAction{Path: "main.go", Thought: "start"},
		ReadFileAction{Path: "main.go", Thought: "look"},
		UpdateFileAction{Path: "main.go", Start: 0, Stop: EndOfFile, Content: "package main\n", Thought: "rewrite"},
	} {
		assert.Equal(t, action, Parse(enc.EncodeAction(action)))
	}
}
