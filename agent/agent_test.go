package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/codeact/codeact"
	"github.com/martinemde/codeact/llm"
	"github.com/martinemde/codeact/llm/mock"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAgent(p *mock.Provider, opts ...Option) *Agent {
	client := llm.NewClient(llm.WithProvider(p))
	opts = append([]Option{WithLogger(quietLogger()), WithModel("test-model")}, opts...)
	return New(client, opts...)
}

func taskState(task string) *State {
	return &State{
		History:       codeact.History{{Action: codeact.NewUserMessage(task)}},
		MaxIterations: 5,
	}
}

func TestStepParsesBashReply(t *testing.T) {
	p := mock.New("Let me look.\n<execute_bash>\nls -la\n")
	a := newTestAgent(p)

	res, err := a.Step(context.Background(), taskState("list files"))
	require.NoError(t, err)

	assert.Equal(t, codeact.CommandAction{Command: "ls -la", Thought: "Let me look."}, res.Action)
	assert.Equal(t, codeact.BranchBash, res.Branch)
	assert.True(t, strings.HasSuffix(res.Reply, "</execute_bash>"), "reply should be repaired")
	assert.Nil(t, res.Recovered)
}

func TestStepRequestShape(t *testing.T) {
	p := mock.New("done")
	a := newTestAgent(p, WithSystemPrompt("SYS"), WithExample("EXAMPLE"), WithMaxTokens(256))

	_, err := a.Step(context.Background(), taskState("task"))
	require.NoError(t, err)

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]

	assert.Equal(t, "test-model", req.Model)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.0, *req.Temperature)
	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 256, *req.MaxTokens)
	assert.Equal(t, codeact.StopSequences, req.StopSequences)

	require.Len(t, req.Messages, 3)
	assert.Equal(t, llm.SystemMessage("SYS"), req.Messages[0])
	assert.Equal(t, llm.UserMessage("EXAMPLE"), req.Messages[1])
	assert.Equal(t, "task\n\nENVIRONMENT REMINDER: You have 5 turns left to complete the task.", req.Messages[2].Content)
}

func TestStepCharacterCount(t *testing.T) {
	p := mock.New("hi")
	a := newTestAgent(p, WithSystemPrompt("abc"), WithExample("de"))

	st := taskState("f")
	res, err := a.Step(context.Background(), st)
	require.NoError(t, err)

	reminder := codeact.TurnReminder(5)
	assert.Equal(t, len("abc")+len("de")+len("f"+reminder)+len("hi"), res.Chars)
	assert.Equal(t, 0, st.NumChars, "Step must not mutate the caller's state")
}

func TestStepExitDirective(t *testing.T) {
	p := mock.New("should not be used")
	a := newTestAgent(p)

	res, err := a.Step(context.Background(), taskState("  /exit  "))
	require.NoError(t, err)

	assert.Equal(t, codeact.FinishAction{}, res.Action)
	assert.Empty(t, res.Reply)
	assert.Empty(t, p.Requests())
}

func TestStepRecoversInvalidEditor(t *testing.T) {
	p := mock.New("<execute_editor>\n<operation>delete</operation><path>a.txt</path>\n</execute_editor>")
	m := NewMetrics()
	a := newTestAgent(p, WithMetrics(m))

	res, err := a.Step(context.Background(), taskState("edit"))
	require.NoError(t, err)

	assert.Equal(t, codeact.NewAgentMessage(codeact.InvalidEditorOperation), res.Action)
	assert.ErrorIs(t, res.Recovered, codeact.ErrUnknownOperation)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EditorRecovered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues(string(codeact.BranchEditor))))
}

func TestStepCompletionError(t *testing.T) {
	p := mock.New()
	p.CompleteFn = func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		return nil, &llm.AuthenticationError{}
	}
	a := newTestAgent(p)

	_, err := a.Step(context.Background(), taskState("task"))
	var authErr *llm.AuthenticationError
	assert.True(t, errors.As(err, &authErr))
}

func TestStepUsesEncoder(t *testing.T) {
	p := mock.New("ok")
	a := newTestAgent(p, WithEncoder(codeact.Encoder{ReadOperation: codeact.OpRead}))

	st := taskState("read it")
	st.History = append(st.History, codeact.HistoryEntry{
		Action:      codeact.ReadFileAction{Path: "a.txt"},
		Observation: codeact.ReadFileResult{Path: "a.txt", Content: "0|x"},
	})
	_, err := a.Step(context.Background(), st)
	require.NoError(t, err)

	msgs := p.Requests()[0].Messages
	require.Len(t, msgs, 5)
	assert.Contains(t, msgs[3].Content, "<operation>read</operation>")
	assert.Equal(t, llm.RoleAssistant, msgs[3].Role)
}

func TestStateTurnsLeft(t *testing.T) {
	st := State{Iteration: 7, MaxIterations: 5}
	assert.Equal(t, -2, st.TurnsLeft())
}
