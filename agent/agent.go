package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/martinemde/codeact/codeact"
	"github.com/martinemde/codeact/llm"
)

// Completer produces a model completion. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// State is the loop-owned input of a step. Step only reads it.
type State struct {
	History       codeact.History
	Iteration     int
	MaxIterations int
	// NumChars accumulates StepResult.Chars across steps.
	NumChars int
}

// TurnsLeft returns the remaining turn budget. It may be zero or negative.
func (s *State) TurnsLeft() int {
	return s.MaxIterations - s.Iteration
}

// StepResult is the outcome of one turn.
type StepResult struct {
	Action codeact.Action
	// Reply is the repaired model reply; empty when the model was not
	// called.
	Reply string
	// Chars is the character count of the prompt and reply of this turn.
	Chars  int
	Branch codeact.Branch
	// Recovered holds the editor error that was turned into a message.
	Recovered error
	Usage     llm.Usage
}

// Agent renders history into a prompt, asks the model for the next step
// and parses the reply into one action.
type Agent struct {
	completer    Completer
	model        string
	maxTokens    int
	encoder      codeact.Encoder
	systemPrompt string
	example      string
	logger       *slog.Logger
	metrics      *Metrics
}

// Option configures an Agent.
type Option func(*Agent)

// WithModel sets the model requested from the completer.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

// WithMaxTokens bounds the reply length. Zero leaves it to the provider.
func WithMaxTokens(n int) Option {
	return func(a *Agent) { a.maxTokens = n }
}

// WithEncoder replaces codeact.DefaultEncoder.
func WithEncoder(enc codeact.Encoder) Option {
	return func(a *Agent) { a.encoder = enc }
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

// WithExample replaces the default in-context example.
func WithExample(example string) Option {
	return func(a *Agent) { a.example = example }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// New creates an Agent.
func New(completer Completer, opts ...Option) *Agent {
	a := &Agent{
		completer:    completer,
		encoder:      codeact.DefaultEncoder,
		systemPrompt: BuildSystemPrompt(""),
		example:      BuildInContextExample(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Encoder returns the encoder used to render history.
func (a *Agent) Encoder() codeact.Encoder {
	return a.encoder
}

// Prompt returns the messages of the next turn, annotated with the turn
// budget. A non-nil action means the user asked to exit and no model call
// is needed.
func (a *Agent) Prompt(st *State) ([]codeact.Message, codeact.Action, error) {
	messages := a.encoder.BuildPrompt(a.systemPrompt, a.example, st.History)
	finish, err := codeact.AnnotateTurnBudget(messages, st.TurnsLeft())
	if err != nil {
		return nil, nil, fmt.Errorf("annotate turn budget: %w", err)
	}
	return messages, finish, nil
}

// Step runs one turn. Sampling is always deterministic (temperature 0) and
// generation stops after the first closing execute tag. The only errors
// are a failed completion and a prompt without a user message; unusable
// replies become message actions.
func (a *Agent) Step(ctx context.Context, st *State) (StepResult, error) {
	messages, finish, err := a.Prompt(st)
	if err != nil {
		return StepResult{}, err
	}
	if finish != nil {
		a.logger.Info("exit directive received")
		res := StepResult{Action: finish}
		a.metrics.RecordStep(res)
		return res, nil
	}

	req := llm.Request{
		Model:         a.model,
		Messages:      messages,
		Temperature:   llm.Float64(0),
		StopSequences: append([]string(nil), codeact.StopSequences...),
	}
	if a.maxTokens > 0 {
		req.MaxTokens = llm.Int(a.maxTokens)
	}

	start := time.Now()
	resp, err := a.completer.Complete(ctx, req)
	a.metrics.RecordModelCall(time.Since(start), err)
	if err != nil {
		return StepResult{}, fmt.Errorf("model completion: %w", err)
	}

	reply := codeact.Repair(resp.Text)
	parsed := codeact.ParseDetailed(reply)
	res := StepResult{
		Action:    parsed.Action,
		Reply:     reply,
		Chars:     codeact.CountChars(messages, reply),
		Branch:    parsed.Branch,
		Recovered: parsed.Err,
		Usage:     resp.Usage,
	}

	if parsed.Err != nil {
		a.logger.Warn("recovered unparseable editor operation", "error", parsed.Err)
	}
	a.logger.Debug("step parsed",
		"iteration", st.Iteration,
		"branch", parsed.Branch,
		"action", parsed.Action.Kind(),
		"chars", res.Chars,
		"repaired", reply != resp.Text,
	)
	a.metrics.RecordStep(res)

	return res, nil
}
