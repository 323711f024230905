package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/martinemde/codeact/agent"
	"github.com/martinemde/codeact/codeact"
	"github.com/martinemde/codeact/config"
	"github.com/martinemde/codeact/llm"
	"github.com/martinemde/codeact/llm/mock"
)

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(s *streams) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Fprintf(s.out, "codeact version %s\n", version)
	return nil
}

// RunCmd runs a session until the agent finishes.
type RunCmd struct {
	Task          string `arg:"" help:"Task for the agent."`
	Provider      string `help:"LLM provider (openai, anthropic, ollama, ...)."`
	Model         string `help:"Model name."`
	WorkingDir    string `name:"working-dir" help:"Directory commands run in." type:"path"`
	MaxIterations int    `name:"max-iterations" help:"Maximum agent steps (default from config)."`
	Interactive   bool   `short:"i" help:"Answer the agent's questions from stdin."`
	DryRun        bool   `name:"dry-run" help:"Use a scripted model that finishes immediately."`
}

// dryRunReply is what the scripted model answers in dry-run mode.
const dryRunReply = "Nothing to do in a dry run.\n<finish></finish>"

func (c *RunCmd) apply(cfg *config.Config) error {
	if c.Provider != "" {
		cfg.LLM.Provider = c.Provider
	}
	if c.Model != "" {
		cfg.LLM.Model = c.Model
	}
	if c.WorkingDir != "" {
		cfg.Agent.WorkingDir = c.WorkingDir
	}
	if c.MaxIterations > 0 {
		cfg.Agent.MaxIterations = c.MaxIterations
	}
	return cfg.Validate()
}

func (c *RunCmd) Run(cli *CLI, s *streams) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	if err := c.apply(cfg); err != nil {
		return err
	}

	logger, cleanup, err := newLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File, s.err)
	if err != nil {
		return err
	}
	defer cleanup()
	slog.SetDefault(logger)

	ctx, cancel := signalContext()
	defer cancel()

	metrics := agent.NewMetrics()
	if cfg.Metrics.Addr != "" {
		srv := startMetricsServer(cfg.Metrics.Addr, metrics.Registry(), logger)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client, err := newClient(cfg, c.DryRun, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	executor := agent.NewLocalExecutor(cfg.Agent.WorkingDir, agent.WithCommandTimeout(cfg.Agent.CommandTimeout))
	a := agent.New(client, append(agentOptions(cfg, executor.WorkingDirectory()),
		agent.WithLogger(logger),
		agent.WithMetrics(metrics),
	)...)

	session := agent.NewSession(a, executor, &agent.SessionConfig{
		MaxIterations:       cfg.Agent.MaxIterations,
		EnableLoopDetection: cfg.Agent.LoopDetection,
		LoopDetectionWindow: cfg.Agent.LoopDetectionWindow,
	})
	defer session.Close()
	go logEvents(logger, session.Events())

	logger.Info("session started", "session_id", session.ID(), "provider", cfg.LLM.Provider, "working_dir", executor.WorkingDirectory())

	outcome, err := session.Run(ctx, c.Task)
	scanner := bufio.NewScanner(s.in)
	for err == nil && outcome == agent.OutcomeAwaitingInput {
		fmt.Fprintf(s.out, "agent: %s\n", lastAgentMessage(session.History()))
		if !c.Interactive {
			break
		}
		fmt.Fprint(s.out, "you: ")
		if !scanner.Scan() {
			break
		}
		outcome, err = session.Reply(ctx, scanner.Text())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "outcome: %s (iterations %d, characters %d)\n", outcome, session.Iteration(), session.NumChars())
	return nil
}

// agentOptions configures an agent from cfg.
func agentOptions(cfg *config.Config, workingDir string) []agent.Option {
	return []agent.Option{
		agent.WithModel(llm.ResolveModel(cfg.LLM.Provider, cfg.LLM.Model)),
		agent.WithMaxTokens(cfg.LLM.MaxTokens),
		agent.WithEncoder(cfg.Encoder()),
		agent.WithSystemPrompt(agent.BuildSystemPrompt(workingDir)),
	}
}

// newClient builds the model client with retries. Dry runs use a scripted
// provider.
func newClient(cfg *config.Config, dryRun bool, logger *slog.Logger) (*llm.Client, error) {
	var provider llm.Provider
	if dryRun {
		provider = &mock.Provider{Fallback: dryRunReply}
	} else {
		opts := []llm.GollmOption{llm.WithAPIKey(cfg.LLM.APIKey), llm.WithModel(cfg.LLM.Model)}
		if cfg.LLM.MaxTokens > 0 {
			opts = append(opts, llm.WithMaxTokens(cfg.LLM.MaxTokens))
		}
		p, err := llm.NewGollmProvider(cfg.LLM.Provider, opts...)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	policy := llm.DefaultRetryPolicy()
	policy.MaxRetries = cfg.LLM.MaxRetries
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		logger.Warn("retrying model call", "attempt", attempt, "delay", delay, "error", err)
	}

	return llm.NewClient(
		llm.WithProvider(provider),
		llm.WithMiddleware(llm.RetryMiddleware(policy)),
	), nil
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func logEvents(logger *slog.Logger, events <-chan agent.SessionEvent) {
	for ev := range events {
		logger.Debug("session event", "kind", ev.Kind, "data", ev.Data)
	}
}

func lastAgentMessage(history codeact.History) string {
	for i := len(history) - 1; i >= 0; i-- {
		if m, ok := history[i].Action.(codeact.MessageAction); ok && m.Source == codeact.SourceAgent {
			return m.Content
		}
	}
	return ""
}

// ParseCmd parses one model reply.
type ParseCmd struct {
	NoRepair bool `name:"no-repair" help:"Parse the reply as is, without closing a truncated execute tag."`
}

type parseOutput struct {
	Kind    codeact.ActionKind `json:"kind"`
	Branch  codeact.Branch     `json:"branch"`
	Action  codeact.Action     `json:"action"`
	Encoded string             `json:"encoded"`
	Error   string             `json:"error,omitempty"`
}

func (c *ParseCmd) Run(s *streams) error {
	data, err := io.ReadAll(s.in)
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	reply := string(data)
	if !c.NoRepair {
		reply = codeact.Repair(reply)
	}

	res := codeact.ParseDetailed(reply)
	out := parseOutput{
		Kind:    res.Action.Kind(),
		Branch:  res.Branch,
		Action:  res.Action,
		Encoded: codeact.EncodeAction(res.Action),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}

	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// RenderCmd prints the first prompt of a task.
type RenderCmd struct {
	Task       string `arg:"" help:"Task for the agent."`
	WorkingDir string `name:"working-dir" help:"Working directory shown in the environment block." type:"path"`
	JSON       bool   `help:"Print messages as JSON."`
}

func (c *RenderCmd) Run(cli *CLI, s *streams) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	a := agent.New(nil, agentOptions(cfg, c.WorkingDir)...)
	messages, finish, err := a.Prompt(&agent.State{
		History:       codeact.History{{Action: codeact.NewUserMessage(c.Task)}},
		MaxIterations: cfg.Agent.MaxIterations,
	})
	if err != nil {
		return err
	}
	if finish != nil {
		fmt.Fprintln(s.out, "exit directive: the session would finish without a model call")
		return nil
	}

	if c.JSON {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(messages)
	}
	for _, m := range messages {
		fmt.Fprintf(s.out, "--- %s ---\n%s\n", strings.ToUpper(string(m.Role)), m.Content)
	}
	return nil
}
