package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/martinemde/codeact/codeact"
)

var (
	// ErrSessionClosed is returned by Run and Reply after Close.
	ErrSessionClosed = errors.New("session is closed")
	// ErrSessionBusy is returned when Run or Reply is called while another
	// call is in progress.
	ErrSessionBusy = errors.New("session is busy")
)

// Outcome is why a call to Run or Reply returned.
type Outcome string

const (
	OutcomeFinished      Outcome = "finished"
	OutcomeAwaitingInput Outcome = "awaiting_input"
	OutcomeTurnLimit     Outcome = "turn_limit"
	OutcomeAborted       Outcome = "aborted"
)

// SessionConfig holds the loop settings of a session.
type SessionConfig struct {
	MaxIterations       int  `json:"max_iterations"`
	EnableLoopDetection bool `json:"enable_loop_detection"`
	LoopDetectionWindow int  `json:"loop_detection_window"`
}

// DefaultSessionConfig returns the default loop settings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxIterations:       100,
		EnableLoopDetection: true,
		LoopDetectionWindow: 6,
	}
}

// Session owns the history and counters of one task and drives the agent
// until it finishes, asks the user something or runs out of turns.
type Session struct {
	id       string
	agent    *Agent
	executor Executor
	config   SessionConfig
	emitter  *EventEmitter

	mu      sync.Mutex
	state   State
	started bool
	running bool
	aborted bool
	closed  bool
	// steeredAt is the history length after the last loop warning; loop
	// detection only looks at actions taken since.
	steeredAt int
}

// NewSession creates a session. A nil config uses DefaultSessionConfig.
func NewSession(agent *Agent, executor Executor, config *SessionConfig) *Session {
	id := uuid.New().String()
	cfg := DefaultSessionConfig()
	if config != nil {
		cfg = *config
	}
	return &Session{
		id:       id,
		agent:    agent,
		executor: executor,
		config:   cfg,
		emitter:  NewEventEmitter(id, 256),
		state:    State{MaxIterations: cfg.MaxIterations},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Events returns the event channel.
func (s *Session) Events() <-chan SessionEvent {
	return s.emitter.Events()
}

// History returns a copy of the history.
func (s *Session) History() codeact.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(codeact.History(nil), s.state.History...)
}

// Iteration returns the number of completed steps.
func (s *Session) Iteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Iteration
}

// NumChars returns the characters exchanged with the model so far.
func (s *Session) NumChars() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.NumChars
}

// Abort stops the loop before its next step.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
}

// Close ends the session and closes the event channel.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.emitter.Emit(EventSessionEnd, map[string]any{"iterations": s.Iteration()})
	s.emitter.Close()
}

// Run submits the task and loops until an Outcome is reached.
func (s *Session) Run(ctx context.Context, task string) (Outcome, error) {
	return s.submit(ctx, task)
}

// Reply answers a message the agent is waiting on and resumes the loop.
func (s *Session) Reply(ctx context.Context, text string) (Outcome, error) {
	return s.submit(ctx, text)
}

func (s *Session) submit(ctx context.Context, text string) (Outcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	if s.running {
		s.mu.Unlock()
		return "", ErrSessionBusy
	}
	s.running = true
	s.aborted = false
	first := !s.started
	s.started = true
	s.state.History = append(s.state.History, codeact.HistoryEntry{Action: codeact.NewUserMessage(text)})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if first {
		s.emitter.Emit(EventSessionStart, nil)
	}
	s.emitter.Emit(EventUserInput, map[string]any{"content": text})

	outcome, err := s.loop(ctx)
	if err != nil {
		s.emitter.Emit(EventError, map[string]any{"error": err.Error()})
		s.agent.logger.Error("session failed", "session_id", s.id, "error", err)
		return "", err
	}
	s.agent.logger.Info("session paused", "session_id", s.id, "outcome", outcome, "iterations", s.Iteration())
	return outcome, nil
}

func (s *Session) loop(ctx context.Context) (Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		s.mu.Lock()
		aborted := s.aborted
		snapshot := s.state
		snapshot.History = append(codeact.History(nil), s.state.History...)
		s.mu.Unlock()

		if aborted {
			return OutcomeAborted, nil
		}
		if s.config.MaxIterations > 0 && snapshot.Iteration >= s.config.MaxIterations {
			s.emitter.Emit(EventTurnLimit, map[string]any{"iterations": snapshot.Iteration})
			return OutcomeTurnLimit, nil
		}

		res, err := s.agent.Step(ctx, &snapshot)
		if err != nil {
			return "", fmt.Errorf("step %d: %w", snapshot.Iteration, err)
		}

		s.mu.Lock()
		s.state.Iteration++
		s.state.NumChars += res.Chars
		s.mu.Unlock()

		s.emitter.Emit(EventStep, map[string]any{
			"iteration": snapshot.Iteration,
			"branch":    string(res.Branch),
			"chars":     res.Chars,
		})
		s.emitter.Emit(EventAction, map[string]any{
			"kind": string(res.Action.Kind()),
			"text": s.agent.encoder.EncodeAction(res.Action),
		})
		if res.Recovered != nil {
			s.emitter.Emit(EventParseRecovered, map[string]any{"error": res.Recovered.Error()})
		}

		switch a := res.Action.(type) {
		case codeact.FinishAction:
			s.appendEntry(codeact.HistoryEntry{Action: a})
			return OutcomeFinished, nil
		case codeact.MessageAction:
			s.appendEntry(codeact.HistoryEntry{Action: a})
			if a.WaitForResponse {
				return OutcomeAwaitingInput, nil
			}
			continue
		}

		obs, err := s.executor.Execute(ctx, res.Action)
		if err != nil {
			return "", fmt.Errorf("execute %s: %w", res.Action.Kind(), err)
		}
		s.appendEntry(codeact.HistoryEntry{Action: res.Action, Observation: obs})
		if text, ok := s.agent.encoder.EncodeObservation(obs); ok {
			s.emitter.Emit(EventObservation, map[string]any{
				"kind": string(obs.Kind()),
				"text": text,
			})
		}

		s.checkLoop()
	}
}

func (s *Session) appendEntry(entry codeact.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.History = append(s.state.History, entry)
}

// checkLoop steers the agent away from a repeating action pattern. Each
// warning starts a fresh window, so a loop is reported once per window of
// repeated actions.
func (s *Session) checkLoop() {
	if !s.config.EnableLoopDetection {
		return
	}
	history := s.History()
	if !DetectLoop(history[s.steeredAt:], s.config.LoopDetectionWindow) {
		return
	}
	warning := fmt.Sprintf("Loop detected: the last %d actions follow a repeating pattern. Try a different approach.", s.config.LoopDetectionWindow)
	s.appendEntry(codeact.HistoryEntry{Action: codeact.NewUserMessage(warning)})
	s.steeredAt = len(history) + 1
	s.emitter.Emit(EventLoopDetected, map[string]any{"message": warning})
	s.agent.metrics.RecordLoop()
	s.agent.logger.Warn("loop detected", "session_id", s.id, "window", s.config.LoopDetectionWindow)
}
