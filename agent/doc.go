// Package agent drives a CodeAct conversation with a language model.
//
// An Agent performs a single turn: it renders the history with the codeact
// encoder, annotates the last user message with the remaining turn budget,
// asks the model for a completion that stops after the first closing
// execute tag and parses the repaired reply into one action.
//
// A Session owns the history and counters of a task. It repeatedly steps
// the Agent, hands executable actions to an Executor and appends the
// resulting observations, until the agent finishes, asks the user a
// question or exhausts its iterations:
//
//	a := agent.New(client, agent.WithModel("gpt-4o-mini"))
//	s := agent.NewSession(a, agent.NewLocalExecutor(dir), nil)
//	defer s.Close()
//	outcome, err := s.Run(ctx, "Create hello.py and run it")
//
// Sessions emit events on a buffered channel; see Session.Events.
package agent
