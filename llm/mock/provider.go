// Package mock provides a scripted llm.Provider for tests and dry runs.
package mock

import (
	"context"
	"sync"

	"github.com/martinemde/codeact/llm"
)

// Provider replays Replies in order and records every request. Once the
// script is exhausted it answers with Fallback.
type Provider struct {
	NameValue string
	Replies   []string
	Fallback  string
	// CompleteFn, if set, replaces the script.
	CompleteFn func(ctx context.Context, req llm.Request) (*llm.Response, error)

	mu       sync.Mutex
	requests []llm.Request
}

// New returns a Provider scripted with replies.
func New(replies ...string) *Provider {
	return &Provider{Replies: replies}
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	fn := p.CompleteFn
	var text string
	if len(p.Replies) > 0 {
		text, p.Replies = p.Replies[0], p.Replies[1:]
	} else {
		text = p.Fallback
	}
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &llm.Response{
		ID:           "mock",
		Model:        req.Model,
		Provider:     p.Name(),
		Text:         text,
		FinishReason: llm.FinishReason{Reason: "stop"},
	}, nil
}

// Requests returns a copy of the requests received so far.
func (p *Provider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.Request, len(p.requests))
	copy(out, p.requests)
	return out
}
