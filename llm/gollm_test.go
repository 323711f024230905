package llm

import (
	"errors"
	"testing"
)

func TestGollmProviderName(t *testing.T) {
	// Creation may fail without network-free provider setup; only Name is
	// checked when it succeeds.
	for _, provider := range []string{"openai", "anthropic"} {
		p, err := NewGollmProvider(provider, WithAPIKey("test-key-not-real"))
		if err != nil {
			t.Logf("skipping %s provider creation: %v", provider, err)
			continue
		}
		if p.Name() != provider {
			t.Errorf("expected name %q, got %q", provider, p.Name())
		}
	}
}

func TestGollmProviderTranslateError(t *testing.T) {
	p := &GollmProvider{provider: "openai"}

	tests := []struct {
		msg   string
		check func(error) bool
	}{
		{"401 Unauthorized", func(err error) bool { var e *AuthenticationError; return errors.As(err, &e) }},
		{"403 Forbidden", func(err error) bool { var e *AccessDeniedError; return errors.As(err, &e) }},
		{"404 not found", func(err error) bool { var e *NotFoundError; return errors.As(err, &e) }},
		{"429 rate limit exceeded", func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }},
		{"context length exceeded", func(err error) bool { var e *ContextLengthError; return errors.As(err, &e) }},
		{"500 internal server error", func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
		{"timeout waiting for response", func(err error) bool { var e *RequestTimeoutError; return errors.As(err, &e) }},
		{"content filter triggered", func(err error) bool { var e *ContentFilterError; return errors.As(err, &e) }},
		{"something unknown", func(err error) bool { var e *ProviderError; return errors.As(err, &e) && e.Retryable }},
	}

	for _, tt := range tests {
		err := p.translateError(errors.New(tt.msg))
		if !tt.check(err) {
			t.Errorf("for %q: unexpected error type %T", tt.msg, err)
		}
	}

	if p.translateError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestCutAtStop(t *testing.T) {
	stops := []string{"</execute_editor>", "</execute_bash>"}

	tests := []struct {
		text    string
		want    string
		stopped bool
	}{
		{"plain reply", "plain reply", false},
		{"<execute_bash>\nls\n</execute_bash>\nmore", "<execute_bash>\nls\n", true},
		{"<execute_editor>a</execute_editor><execute_bash>b</execute_bash>", "<execute_editor>a", true},
		{"x</execute_bash>y</execute_editor>", "x", true},
	}

	for _, tt := range tests {
		got, stopped := cutAtStop(tt.text, stops)
		if got != tt.want || stopped != tt.stopped {
			t.Errorf("cutAtStop(%q) = %q, %v; want %q, %v", tt.text, got, stopped, tt.want, tt.stopped)
		}
	}

	if got, stopped := cutAtStop("abc", []string{""}); got != "abc" || stopped {
		t.Errorf("empty stop sequence must be ignored, got %q, %v", got, stopped)
	}
}

func TestGollmBuildResponse(t *testing.T) {
	p := &GollmProvider{provider: "openai", model: "gpt-4o-mini"}
	req := Request{Messages: []Message{UserMessage("12345678")}}

	resp := p.buildResponse(req, "abcdefgh", true)
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("expected default model, got %q", resp.Model)
	}
	if resp.Text != "abcdefgh" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if resp.FinishReason.Raw != "stop_sequence" {
		t.Errorf("expected stop_sequence finish, got %q", resp.FinishReason.Raw)
	}
	if resp.Usage.InputTokens != 2 || resp.Usage.OutputTokens != 2 || resp.Usage.TotalTokens != 4 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
}

func TestNewGollmProviderUnknownModel(t *testing.T) {
	_, err := NewGollmProvider("groq", WithAPIKey("test-key-not-real"))
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
