package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmProvider wraps a gollm.LLM and implements Provider.
type GollmProvider struct {
	provider string
	model    string
	llm      gollm.LLM
	// gollm options are set on the shared LLM before each call.
	mu sync.Mutex
}

// GollmOption configures a GollmProvider.
type GollmOption func(*gollmConfig)

type gollmConfig struct {
	apiKey    string
	model     string
	maxTokens int
	extraOpts []gollm.ConfigOption
}

// WithAPIKey sets the API key. Without one gollm reads the provider's
// environment variable.
func WithAPIKey(key string) GollmOption {
	return func(c *gollmConfig) {
		c.apiKey = key
	}
}

// WithModel sets the default model.
func WithModel(model string) GollmOption {
	return func(c *gollmConfig) {
		c.model = model
	}
}

// WithMaxTokens sets the default completion length.
func WithMaxTokens(n int) GollmOption {
	return func(c *gollmConfig) {
		c.maxTokens = n
	}
}

// WithGollmOptions passes extra options to gollm.NewLLM.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmOption {
	return func(c *gollmConfig) {
		c.extraOpts = append(c.extraOpts, opts...)
	}
}

// NewGollmProvider creates a provider backed by gollm. Retries are left to
// RetryMiddleware.
func NewGollmProvider(provider string, opts ...GollmOption) (*GollmProvider, error) {
	cfg := &gollmConfig{maxTokens: 4096}
	for _, opt := range opts {
		opt(cfg)
	}

	model := ResolveModel(provider, cfg.model)
	if model == "" {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("no model configured and none known for provider %q", provider),
		}}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(0),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(cfg.apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	l, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gollm LLM for provider %s: %w", provider, err)
	}

	return &GollmProvider{provider: provider, model: model, llm: l}, nil
}

// NewGollmProviderFromLLM wraps an existing gollm.LLM.
func NewGollmProviderFromLLM(provider string, l gollm.LLM) *GollmProvider {
	return &GollmProvider{provider: provider, llm: l}
}

// Name returns the provider identifier.
func (p *GollmProvider) Name() string {
	return p.provider
}

// Complete flattens the conversation into a gollm prompt and generates a
// reply. Text after the first stop sequence is dropped in case the backend
// ignored them.
func (p *GollmProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := translateRequest(req)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.applyRequestOptions(req)
	text, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, p.translateError(err)
	}

	text, stopped := cutAtStop(text, req.StopSequences)
	return p.buildResponse(req, text, stopped), nil
}

// translateRequest converts a Request into a gollm prompt. System messages
// become the system prompt; the remaining turns are labelled by role.
func translateRequest(req Request) *gollm.Prompt {
	var system []string
	var turns []string

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleAssistant:
			turns = append(turns, "[Assistant]: "+msg.Content)
		default:
			turns = append(turns, "[User]: "+msg.Content)
		}
	}

	var opts []gollm.PromptOption
	if len(system) > 0 {
		opts = append(opts, gollm.WithSystemPrompt(strings.Join(system, "\n"), gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens != nil {
		opts = append(opts, gollm.WithMaxLength(*req.MaxTokens))
	}

	return gollm.NewPrompt(strings.Join(turns, "\n\n"), opts...)
}

func (p *GollmProvider) applyRequestOptions(req Request) {
	if req.Model != "" {
		p.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		p.llm.SetOption("temperature", *req.Temperature)
	}
	if req.MaxTokens != nil {
		p.llm.SetOption("max_tokens", *req.MaxTokens)
	}
	if len(req.StopSequences) > 0 {
		p.llm.SetOption("stop", req.StopSequences)
	}
}

func (p *GollmProvider) buildResponse(req Request, text string, stopped bool) *Response {
	model := req.Model
	if model == "" {
		model = p.model
	}
	reason := FinishReason{Reason: "stop", Raw: "stop"}
	if stopped {
		reason.Raw = "stop_sequence"
	}

	input := estimateTokens(req)
	output := len(text) / 4
	return &Response{
		ID:           "resp_" + uuid.New().String()[:8],
		Model:        model,
		Provider:     p.provider,
		Text:         text,
		FinishReason: reason,
		// gollm does not report usage; estimate from text length.
		Usage: Usage{
			InputTokens:  input,
			OutputTokens: output,
			TotalTokens:  input + output,
		},
	}
}

// cutAtStop truncates text before the earliest stop sequence.
func cutAtStop(text string, stops []string) (string, bool) {
	cut := -1
	for _, s := range stops {
		if s == "" {
			continue
		}
		if i := strings.Index(text, s); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return text, false
	}
	return text[:cut], true
}

// translateError converts a gollm error into the error hierarchy.
func (p *GollmProvider) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	base := SDKError{Message: msg, Cause: err}

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		return &AuthenticationError{ProviderError{SDKError: base, Provider: p.provider, StatusCode: 401}}
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		return &AccessDeniedError{ProviderError{SDKError: base, Provider: p.provider, StatusCode: 403}}
	case strings.Contains(lower, "404") || strings.Contains(lower, "not found"):
		return &NotFoundError{ProviderError{SDKError: base, Provider: p.provider, StatusCode: 404}}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &RateLimitError{ProviderError{SDKError: base, Provider: p.provider, StatusCode: 429, Retryable: true}}
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too many tokens"):
		return &ContextLengthError{ProviderError{SDKError: base, Provider: p.provider, StatusCode: 413}}
	case strings.Contains(lower, "500") || strings.Contains(lower, "internal server"):
		return &ServerError{ProviderError{SDKError: base, Provider: p.provider, StatusCode: 500, Retryable: true}}
	case strings.Contains(lower, "timeout"):
		return &RequestTimeoutError{SDKError: base}
	case strings.Contains(lower, "content filter") || strings.Contains(lower, "safety"):
		return &ContentFilterError{ProviderError{SDKError: base, Provider: p.provider}}
	default:
		return &ProviderError{SDKError: base, Provider: p.provider, Retryable: true}
	}
}

func estimateTokens(req Request) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	if total == 0 {
		total = 10
	}
	return total
}
