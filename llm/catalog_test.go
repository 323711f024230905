package llm

import "testing"

func TestGetModelInfo(t *testing.T) {
	// By exact ID.
	info := GetModelInfo("claude-opus-4-6")
	if info == nil {
		t.Fatal("expected to find claude-opus-4-6")
	}
	if info.Provider != "anthropic" {
		t.Errorf("expected provider %q, got %q", "anthropic", info.Provider)
	}
	if info.ContextWindow != 200000 {
		t.Errorf("expected context window 200000, got %d", info.ContextWindow)
	}

	// By alias.
	info = GetModelInfo("sonnet")
	if info == nil {
		t.Fatal("expected to find model by alias 'sonnet'")
	}
	if info.ID != "claude-sonnet-4-5" {
		t.Errorf("expected id %q, got %q", "claude-sonnet-4-5", info.ID)
	}

	// Unknown model.
	info = GetModelInfo("nonexistent-model")
	if info != nil {
		t.Errorf("expected nil for unknown model, got %v", info)
	}
}

func TestListModels(t *testing.T) {
	all := ListModels("")
	if len(all) != len(Models) {
		t.Errorf("expected %d models, got %d", len(Models), len(all))
	}

	anthropic := ListModels("anthropic")
	if len(anthropic) != 3 {
		t.Errorf("expected 3 Anthropic models, got %d", len(anthropic))
	}
	for _, m := range anthropic {
		if m.Provider != "anthropic" {
			t.Errorf("expected provider anthropic, got %q", m.Provider)
		}
	}

	if n := len(ListModels("ollama")); n != 2 {
		t.Errorf("expected 2 Ollama models, got %d", n)
	}

	empty := ListModels("nonexistent")
	if len(empty) != 0 {
		t.Errorf("expected 0 models for nonexistent provider, got %d", len(empty))
	}
}

func TestGetLatestModel(t *testing.T) {
	info := GetLatestModel("anthropic", "")
	if info == nil {
		t.Fatal("expected to find latest Anthropic model")
	}
	if info.ID != "claude-sonnet-4-5" {
		t.Errorf("expected %q, got %q", "claude-sonnet-4-5", info.ID)
	}

	info = GetLatestModel("openai", "reasoning")
	if info == nil {
		t.Fatal("expected to find OpenAI reasoning model")
	}
	if info.Provider != "openai" || !info.SupportsReasoning {
		t.Errorf("unexpected model %+v", info)
	}

	if info := GetLatestModel("ollama", "reasoning"); info != nil {
		t.Errorf("expected no Ollama reasoning model, got %v", info)
	}
	if info := GetLatestModel("nonexistent", ""); info != nil {
		t.Errorf("expected nil for nonexistent provider, got %v", info)
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider, model, want string
	}{
		{"anthropic", "", "claude-sonnet-4-5"},
		{"openai", "", "gpt-5.2"},
		{"anthropic", "opus", "claude-opus-4-6"},
		{"openai", "opus", "opus"},
		{"openai", "gpt-4.1-custom", "gpt-4.1-custom"},
		{"groq", "", ""},
	}
	for _, tt := range tests {
		if got := ResolveModel(tt.provider, tt.model); got != tt.want {
			t.Errorf("ResolveModel(%q, %q) = %q, want %q", tt.provider, tt.model, got, tt.want)
		}
	}
}

func TestModelInfoFields(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Models {
		if m.ID == "" {
			t.Error("model ID must not be empty")
		}
		if m.Provider == "" {
			t.Errorf("model %q: provider must not be empty", m.ID)
		}
		if m.DisplayName == "" {
			t.Errorf("model %q: display_name must not be empty", m.ID)
		}
		if m.ContextWindow <= 0 || m.MaxOutput <= 0 {
			t.Errorf("model %q: context_window and max_output must be positive", m.ID)
		}
		for _, name := range append([]string{m.ID}, m.Aliases...) {
			if seen[name] {
				t.Errorf("model name %q is not unique", name)
			}
			seen[name] = true
		}
	}
}
