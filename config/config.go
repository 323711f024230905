// Package config loads codeact settings from a YAML file, .env files and
// CODEACT_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/codeact/codeact"
)

// Config is the complete runtime configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Codec   CodecConfig   `yaml:"codec"`
	Agent   AgentConfig   `yaml:"agent"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LLMConfig selects the model provider.
type LLMConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	MaxTokens  int    `yaml:"max_tokens"`
	MaxRetries int    `yaml:"max_retries"`
}

// CodecConfig tunes how history is rendered for the model.
type CodecConfig struct {
	MaxObservationChars int `yaml:"max_observation_chars"`
	// ReadOperation is the operation word rendered for read actions.
	ReadOperation string `yaml:"read_operation"`
}

// AgentConfig controls the session loop and local executor.
type AgentConfig struct {
	MaxIterations       int           `yaml:"max_iterations"`
	LoopDetection       bool          `yaml:"loop_detection"`
	LoopDetectionWindow int           `yaml:"loop_detection_window"`
	WorkingDir          string        `yaml:"working_dir"`
	CommandTimeout      time.Duration `yaml:"command_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   "openai",
			MaxTokens:  4096,
			MaxRetries: 2,
		},
		Codec: CodecConfig{
			MaxObservationChars: codeact.DefaultMaxChars,
			ReadOperation:       string(codeact.OpCreate),
		},
		Agent: AgentConfig{
			MaxIterations:       100,
			LoopDetection:       true,
			LoopDetectionWindow: 6,
			CommandTimeout:      2 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerAPIKey(cfg.LLM.Provider, os.LookupEnv)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg after expanding ${VAR} and ${VAR:-default}
// references. Keys absent from the document keep their current values.
func Parse(data []byte, cfg *Config) error {
	expanded := os.Expand(string(data), expandVar)
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func expandVar(ref string) string {
	name, def, hasDefault := strings.Cut(ref, ":-")
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	if hasDefault {
		return def
	}
	return ""
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from CODEACT_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("CODEACT_PROVIDER", &c.LLM.Provider)
	str("CODEACT_MODEL", &c.LLM.Model)
	str("CODEACT_API_KEY", &c.LLM.APIKey)
	str("CODEACT_WORKING_DIR", &c.Agent.WorkingDir)
	str("CODEACT_LOG_LEVEL", &c.Log.Level)
	str("CODEACT_LOG_FILE", &c.Log.File)
	str("CODEACT_METRICS_ADDR", &c.Metrics.Addr)

	for key, dst := range map[string]*int{
		"CODEACT_MAX_TOKENS":            &c.LLM.MaxTokens,
		"CODEACT_MAX_ITERATIONS":        &c.Agent.MaxIterations,
		"CODEACT_MAX_OBSERVATION_CHARS": &c.Codec.MaxObservationChars,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("CODEACT_COMMAND_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CODEACT_COMMAND_TIMEOUT: %w", err)
		}
		c.Agent.CommandTimeout = d
	}
	return nil
}

// providerAPIKey falls back to the conventional variable of each provider.
func providerAPIKey(provider string, lookup LookupFunc) string {
	key := strings.ToUpper(provider) + "_API_KEY"
	if v, ok := lookup(key); ok {
		return v
	}
	return ""
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.Provider == "" {
		errs = append(errs, errors.New("llm.provider is required"))
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must not be negative, got %d", c.LLM.MaxTokens))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries))
	}
	if c.Codec.MaxObservationChars <= 0 {
		errs = append(errs, fmt.Errorf("codec.max_observation_chars must be positive, got %d", c.Codec.MaxObservationChars))
	}
	if _, err := c.ReadOperation(); err != nil {
		errs = append(errs, err)
	}
	if c.Agent.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations))
	}
	if c.Agent.LoopDetection && c.Agent.LoopDetectionWindow < 2 {
		errs = append(errs, fmt.Errorf("agent.loop_detection_window must be at least 2, got %d", c.Agent.LoopDetectionWindow))
	}
	if c.Agent.CommandTimeout < 0 {
		errs = append(errs, fmt.Errorf("agent.command_timeout must not be negative, got %s", c.Agent.CommandTimeout))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ReadOperation returns the operation rendered for read actions. Only
// create and read are meaningful.
func (c *Config) ReadOperation() (codeact.EditorOp, error) {
	if c.Codec.ReadOperation == "" {
		return codeact.OpCreate, nil
	}
	op, ok := codeact.NormalizeEditorOp(c.Codec.ReadOperation)
	if !ok || (op != codeact.OpCreate && op != codeact.OpRead) {
		return "", fmt.Errorf("codec.read_operation must be create or read, got %q", c.Codec.ReadOperation)
	}
	return op, nil
}

// Encoder returns the codec encoder described by the configuration.
func (c *Config) Encoder() codeact.Encoder {
	op, err := c.ReadOperation()
	if err != nil {
		op = codeact.OpCreate
	}
	return codeact.Encoder{ReadOperation: op, MaxObservationChars: c.Codec.MaxObservationChars}
}
