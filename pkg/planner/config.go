package planner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"copycat-api/pkg/actionplan"
	"copycat-api/pkg/confkit"
)

const (
	defaultRequestTimeout  = "60s"
	defaultMinInterval     = "2s"
	defaultTemperature     = 0.1
	defaultMaxTokens       = 4000
	defaultMaxContentChars = 12000
	defaultMaxElements     = 150
	defaultResponseFormat  = "text"

	// DefaultSystemPrompt is the system instruction sent with every plan request.
	DefaultSystemPrompt = "You are a web automation expert. Analyze web pages and provide accurate actions as clean JSON. " +
		"Your response must contain valid JSON with an 'actions' array. You may include reasoning before the JSON, " +
		"but ensure the JSON is clearly formatted and parseable. For code, use proper indentation with tab characters " +
		"(\\t) for each level of indentation."
)

// Config controls prompt construction, the model call and post-filtering.
type Config struct {
	// Model is an llm alias or upstream id; empty uses the client default.
	Model           string   `yaml:"model"`
	Temperature     *float64 `yaml:"temperature"`
	MaxTokens       *int     `yaml:"max_tokens"`
	ResponseFormat  string   `yaml:"response_format"`
	AllowedActions  []string `yaml:"allowed_actions"`
	Denylist        []string `yaml:"denylist"`
	MaxContentChars int      `yaml:"max_content_chars"`
	MaxElements     int      `yaml:"max_elements"`
	SystemPrompt    string   `yaml:"system_prompt"`
	// PromptTemplate is a template file; empty selects the built-in prompt.
	PromptTemplate string `yaml:"prompt_template"`

	RequestTimeout time.Duration `yaml:"-"`
	MinInterval    time.Duration `yaml:"-"`

	RequestTimeoutRaw string `yaml:"request_timeout"`
	MinIntervalRaw    string `yaml:"min_interval"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		panic(err)
	}
	return cfg
}

// Clone returns a copy that shares no slices or pointers with c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	cp.AllowedActions = slices.Clone(c.AllowedActions)
	cp.Denylist = slices.Clone(c.Denylist)
	if c.Temperature != nil {
		t := *c.Temperature
		cp.Temperature = &t
	}
	if c.MaxTokens != nil {
		n := *c.MaxTokens
		cp.MaxTokens = &n
	}
	return &cp
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open planner config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads etc/planner.yaml from the project root and panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(confkit.MustProjectPath("etc/planner.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read planner config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal planner config: %w", err)
	}
	cfg.expandFields()
	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandFields() {
	c.Model = strings.TrimSpace(os.ExpandEnv(c.Model))
	c.PromptTemplate = strings.TrimSpace(os.ExpandEnv(c.PromptTemplate))
	c.ResponseFormat = strings.ToLower(strings.TrimSpace(c.ResponseFormat))
	for i, a := range c.AllowedActions {
		c.AllowedActions[i] = strings.ToLower(strings.TrimSpace(a))
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RequestTimeoutRaw) == "" {
		c.RequestTimeoutRaw = defaultRequestTimeout
	}
	if strings.TrimSpace(c.MinIntervalRaw) == "" {
		c.MinIntervalRaw = defaultMinInterval
	}
	if c.Temperature == nil {
		t := defaultTemperature
		c.Temperature = &t
	}
	if c.MaxTokens == nil {
		n := defaultMaxTokens
		c.MaxTokens = &n
	}
	if c.ResponseFormat == "" {
		c.ResponseFormat = defaultResponseFormat
	}
	if len(c.AllowedActions) == 0 {
		for _, k := range actionplan.DefaultKinds {
			c.AllowedActions = append(c.AllowedActions, string(k))
		}
	}
	// A nil denylist means "use the default"; an explicit empty list disables it.
	if c.Denylist == nil {
		c.Denylist = append([]string(nil), actionplan.DefaultDenylist...)
	}
	if c.MaxContentChars == 0 {
		c.MaxContentChars = defaultMaxContentChars
	}
	if c.MaxElements == 0 {
		c.MaxElements = defaultMaxElements
	}
	if strings.TrimSpace(c.SystemPrompt) == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
}

func (c *Config) parseDurations() error {
	timeout, err := time.ParseDuration(c.RequestTimeoutRaw)
	if err != nil {
		return fmt.Errorf("planner config: invalid request_timeout %q: %w", c.RequestTimeoutRaw, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("planner config: request_timeout must be positive, got %s", timeout)
	}
	interval, err := time.ParseDuration(c.MinIntervalRaw)
	if err != nil {
		return fmt.Errorf("planner config: invalid min_interval %q: %w", c.MinIntervalRaw, err)
	}
	if interval < 0 {
		return fmt.Errorf("planner config: min_interval cannot be negative, got %s", interval)
	}
	c.RequestTimeout = timeout
	c.MinInterval = interval
	return nil
}

// Validate ensures configuration sanity.
func (c *Config) Validate() error {
	switch c.ResponseFormat {
	case "text", "json_object", "json_schema":
	default:
		return fmt.Errorf("planner config: unsupported response_format %q", c.ResponseFormat)
	}
	for _, a := range c.AllowedActions {
		if _, ok := actionplan.ParseKind(a); !ok {
			return fmt.Errorf("planner config: unknown action %q in allowed_actions", a)
		}
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return errors.New("planner config: temperature must be between 0 and 2")
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return errors.New("planner config: max_tokens must be positive")
	}
	if c.MaxContentChars < 0 {
		return errors.New("planner config: max_content_chars cannot be negative")
	}
	if c.MaxElements < 0 {
		return errors.New("planner config: max_elements cannot be negative")
	}
	return nil
}

// Policy converts the filter settings into an actionplan policy.
func (c *Config) Policy() actionplan.Policy {
	kinds := make([]actionplan.Kind, 0, len(c.AllowedActions))
	for _, a := range c.AllowedActions {
		kinds = append(kinds, actionplan.Kind(a))
	}
	return actionplan.Policy{Allowed: kinds, Denylist: c.Denylist}
}
