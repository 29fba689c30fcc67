package llm

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"copycat-api/pkg/confkit"
)

const (
	defaultBaseURL    = "https://api.groq.com/openai/v1"
	defaultModel      = "llama-3.1-70b-versatile"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	defaultLogLevel   = "info"

	envAPIKey       = "COPYCAT_API_KEY"
	envBaseURL      = "COPYCAT_BASE_URL"
	envDefaultModel = "COPYCAT_DEFAULT_MODEL"
	envTimeout      = "COPYCAT_TIMEOUT"
	envMaxRetries   = "COPYCAT_MAX_RETRIES"
)

// Config holds runtime settings for the LLM client.
type Config struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	// APIKeyPrefix, when set, rejects keys that do not start with it (gsk_ for Groq).
	APIKeyPrefix string                 `yaml:"api_key_prefix"`
	Timeout      time.Duration          `yaml:"-"`
	MaxRetries   int                    `yaml:"max_retries"`
	LogLevel     string                 `yaml:"log_level"`
	Models       map[string]ModelConfig `yaml:"models"`

	TimeoutRaw string `yaml:"timeout"`
}

// ModelConfig defines defaults for a particular model alias.
type ModelConfig struct {
	ModelName   string   `yaml:"model_name"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
	TopP        *float64 `yaml:"top_p,omitempty"`
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open llm config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads etc/llm.yaml from the project root and panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(confkit.MustProjectPath("etc/llm.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read llm config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal llm config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.parseTimeout(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error
	key := strings.TrimSpace(c.APIKey)
	switch prefix := strings.TrimSpace(c.APIKeyPrefix); {
	case key == "":
		errs = append(errs, errors.New("api_key is required"))
	case prefix != "" && !strings.HasPrefix(key, prefix):
		errs = append(errs, fmt.Errorf("api_key must start with %q", prefix))
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		errs = append(errs, errors.New("default_model is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max_retries cannot be negative"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("llm config: %w", errors.Join(errs...))
}

// Model returns the settings of a model alias.
func (c *Config) Model(alias string) (ModelConfig, bool) {
	m, ok := c.Models[alias]
	return m, ok
}

// ResolveModel maps an alias (empty selects the default) onto the upstream
// model id and its defaults. Unknown aliases are sent verbatim.
func (c *Config) ResolveModel(alias string) (string, ModelConfig) {
	if alias = strings.TrimSpace(alias); alias == "" {
		alias = c.DefaultModel
	}
	m, _ := c.Model(alias)
	if name := strings.TrimSpace(m.ModelName); name != "" {
		return name, m
	}
	return alias, m
}

// Clone returns a copy with its own model map.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Models = maps.Clone(c.Models)
	return &cp
}

func (c *Config) applyDefaults() {
	setDefault(&c.BaseURL, defaultBaseURL)
	setDefault(&c.DefaultModel, defaultModel)
	setDefault(&c.LogLevel, defaultLogLevel)
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// applyEnvOverrides expands ${VAR} references, then lets the COPYCAT_* variables win.
func (c *Config) applyEnvOverrides() {
	for _, o := range []struct {
		field *string
		env   string
	}{
		{&c.BaseURL, envBaseURL},
		{&c.APIKey, envAPIKey},
		{&c.DefaultModel, envDefaultModel},
		{&c.TimeoutRaw, envTimeout},
		{&c.APIKeyPrefix, ""},
	} {
		*o.field = os.ExpandEnv(*o.field)
		if v := os.Getenv(o.env); o.env != "" && v != "" {
			*o.field = v
		}
	}
	if v, err := strconv.Atoi(os.Getenv(envMaxRetries)); err == nil {
		c.MaxRetries = v
	}
}

func (c *Config) parseTimeout() error {
	raw := strings.TrimSpace(c.TimeoutRaw)
	if raw == "" {
		c.Timeout = defaultTimeout
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("llm config: invalid timeout %q: %w", raw, err)
	}
	if d <= 0 {
		return fmt.Errorf("llm config: timeout must be positive, got %s", d)
	}
	c.Timeout = d
	return nil
}
