// Package config loads rolemesh settings from a file and the environment.
//
// Values are resolved by viper in the usual order: explicit Set calls, then
// environment variables (prefix ROLEMESH_), then the config file, then the
// defaults below. Provider API keys additionally honor the bare variables
// the SDKs read themselves, such as OPENAI_API_KEY.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/hupe1980/rolemesh/logging"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ROLEMESH"

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ErrMissingAPIKey is returned by Validate when the selected provider has no key.
var ErrMissingAPIKey = errors.New("missing api key")

// Config holds everything the CLI needs to build a runner.
type Config struct {
	Provider       string  `mapstructure:"provider" validate:"required,oneof=openai anthropic gemini"`
	ClarifierModel string  `mapstructure:"clarifier_model"`
	DirectorModel  string  `mapstructure:"director_model"`
	ExecutorModel  string  `mapstructure:"executor_model"`
	Temperature    float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`

	RoundLimit        int      `mapstructure:"round_limit" validate:"gte=1"`
	BatchRoundLimit   int      `mapstructure:"batch_round_limit" validate:"gte=1"`
	Concurrency       int      `mapstructure:"concurrency" validate:"gte=0"`
	Clarify           bool     `mapstructure:"clarify"`
	OutputLanguage    string   `mapstructure:"output_language"`
	MemoryWindow      int      `mapstructure:"memory_window" validate:"gte=0"`
	MaxToolIterations int      `mapstructure:"max_tool_iterations" validate:"gte=1"`
	Sentinels         []string `mapstructure:"sentinels" validate:"dive,sentinel"`

	MCPConfigPath    string `mapstructure:"mcp_config_path"`
	GoogleMapsAPIKey string `mapstructure:"google_maps_api_key"`

	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`

	Verbose     bool   `mapstructure:"verbose"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `mapstructure:"log_format" validate:"oneof=text json"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

var defaults = map[string]any{
	"provider":            ProviderGemini,
	"clarifier_model":     "",
	"director_model":      "",
	"executor_model":      "",
	"temperature":         0.2,
	"round_limit":         10,
	"batch_round_limit":   15,
	"concurrency":         4,
	"clarify":             true,
	"output_language":     "",
	"memory_window":       0,
	"max_tool_iterations": 10,
	"sentinels":           []string{},
	"mcp_config_path":     "",
	"google_maps_api_key": "",
	"openai_api_key":      "",
	"anthropic_api_key":   "",
	"gemini_api_key":      "",
	"verbose":             false,
	"log_level":           "info",
	"log_format":          "text",
	"metrics_addr":        "",
}

// bareEnv lists keys that also accept an unprefixed variable.
var bareEnv = map[string][]string{
	"openai_api_key":      {"OPENAI_API_KEY"},
	"anthropic_api_key":   {"ANTHROPIC_API_KEY"},
	"gemini_api_key":      {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"google_maps_api_key": {"GOOGLE_MAPS_API_KEY"},
}

// New returns a viper instance with defaults and environment bindings
// applied. Callers may bind command flags to it before calling Decode.
func New() *viper.Viper {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, names := range bareEnv {
		args := append([]string{key, EnvPrefix + "_" + strings.ToUpper(key)}, names...)
		_ = v.BindEnv(args...)
	}

	return v
}

// Load reads path (yaml, json or toml by extension) and the environment.
// An empty path searches for rolemesh.{yaml,json,toml} in the working
// directory and $HOME/.rolemesh; a missing file is not an error then.
func Load(path string) (*Config, error) {
	v := New()

	if err := ReadFile(v, path); err != nil {
		return nil, err
	}

	return Decode(v)
}

// ReadFile attaches the config file at path to v.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("rolemesh")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.rolemesh")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	return nil
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("sentinel", validSentinel)
	return v
}

// validSentinel rejects blank sentinels, which would match every message.
func validSentinel(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validate checks field constraints and that the selected provider has an
// API key.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.APIKey() == "" {
		return fmt.Errorf("%w for provider %s", ErrMissingAPIKey, c.Provider)
	}

	return nil
}

// APIKey returns the key of the selected provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}

// Logger builds the structured logger described by LogLevel and LogFormat.
// Verbose forces debug level.
func (c *Config) Logger(w io.Writer) (*logging.RoleMeshLogger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	if c.Verbose {
		level = logging.LogLevelDebug
	}
	if w == nil {
		w = os.Stderr
	}

	cfg := logging.DefaultLoggerConfig()
	cfg.Level = level
	cfg.Format = c.LogFormat
	cfg.Output = w
	cfg.Component = "rolemesh"

	return logging.NewLogger(cfg), nil
}
