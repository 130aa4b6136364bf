package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-3.5-turbo",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGemini:    "gemini-2.0-flash",
}

// Config holds the tooluse CLI configuration
type Config struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	ExitKeyword string  `mapstructure:"exit_keyword"`

	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string `mapstructure:"openai_base_url"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`

	Transcript TranscriptConfig `mapstructure:"transcript"`
}

type TranscriptConfig struct {
	Backend  string        `mapstructure:"backend"`
	Dir      string        `mapstructure:"dir"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LoadOptions struct {
	// ConfigFile overrides the config file search paths
	ConfigFile string
	// Flags are bound over env and file values when set on the command line
	Flags *pflag.FlagSet
	// EnvFiles are loaded with godotenv before reading the environment
	EnvFiles []string
}

// Load reads configuration from .env files, the environment, an optional
// tooluse.yaml and the command line flags, in increasing precedence.
func Load(opts LoadOptions) (*Config, error) {
	loadEnvFiles(opts.EnvFiles)

	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"provider":             "TOOLUSE_PROVIDER",
		"model":                "TOOLUSE_MODEL",
		"temperature":          "TOOLUSE_TEMPERATURE",
		"max_tokens":           "TOOLUSE_MAX_TOKENS",
		"exit_keyword":         "TOOLUSE_EXIT_KEYWORD",
		"openai_api_key":       "OPENAI_API_KEY",
		"openai_base_url":      "OPENAI_BASE_URL",
		"anthropic_api_key":    "ANTHROPIC_API_KEY",
		"gemini_api_key":       "GEMINI_API_KEY",
		"transcript.backend":   "TOOLUSE_TRANSCRIPT_BACKEND",
		"transcript.dir":       "TOOLUSE_TRANSCRIPT_DIR",
		"transcript.redis_url": "TOOLUSE_REDIS_URL",
		"transcript.ttl":       "TOOLUSE_TRANSCRIPT_TTL",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	if opts.Flags != nil {
		for configKey, flagName := range map[string]string{"provider": "provider", "model": "model"} {
			flag := opts.Flags.Lookup(flagName)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(configKey, flag); err != nil {
				log.Warn().Err(err).Msgf("Failed to bind flag --%s for %s", flagName, configKey)
			}
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("tooluse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.tooluse")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Debug().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	config.Transcript.Backend = strings.ToLower(strings.TrimSpace(config.Transcript.Backend))

	if config.Model == "" {
		config.Model = defaultModels[config.Provider]
	}

	log.Debug().
		Str("provider", config.Provider).
		Str("model", config.Model).
		Str("transcript_backend", config.Transcript.Backend).
		Msg("Config loaded")

	return &config, nil
}

func loadEnvFiles(files []string) {
	if len(files) == 0 {
		// A missing .env is the common case
		_ = godotenv.Load()
		return
	}

	if err := godotenv.Load(files...); err != nil {
		log.Warn().Err(err).Strs("files", files).Msg("Failed to load env files")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("model", "")
	v.SetDefault("temperature", 0)
	v.SetDefault("max_tokens", 0)
	v.SetDefault("exit_keyword", "exit")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("transcript.backend", BackendMemory)
	v.SetDefault("transcript.dir", "./transcripts")
	v.SetDefault("transcript.redis_url", "")
	v.SetDefault("transcript.ttl", 24*time.Hour)
}

// APIKey returns the key for the selected provider
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

// BaseURL returns the endpoint override for the selected provider
func (c *Config) BaseURL() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIBaseURL
	}
	return ""
}

// Validate checks the fields needed to talk to a model. Commands that never
// call a model skip it.
func (c *Config) Validate() error {
	var missingVars []string

	switch c.Provider {
	case ProviderOpenAI:
		// OpenAI-compatible local servers accept any key
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			missingVars = append(missingVars, "OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			missingVars = append(missingVars, "ANTHROPIC_API_KEY")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			missingVars = append(missingVars, "GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported provider %q: expected one of openai, anthropic, gemini", c.Provider)
	}

	if c.Model == "" {
		missingVars = append(missingVars, "TOOLUSE_MODEL")
	}

	if c.Transcript.Backend == BackendRedis && c.Transcript.RedisURL == "" {
		missingVars = append(missingVars, "TOOLUSE_REDIS_URL")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return nil
}
