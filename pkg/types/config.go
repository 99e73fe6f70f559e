package types

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Converter ConverterConfig
	Review    ReviewConfig
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AppEnv          string
	LogLevel        string
	// HubEnabled mounts the landing page and the review tool. With it off the
	// service behaves as the standalone converter.
	HubEnabled         bool
	MaxUploadBytes     int64
	CORSAllowedOrigins []string
}

type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	ConvertModel string
	ReviewModel  string
}

type OpenAIConfig struct {
	APIKey      string
	ReviewModel string
}

type ConverterConfig struct {
	Timeout         time.Duration
	Temperature     float64
	MaxOutputTokens int
}

type ReviewConfig struct {
	Provider string
	Timeout  time.Duration
}

// geminiKeyEnvs are checked in order; the first non-empty value wins.
var geminiKeyEnvs = []string{"GOOGLE_GEMINI_KEY", "GEMINI_API_KEY"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("READ_TIMEOUT", 15*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 3*time.Minute)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HUB_ENABLED", true)
	v.SetDefault("MAX_UPLOAD_BYTES", 1<<20)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_CONVERT_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_REVIEW_MODEL", "gemini-2.0-flash")
	v.SetDefault("OPENAI_REVIEW_MODEL", "gpt-5-nano")

	v.SetDefault("CONVERT_TIMEOUT", 30*time.Second)
	v.SetDefault("CONVERT_TEMPERATURE", 0.5)
	v.SetDefault("CONVERT_MAX_OUTPUT_TOKENS", 1024)

	v.SetDefault("REVIEW_PROVIDER", "gemini")
	v.SetDefault("REVIEW_TIMEOUT", 2*time.Minute)
}

func firstNonEmpty(v *viper.Viper, keys []string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(v.GetString(key)); value != "" {
			return value
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LoadConfig reads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		log.Print("No config file found, falling back to environment variables")
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:               v.GetString("SERVER_HOST"),
			Port:               v.GetString("SERVER_PORT"),
			ReadTimeout:        v.GetDuration("READ_TIMEOUT"),
			WriteTimeout:       v.GetDuration("WRITE_TIMEOUT"),
			ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
			AppEnv:             v.GetString("APP_ENV"),
			LogLevel:           v.GetString("LOG_LEVEL"),
			HubEnabled:         v.GetBool("HUB_ENABLED"),
			MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Gemini: GeminiConfig{
			APIKey:       firstNonEmpty(v, geminiKeyEnvs),
			BaseURL:      strings.TrimRight(v.GetString("GEMINI_BASE_URL"), "/"),
			ConvertModel: v.GetString("GEMINI_CONVERT_MODEL"),
			ReviewModel:  v.GetString("GEMINI_REVIEW_MODEL"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      v.GetString("OPENAI_API_KEY"),
			ReviewModel: v.GetString("OPENAI_REVIEW_MODEL"),
		},
		Converter: ConverterConfig{
			Timeout:         v.GetDuration("CONVERT_TIMEOUT"),
			Temperature:     v.GetFloat64("CONVERT_TEMPERATURE"),
			MaxOutputTokens: v.GetInt("CONVERT_MAX_OUTPUT_TOKENS"),
		},
		Review: ReviewConfig{
			Provider: strings.ToLower(strings.TrimSpace(v.GetString("REVIEW_PROVIDER"))),
			Timeout:  v.GetDuration("REVIEW_TIMEOUT"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports missing required settings
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("%s is required", strings.Join(geminiKeyEnvs, " or "))
	}
	if c.Review.Provider == "openai" && c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when REVIEW_PROVIDER=openai")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
