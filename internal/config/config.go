package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/kelseyhightower/envconfig"
)

// Config aggregates the settings of the whole service. It is built once in
// main and handed to the components that need it.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	AI       AIConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	var logCfg LogConfig
	if err := envconfig.Process("", &logCfg); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	db, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	var auth AuthConfig
	if err := envconfig.Process("", &auth); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	// required only checks presence
	if auth.JWTSecret == "" || auth.AdminUsername == "" || auth.AdminPassword == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY, ADMIN_USERNAME and ADMIN_PASSWORD must not be empty")
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Log: logCfg, Database: db, Auth: auth, AI: ai}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	CORSOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	Addr string `ignored:"true"`
}

// AllowedOrigins splits CORSOrigins on commas.
func (c ServerConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func loadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server config: %w", err)
	}

	port := strings.TrimSpace(cfg.Port)
	switch {
	case strings.Contains(port, ":"):
		// ":8080" or "127.0.0.1:8080"
		cfg.Addr = port
	case strings.Contains(port, " "):
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	default:
		cfg.Addr = ":" + port
	}
	return cfg, nil
}

type LogConfig struct {
	Level    string `envconfig:"LOG_LEVEL" default:"info"`
	Encoding string `envconfig:"LOG_ENCODING" default:"json"`
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type DatabaseConfig struct {
	Driver   string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	URL      string `envconfig:"DB_URL"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid database config: %w", err)
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))

	switch cfg.Driver {
	case StorageMemory:
	case StoragePostgres:
		if cfg.URL == "" {
			return DatabaseConfig{}, fmt.Errorf("DB_URL is required for the %s storage driver", cfg.Driver)
		}
	default:
		return DatabaseConfig{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Driver)
	}
	return cfg, nil
}

// AuthConfig holds the token secret and the admin credentials.
type AuthConfig struct {
	JWTSecret     string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	TokenTTL      time.Duration `envconfig:"JWT_TTL" default:"720h"`
	AdminUsername string        `envconfig:"ADMIN_USERNAME" required:"true"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD" required:"true"`
}

const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// AIConfig describes the language model backend.
type AIConfig struct {
	Provider    string        `envconfig:"AI_PROVIDER" default:"ark"`
	Model       string        `envconfig:"AI_MODEL"`
	Temperature *float64      `envconfig:"AI_TEMPERATURE"`
	TopP        *float64      `envconfig:"AI_TOP_P"`
	MaxTokens   *int          `envconfig:"AI_MAX_TOKENS"`
	Timeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`

	APIKey    string `envconfig:"ARK_API_KEY"`
	AccessKey string `envconfig:"ARK_ACCESS_KEY"`
	SecretKey string `envconfig:"ARK_SECRET_KEY"`
	BaseURL   string `envconfig:"ARK_BASE_URL" default:"https://ark.cn-beijing.volces.com/api/v3"`
	Region    string `envconfig:"ARK_REGION" default:"cn-beijing"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
}

func loadAIConfig() (AIConfig, error) {
	var cfg AIConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AIConfig{}, fmt.Errorf("invalid ai config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch cfg.Provider {
	case ProviderArk:
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = "gpt-3.5-turbo"
		}
	default:
		return AIConfig{}, fmt.Errorf("unknown AI_PROVIDER %q", cfg.Provider)
	}
	return cfg, nil
}

// Enabled reports whether the credentials for the selected provider are set.
func (c AIConfig) Enabled() bool {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey != ""
	}
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set AI_MODEL with ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}
