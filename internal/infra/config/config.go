package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Email    EmailConfig    `yaml:"email"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Upload   UploadConfig   `yaml:"upload"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig contains the chat completion settings shared by every provider.
type LLMConfig struct {
	DefaultProvider string         `yaml:"defaultProvider"`
	SystemPrompt    string         `yaml:"systemPrompt"`
	DefaultPrompt   string         `yaml:"defaultPrompt"`
	Temperature     float32        `yaml:"temperature"`
	MaxTokens       int            `yaml:"maxTokens"`
	Groq            ProviderConfig `yaml:"groq"`
	OpenAI          ProviderConfig `yaml:"openai"`
}

// ProviderConfig holds the credentials and endpoint of one hosted model provider.
type ProviderConfig struct {
	APIKey       string `yaml:"apiKey"`
	BaseURL      string `yaml:"baseUrl"`
	DefaultModel string `yaml:"defaultModel"`
}

// EmailConfig controls outbound email delivery.
type EmailConfig struct {
	From            string         `yaml:"from"`
	DefaultProvider string         `yaml:"defaultProvider"`
	SendGrid        SendGridConfig `yaml:"sendgrid"`
	SMTP            SMTPConfig     `yaml:"smtp"`
}

// SendGridConfig configures the transactional mail API.
type SendGridConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
}

// SMTPConfig configures authenticated SMTP delivery.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Secure   bool   `yaml:"secure"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DatabaseConfig points at the history store.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// SessionConfig controls session tokens and their revocation store.
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookieName"`
	StoreAddr  string        `yaml:"storeAddr"`
}

// AuthConfig groups identity provider settings.
type AuthConfig struct {
	Google GoogleConfig `yaml:"google"`
}

// GoogleConfig holds OAuth settings for Google sign-in.
type GoogleConfig struct {
	ClientID             string `yaml:"clientId"`
	ClientSecret         string `yaml:"clientSecret"`
	RedirectURL          string `yaml:"redirectUrl"`
	PostLoginRedirectURL string `yaml:"postLoginRedirectUrl"`
}

// StorageConfig configures the optional S3 compatible transcript archive.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Enabled reports whether every field required by the archive is present.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.Endpoint) != "" &&
		strings.TrimSpace(s.AccessKey) != "" &&
		strings.TrimSpace(s.SecretKey) != "" &&
		strings.TrimSpace(s.Bucket) != ""
}

// UploadConfig bounds transcript uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"maxBytes"`
}

// Load reads configuration from a YAML file, dotenv files and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	// godotenv never overrides variables that are already set, so the real
	// environment wins over .env.local, which wins over .env.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")

	setString(&cfg.LLM.DefaultProvider, "LLM_DEFAULT_PROVIDER")
	setString(&cfg.LLM.DefaultPrompt, "LLM_DEFAULT_PROMPT")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS")
	setString(&cfg.LLM.Groq.APIKey, "GROQ_API_KEY")
	setString(&cfg.LLM.Groq.BaseURL, "GROQ_BASE_URL")
	setString(&cfg.LLM.Groq.DefaultModel, "GROQ_MODEL")
	setString(&cfg.LLM.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.LLM.OpenAI.DefaultModel, "OPENAI_MODEL")

	setString(&cfg.Email.From, "EMAIL_FROM")
	setString(&cfg.Email.DefaultProvider, "EMAIL_PROVIDER")
	setString(&cfg.Email.SendGrid.APIKey, "SENDGRID_API_KEY")
	setString(&cfg.Email.SendGrid.BaseURL, "SENDGRID_BASE_URL")
	setString(&cfg.Email.SMTP.Host, "EMAIL_HOST")
	setInt(&cfg.Email.SMTP.Port, "EMAIL_PORT")
	setBool(&cfg.Email.SMTP.Secure, "EMAIL_SECURE")
	setString(&cfg.Email.SMTP.User, "EMAIL_USER")
	setString(&cfg.Email.SMTP.Password, "EMAIL_PASSWORD")

	setString(&cfg.Database.URL, "DATABASE_URL")
	if v := os.Getenv("DATABASE_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Database.MaxConns = int32(parsed)
		}
	}

	setString(&cfg.Session.Secret, "NEXTAUTH_SECRET")
	setString(&cfg.Session.Secret, "SESSION_SECRET")
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = parsed
		}
	}
	setString(&cfg.Session.StoreAddr, "SESSION_STORE_ADDR")

	setString(&cfg.Auth.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Auth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.Auth.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	setString(&cfg.Auth.Google.PostLoginRedirectURL, "POST_LOGIN_REDIRECT_URL")

	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.Region, "STORAGE_REGION")
	if v := os.Getenv("UPLOAD_MAX_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxBytes = parsed
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		LLM: LLMConfig{
			DefaultProvider: "groq",
			SystemPrompt:    "You are an expert meeting summarizer. Your task is to analyze the following transcript and create a summary based on the specific instructions.",
			DefaultPrompt:   "Summarize this meeting transcript concisely, highlighting key points and action items.",
			Temperature:     0.5,
			MaxTokens:       4000,
			Groq: ProviderConfig{
				BaseURL:      "https://api.groq.com/openai/v1",
				DefaultModel: "llama3-70b-8192",
			},
			OpenAI: ProviderConfig{
				BaseURL:      "https://api.openai.com/v1",
				DefaultModel: "gpt-4o",
			},
		},
		Email: EmailConfig{
			From:            "noreply@aimeetingsummarizer.com",
			DefaultProvider: "transactional",
			SendGrid: SendGridConfig{
				BaseURL: "https://api.sendgrid.com",
			},
			SMTP: SMTPConfig{
				Host: "smtp.gmail.com",
				Port: 587,
			},
		},
		Database: DatabaseConfig{
			MaxConns: 4,
		},
		Session: SessionConfig{
			TTL:        30 * 24 * time.Hour,
			CookieName: "session",
		},
		Auth: AuthConfig{
			Google: GoogleConfig{
				RedirectURL:          "http://localhost:8080/api/v1/auth/google/callback",
				PostLoginRedirectURL: "/",
			},
		},
		Storage: StorageConfig{
			Region: "auto",
		},
		Upload: UploadConfig{
			MaxBytes: 5 << 20,
		},
	}
}

// Validate ensures the configuration is structurally safe to use. Missing provider
// secrets are not checked here; each dispatcher reports them by name
// when a request needs them.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.LLM.SystemPrompt) == "" {
		return errors.New("llm.systemPrompt cannot be empty")
	}
	if strings.TrimSpace(c.LLM.DefaultPrompt) == "" {
		return errors.New("llm.defaultPrompt cannot be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("llm.maxTokens must be positive")
	}
	if strings.TrimSpace(c.LLM.Groq.DefaultModel) == "" || strings.TrimSpace(c.LLM.OpenAI.DefaultModel) == "" {
		return errors.New("llm provider default models cannot be empty")
	}
	if strings.TrimSpace(c.Email.From) == "" {
		return errors.New("email.from cannot be empty")
	}
	if c.Email.SMTP.Port <= 0 || c.Email.SMTP.Port > 65535 {
		return errors.New("email.smtp.port must be between 1 and 65535")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookieName cannot be empty")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.maxBytes must be positive")
	}
	return nil
}
