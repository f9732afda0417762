package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultEnvironment   = "local"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 15 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultContentSource = "public/assets/data/content.json"
	defaultFetchTimeout  = 10 * time.Second
	defaultSMTPPort      = 587
	defaultLogLevel      = "info"
	defaultLogMaxSizeMB  = 50
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 14
	minSigningKeyLength  = 32
)

// Config captures the web server configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Paths     PathsConfig
	Content   ContentConfig
	Session   SessionConfig
	Analytics AnalyticsConfig
	SMTP      SMTPConfig
	Logging   LoggingConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port         string
	Environment  string
	Dev          bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// SiteURL is the public origin used for canonical links; empty means
	// the request host.
	SiteURL string
}

// Production reports whether the server runs with production cookies.
func (s ServerConfig) Production() bool { return s.Environment == "prod" }

// PathsConfig locates templates, static files, locale bundles and markdown pages.
type PathsConfig struct {
	Templates string
	Public    string
	Locales   string
	Pages     string
}

// ContentConfig points at the content document, a file path or an http(s) URL.
type ContentConfig struct {
	Source       string
	FetchTimeout time.Duration
}

// SessionConfig configures the signed preference cookie.
type SessionConfig struct {
	SigningKey string
}

// AnalyticsConfig lists server-side goal collectors. Empty endpoints disable a sink.
type AnalyticsConfig struct {
	MetrikaEndpoint string
	VKPixelEndpoint string
}

// SMTPConfig enables the mail relay for lead submissions when Host is set.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Enabled reports whether a relay host is configured.
func (s SMTPConfig) Enabled() bool { return s.Host != "" }

// LoggingConfig configures zap and the optional rotating log file.
type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values. They take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration: defaults < .env < environment < explicit map.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	port := stringWithDefault(lookup, "LW_WEB_PORT", "")
	if port == "" {
		// Cloud Run and most PaaS hosts inject PORT.
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         strings.TrimPrefix(strings.TrimSpace(port), ":"),
			Environment:  strings.ToLower(stringWithDefault(lookup, "LW_WEB_ENV", defaultEnvironment)),
			Dev:          boolWithDefault(lookup, "LW_WEB_DEV", false) || boolWithDefault(lookup, "DEV", false),
			ReadTimeout:  durationWithDefault(lookup, "LW_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "LW_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "LW_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			SiteURL:      strings.TrimRight(strings.TrimSpace(stringWithDefault(lookup, "LW_WEB_SITE_URL", "")), "/"),
		},
		Paths: PathsConfig{
			Templates: stringWithDefault(lookup, "LW_WEB_TEMPLATES_DIR", "templates"),
			Public:    stringWithDefault(lookup, "LW_WEB_PUBLIC_DIR", "public"),
			Locales:   stringWithDefault(lookup, "LW_WEB_LOCALES_DIR", "locales"),
			Pages:     stringWithDefault(lookup, "LW_WEB_PAGES_DIR", "content/pages"),
		},
		Content: ContentConfig{
			Source:       strings.TrimSpace(stringWithDefault(lookup, "LW_WEB_CONTENT_SOURCE", defaultContentSource)),
			FetchTimeout: durationWithDefault(lookup, "LW_WEB_CONTENT_TIMEOUT", defaultFetchTimeout),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "LW_WEB_SESSION_SIGNING_KEY", ""),
		},
		Analytics: AnalyticsConfig{
			MetrikaEndpoint: stringWithDefault(lookup, "LW_WEB_METRIKA_ENDPOINT", ""),
			VKPixelEndpoint: stringWithDefault(lookup, "LW_WEB_VK_PIXEL_ENDPOINT", ""),
		},
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(stringWithDefault(lookup, "LW_WEB_SMTP_HOST", "")),
			Port:     intWithDefault(lookup, "LW_WEB_SMTP_PORT", defaultSMTPPort),
			Username: stringWithDefault(lookup, "LW_WEB_SMTP_USERNAME", ""),
			Password: stringWithDefault(lookup, "LW_WEB_SMTP_PASSWORD", ""),
			From:     strings.TrimSpace(stringWithDefault(lookup, "LW_WEB_SMTP_FROM", "")),
			To:       strings.TrimSpace(stringWithDefault(lookup, "LW_WEB_SMTP_TO", "")),
		},
		Logging: LoggingConfig{
			Level:      strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
			File:       stringWithDefault(lookup, "LW_WEB_LOG_FILE", ""),
			MaxSizeMB:  intWithDefault(lookup, "LW_WEB_LOG_MAX_SIZE_MB", defaultLogMaxSizeMB),
			MaxBackups: intWithDefault(lookup, "LW_WEB_LOG_MAX_BACKUPS", defaultLogMaxBackups),
			MaxAgeDays: intWithDefault(lookup, "LW_WEB_LOG_MAX_AGE_DAYS", defaultLogMaxAgeDays),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if p, err := strconv.Atoi(cfg.Server.Port); err != nil || p <= 0 || p > 65535 {
		missing = append(missing, "Server.Port")
	}
	if cfg.Content.Source == "" {
		missing = append(missing, "Content.Source")
	}
	if cfg.Content.FetchTimeout <= 0 {
		missing = append(missing, "Content.FetchTimeout")
	}
	if cfg.Server.Production() && len(cfg.Session.SigningKey) < minSigningKeyLength {
		missing = append(missing, "Session.SigningKey")
	}
	if cfg.SMTP.Enabled() {
		if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
			missing = append(missing, "SMTP.Port")
		}
		if cfg.SMTP.From == "" {
			missing = append(missing, "SMTP.From")
		}
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	if _, err := os.Stat(absPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	values, err := godotenv.Read(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
