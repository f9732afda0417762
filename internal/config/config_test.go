package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Environment != "local" || cfg.Server.Production() {
		t.Errorf("expected local environment, got %s", cfg.Server.Environment)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Content.Source != defaultContentSource {
		t.Errorf("unexpected content source: %s", cfg.Content.Source)
	}
	if cfg.Paths.Templates != "templates" || cfg.Paths.Public != "public" {
		t.Errorf("unexpected paths: %+v", cfg.Paths)
	}
	if cfg.SMTP.Enabled() {
		t.Errorf("expected smtp relay disabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.File != "" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadPortPrecedence(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{"PORT": "9000"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("expected PORT fallback, got %s", cfg.Server.Port)
	}

	cfg, err = Load(WithEnvMap(map[string]string{"PORT": "9000", "LW_WEB_PORT": ":7070"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected LW_WEB_PORT to win, got %s", cfg.Server.Port)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"LW_WEB_ENV":                 "prod",
		"LW_WEB_DEV":                 "yes",
		"LW_WEB_CONTENT_SOURCE":      "https://cdn.laserwave.studio/content.json",
		"LW_WEB_CONTENT_TIMEOUT":     "3s",
		"LW_WEB_SESSION_SIGNING_KEY": "0123456789abcdef0123456789abcdef",
		"LW_WEB_METRIKA_ENDPOINT":    "https://mc.example.com/watch",
		"LW_WEB_SMTP_HOST":           "smtp.example.com",
		"LW_WEB_SMTP_PORT":           "465",
		"LW_WEB_SMTP_FROM":           "site@laserwave.studio",
		"LW_WEB_LOG_FILE":            "/var/log/lw/web.log",
		"LOG_LEVEL":                  "DEBUG",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Server.Production() || !cfg.Server.Dev {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Content.FetchTimeout != 3*time.Second {
		t.Errorf("unexpected fetch timeout: %s", cfg.Content.FetchTimeout)
	}
	if !cfg.SMTP.Enabled() || cfg.SMTP.Port != 465 {
		t.Errorf("unexpected smtp config: %+v", cfg.SMTP)
	}
	if cfg.Analytics.MetrikaEndpoint != "https://mc.example.com/watch" || cfg.Analytics.VKPixelEndpoint != "" {
		t.Errorf("unexpected analytics config: %+v", cfg.Analytics)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected lowercased level, got %s", cfg.Logging.Level)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nLW_WEB_PORT=8181\nexport LW_WEB_CONTENT_SOURCE=\"testdata/content.json\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(WithEnvFile(envPath), WithoutSystemEnv(), WithEnvMap(map[string]string{"LW_WEB_PORT": "8282"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "8282" {
		t.Errorf("expected explicit map to beat .env, got %s", cfg.Server.Port)
	}
	if cfg.Content.Source != "testdata/content.json" {
		t.Errorf("expected .env content source, got %s", cfg.Content.Source)
	}

	if _, err := Load(WithEnvFile(filepath.Join(dir, "missing.env")), WithoutSystemEnv()); err != nil {
		t.Errorf("missing .env must be ignored, got %v", err)
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"LW_WEB_PORT":           "http",
		"LW_WEB_ENV":            "prod",
		"LW_WEB_SMTP_HOST":      "smtp.example.com",
		"LW_WEB_SMTP_PORT":      "0",
		"LW_WEB_CONTENT_SOURCE": " ",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := map[string]bool{
		"Server.Port":        true,
		"Session.SigningKey": true,
		"SMTP.Port":          true,
		"SMTP.From":          true,
	}
	for _, f := range vErr.Fields() {
		delete(want, f)
	}
	if len(want) != 0 {
		t.Errorf("expected fields missing from error: %v (got %v)", want, vErr.Fields())
	}
}

func TestLoadSiteURLTrimsTrailingSlash(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{"LW_WEB_SITE_URL": " https://laserwave.example/ "}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.SiteURL != "https://laserwave.example" {
		t.Errorf("unexpected site url: %q", cfg.Server.SiteURL)
	}
}
