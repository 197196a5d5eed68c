package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:               "8000",
		Env:                "production",
		DatabaseURL:        "postgres://localhost/notewriter",
		AuthSecret:         "super-secret",
		GeminiAPIKey:       "gm-key",
		AnthropicAPIKey:    "an-key",
		AIPrimaryProvider:  "gemini",
		AIFallbackEnabled:  true,
		AIRequestTimeout:   30 * time.Second,
		AIQualityThreshold: 6.0,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_RequiresAuthSecretOutsideDev(t *testing.T) {
	cfg := validConfig()
	cfg.AuthSecret = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "AUTH_SECRET") {
		t.Fatalf("expected AUTH_SECRET error, got %v", err)
	}

	// Development mode does not require the secret.
	cfg.Env = "development"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected dev config to validate, got %v", err)
	}
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.AIPrimaryProvider = "gpt"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "AI_PRIMARY_PROVIDER") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestValidate_RequiresPrimaryProviderKey(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected GEMINI_API_KEY error, got %v", err)
	}

	cfg = validConfig()
	cfg.AIPrimaryProvider = "claude"
	cfg.AnthropicAPIKey = ""
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("expected ANTHROPIC_API_KEY error, got %v", err)
	}
}

func TestValidate_RequiresSomeProviderKey(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	cfg.AnthropicAPIKey = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when no provider keys are set")
	}
}

func TestValidate_QualityThresholdBounds(t *testing.T) {
	cfg := validConfig()
	cfg.AIQualityThreshold = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold below 1")
	}

	cfg.AIQualityThreshold = 11
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold above 10")
	}
}

func TestValidate_TLSFilesRequired(t *testing.T) {
	cfg := validConfig()
	cfg.TLSEnabled = true
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "TLS_CERT_FILE") {
		t.Fatalf("expected TLS_CERT_FILE error, got %v", err)
	}

	cfg.TLSCertFile = "server.crt"
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "TLS_KEY_FILE") {
		t.Fatalf("expected TLS_KEY_FILE error, got %v", err)
	}

	cfg.TLSKeyFile = "server.key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid TLS config, got %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDev() || cfg.IsProduction() {
		t.Fatal("expected development mode")
	}

	cfg.Env = "production"
	if cfg.IsDev() || !cfg.IsProduction() {
		t.Fatal("expected production mode")
	}
}
