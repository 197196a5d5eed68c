package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	GeminiAPIKey       string        `mapstructure:"GEMINI_API_KEY"`
	AnthropicAPIKey    string        `mapstructure:"ANTHROPIC_API_KEY"`
	AIPrimaryProvider  string        `mapstructure:"AI_PRIMARY_PROVIDER"`
	AIFallbackEnabled  bool          `mapstructure:"AI_FALLBACK_ENABLED"`
	AIRequestTimeout   time.Duration `mapstructure:"AI_REQUEST_TIMEOUT"`
	AIQualityThreshold float64       `mapstructure:"AI_QUALITY_THRESHOLD"`

	AuthSecret   string `mapstructure:"AUTH_SECRET"`
	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	TLSEnabled  bool   `mapstructure:"TLS_ENABLED"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("AI_PRIMARY_PROVIDER", "gemini")
	v.SetDefault("AI_FALLBACK_ENABLED", true)
	v.SetDefault("AI_REQUEST_TIMEOUT", "30s")
	v.SetDefault("AI_QUALITY_THRESHOLD", 6.0)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("ANTHROPIC_API_KEY")
	v.BindEnv("AI_PRIMARY_PROVIDER")
	v.BindEnv("AI_FALLBACK_ENABLED")
	v.BindEnv("AI_REQUEST_TIMEOUT")
	v.BindEnv("AI_QUALITY_THRESHOLD")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("TLS_ENABLED")
	v.BindEnv("TLS_CERT_FILE")
	v.BindEnv("TLS_KEY_FILE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_SECRET for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// mode AUTH_SECRET must be set so that real JWT authentication is enforced,
// and the primary AI provider must have an API key configured.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSecret == "" {
		return fmt.Errorf(
			"AUTH_SECRET must be set when ENV=%q. "+
				"Refusing to start without authentication configuration", c.Env)
	}

	if c.AIPrimaryProvider != "gemini" && c.AIPrimaryProvider != "claude" {
		return fmt.Errorf("AI_PRIMARY_PROVIDER must be \"gemini\" or \"claude\", got %q", c.AIPrimaryProvider)
	}

	if c.GeminiAPIKey == "" && c.AnthropicAPIKey == "" {
		return fmt.Errorf("at least one of GEMINI_API_KEY or ANTHROPIC_API_KEY must be set")
	}

	// The primary provider must have its own key; the other key is optional
	// and only enables fallback.
	if c.AIPrimaryProvider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when AI_PRIMARY_PROVIDER is \"gemini\"")
	}
	if c.AIPrimaryProvider == "claude" && c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PRIMARY_PROVIDER is \"claude\"")
	}

	if c.AIQualityThreshold < 1 || c.AIQualityThreshold > 10 {
		return fmt.Errorf("AI_QUALITY_THRESHOLD must be between 1 and 10, got %g", c.AIQualityThreshold)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
