// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	// OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required,notEmpty"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL,required,notEmpty"`

	// Token
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	// Rate Limit
	RateLimitGeneral       int           `env:"RATE_LIMIT_GENERAL" envDefault:"100"`
	RateLimitGeneralWindow time.Duration `env:"RATE_LIMIT_GENERAL_WINDOW" envDefault:"15m"`
	RateLimitAuth          int           `env:"RATE_LIMIT_AUTH" envDefault:"1000"`
	RateLimitAuthWindow    time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" envDefault:"1h"`

	// Server
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	PublicURL   string `env:"PUBLIC_URL"` // APIドキュメントのservers欄に載せるURL
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Cookie（GOOGLE_REDIRECT_URLがhttpsの場合にSecure属性を付ける）
	CookieSecure bool
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.CookieSecure = strings.HasPrefix(cfg.GoogleRedirectURL, "https://")
	cfg.CORSAllowedOrigins = normalizeOrigins(cfg.CORSAllowedOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は読み込んだ値の整合性を検証する。
func (c *Config) validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must not be negative: %s", c.TokenTTL))
	}
	if c.RateLimitGeneral < 0 || c.RateLimitAuth < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_GENERAL and RATE_LIMIT_AUTH must not be negative"))
	}
	if c.RateLimitGeneralWindow < 0 || c.RateLimitAuthWindow < 0 {
		errs = append(errs, errors.New("rate limit windows must not be negative"))
	}

	return errors.Join(errs...)
}

// normalizeOrigins は空要素と前後の空白、末尾のスラッシュを取り除く。
func normalizeOrigins(origins []string) []string {
	result := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			result = append(result, o)
		}
	}
	return result
}
