package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from environment variables.
type Config struct {
	ServerAddr  string `env:"SERVER_ADDR" envDefault:":3000"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:accounts.db?cache=shared&mode=rwc"`

	SigningKey      string   `env:"JWT_SIGNING_KEY,required"`
	TokenExpiration int      `env:"TOKEN_EXPIRATION_HOURS" envDefault:"168"`
	Issuer          string   `env:"TOKEN_ISSUER" envDefault:"accounts"`
	Audience        []string `env:"TOKEN_AUDIENCE" envDefault:"accounts"`

	CookieName   string `env:"SESSION_COOKIE_NAME" envDefault:"token"`
	TokenLookup  string `env:"TOKEN_LOOKUP" envDefault:"cookie:token,header:Authorization"`
	AuthScheme   string `env:"AUTH_SCHEME" envDefault:"Bearer"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"false"`

	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"no-reply@localhost"`

	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	GlobalRateMax   int           `env:"RATE_LIMIT_GLOBAL_MAX" envDefault:"500"`
	AuthRateMax     int           `env:"RATE_LIMIT_AUTH_MAX" envDefault:"50"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) GetSigningKey() string    { return c.SigningKey }
func (c *Config) GetSigningMethod() string { return "HS256" }
func (c *Config) GetContextKey() string    { return c.CookieName }
func (c *Config) GetTokenExpiration() int  { return c.TokenExpiration }
func (c *Config) GetTokenLookup() string   { return c.TokenLookup }
func (c *Config) GetAuthScheme() string    { return c.AuthScheme }
func (c *Config) GetIssuer() string        { return c.Issuer }
func (c *Config) GetAudience() []string    { return c.Audience }
func (c *Config) GetCookieSecure() bool    { return c.CookieSecure }
