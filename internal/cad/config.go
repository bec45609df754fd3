package cad

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/loftcad-labs/loftcad-go/internal/platform/env"
)

type Config struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

func ConfigFromEnv() (Config, error) {
	timeout, err := env.Duration("CAD_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		BaseURL:  env.String("CAD_BASE_URL", "https://cad.example.com"),
		APIToken: env.String("CAD_API_TOKEN", ""),
		Timeout:  timeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("CAD_BASE_URL is required")
	}
	if c.Timeout <= 0 {
		return errors.New("CAD_HTTP_TIMEOUT must be positive")
	}
	return nil
}

// TokenSource returns the static bearer credential configured for the
// service, or nil when none is set. Interactive credential flows live with
// the caller, not here.
func (c Config) TokenSource() oauth2.TokenSource {
	token := strings.TrimSpace(c.APIToken)
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
