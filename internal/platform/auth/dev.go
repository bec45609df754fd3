package auth

import (
	"context"
	"net/http"
)

// DevAuthenticator grants every request a fixed identity. Local use only.
type DevAuthenticator struct {
	cfg Config
}

func NewDevAuthenticator(cfg Config) *DevAuthenticator {
	return &DevAuthenticator{cfg: cfg}
}

func (a *DevAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return Identity{
		Subject: a.cfg.DevSubject,
		Email:   a.cfg.DevEmail,
		Roles:   append([]string(nil), a.cfg.DevRoles...),
	}, nil
}

// FromConfig builds the authenticator for the configured mode, or nil when
// authentication is disabled.
func FromConfig(ctx context.Context, cfg Config) (Authenticator, error) {
	switch cfg.Mode {
	case ModeOIDC:
		return NewOIDCAuthenticator(ctx, cfg)
	case ModeDev:
		return NewDevAuthenticator(cfg), nil
	default:
		return nil, nil
	}
}
