package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/config"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

// ErrInvalidToken means the credentials were understood and rejected.
var ErrInvalidToken = errors.New("invalid token")

type Provider interface {
	Authenticate(ctx context.Context, token string) (*internal.Principal, error)
}

func NewProvider(cfg config.AuthConfig, users storage.UserRepository, logger internal.Logger) (Provider, error) {
	switch cfg.Mode {
	case "token":
		return NewLocalAuthProvider(users, logger), nil
	case "jwt":
		return NewJWTProvider(cfg.JWTSecret, logger), nil
	case "remote":
		return NewRemoteAuthProvider(cfg.ServiceURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
