package auth

import (
	"context"
	"errors"

	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

// LocalAuthProvider accepts the static tokens stored with each user.
// Meant for development only.
type LocalAuthProvider struct {
	users  storage.UserRepository
	logger internal.Logger
}

func NewLocalAuthProvider(users storage.UserRepository, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{users: users, logger: logger}
}

func (a *LocalAuthProvider) Authenticate(ctx context.Context, token string) (*internal.Principal, error) {
	u, err := a.users.GetUserByToken(ctx, token)
	if errors.Is(err, internal.ErrNotFound) {
		a.logger.Warnf("unknown static token")
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	role := u.Role
	if role == "" {
		role = internal.RoleUser
	}
	return &internal.Principal{ID: u.ID, Role: role}, nil
}

var _ Provider = (*LocalAuthProvider)(nil)
