package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token   string
	User    *domain.User
	IsAdmin bool
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	AssignAdmin(ctx context.Context, userID int64) (*domain.User, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, *domain.AccessToken, error)
}

// TokenValidator verifies a raw bearer token.
type TokenValidator interface {
	Validate(raw string) (*domain.AccessToken, error)
}
