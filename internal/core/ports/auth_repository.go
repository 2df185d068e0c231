package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// UserRepository defines the interface for user credential persistence.
type UserRepository interface {
	// Create inserts a new user and returns it with its assigned ID.
	// Returns domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// GrantPermissions atomically adds perms to the user's permission set.
	// Granting an already held permission is a no-op.
	GrantPermissions(ctx context.Context, id int64, perms domain.Permissions) (*domain.User, error)
}
