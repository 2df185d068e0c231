package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/library-system/internal/core/domain"
)

const userColumns = `id, username, password_hash, is_admin, is_super_admin, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, is_admin, is_super_admin, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		user.Username, user.PasswordHash, user.IsAdmin(), user.IsSuperAdmin(), user.CreatedAt, user.UpdatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", classify(err))
	}
	return created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GrantPermissions ORs the flags in a single UPDATE; superadmin always sets is_admin.
func (r *UserRepository) GrantPermissions(ctx context.Context, id int64, perms domain.Permissions) (*domain.User, error) {
	perms = perms.Grant(0)
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		    SET is_admin = is_admin OR $2,
		        is_super_admin = is_super_admin OR $3,
		        updated_at = $4
		  WHERE id = $1
		  RETURNING `+userColumns,
		id, perms.Has(domain.PermAdmin), perms.Has(domain.PermSuperAdmin), time.Now().UTC(),
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("grant permissions: %w", classify(err))
	}
	return user, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", classify(err))
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                     domain.User
		isAdmin, isSuperAdmin bool
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &isAdmin, &isSuperAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Permissions = domain.PermissionsFromFlags(isAdmin, isSuperAdmin)
	return &u, nil
}
