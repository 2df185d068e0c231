package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// dummyHash is compared against when the username does not exist so that an
// unknown user and a wrong password take the same path through bcrypt.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("library-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("auth: generate dummy hash: %v", err))
	}
	return h
})

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// normalizeUsername is applied on every path that stores or looks up a username.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// AuthService implements registration, login and admin promotion.
type AuthService struct {
	repo   ports.UserRepository
	tokens ports.TokenIssuer
	cost   int
	log    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost, log: log}
}

// Register creates an ordinary user. New users never hold elevated permissions.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("register: %w: username and password are required", domain.ErrInvalidInput)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("register: %w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("register: %w: %w", domain.ErrInvalidInput, err)
	}
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login verifies credentials and issues an access token. Unknown usernames and
// wrong passwords both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &ports.LoginResult{Token: token, User: user, IsAdmin: user.IsAdmin()}, nil
}

// AssignAdmin grants admin rights to the user. Calling it again is a no-op.
// The caller's authorization is enforced at the transport boundary.
func (s *AuthService) AssignAdmin(ctx context.Context, userID int64) (*domain.User, error) {
	if userID <= 0 {
		return nil, domain.ErrUserNotFound
	}
	user, err := s.repo.GrantPermissions(ctx, userID, domain.PermAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("admin assigned")
	return user, nil
}

// EnsureSuperAdmin creates the bootstrap superadmin account, or promotes it when it
// already exists. The stored password of an existing account is left untouched.
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, username, password string) (*domain.User, error) {
	username = normalizeUsername(username)
	user, err := s.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = s.Register(ctx, username, password)
		if err != nil && !errors.Is(err, domain.ErrUserExists) {
			return nil, fmt.Errorf("bootstrap superadmin: %w", err)
		}
		if errors.Is(err, domain.ErrUserExists) {
			if user, err = s.repo.FindByUsername(ctx, username); err != nil {
				return nil, fmt.Errorf("bootstrap superadmin: %w", err)
			}
		}
	case err != nil:
		return nil, fmt.Errorf("bootstrap superadmin: %w", err)
	}

	if user.IsSuperAdmin() {
		return user, nil
	}
	user, err = s.repo.GrantPermissions(ctx, user.ID, domain.PermSuperAdmin)
	if err != nil {
		return nil, fmt.Errorf("bootstrap superadmin: %w", err)
	}
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("superadmin ensured")
	return user, nil
}
