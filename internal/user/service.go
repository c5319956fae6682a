package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/avdeevdm/auth-service/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// Repo is the persistence surface the service needs; *Repository satisfies it.
type Repo interface {
	Create(ctx context.Context, u *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// timingHash is a valid bcrypt hash compared against when no user matches,
// so that "unknown identifier" and "wrong password" take the same time.
var timingHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Service handles registration and credential verification.
type Service struct {
	repo Repo
	log  logging.Logger
}

func NewService(repo Repo, log logging.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Register creates a user with a bcrypt-hashed password. A username or email
// collision surfaces as ErrEmailTaken.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u, err := s.repo.Create(ctx, &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.log.Info(ctx, "new user registered", "username", u.Username)
	return u, nil
}

// Authenticate verifies identifier+password and returns the matching user.
// The identifier is resolved in a fixed order: email first, then username.
// Any failure is ErrInvalidCredentials; the caller cannot distinguish an
// unknown identifier from a wrong password, and a bcrypt comparison runs
// either way to keep the timing uniform.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	u, err := s.resolve(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(timingHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("resolving identifier: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Lookup fetches a user by email, the subject carried in access tokens.
func (s *Service) Lookup(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *Service) resolve(ctx context.Context, identifier string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, identifier)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.repo.FindByUsername(ctx, identifier)
}
