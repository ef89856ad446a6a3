// Package users owns user records: creation, credential checks, the bootstrap
// admin and listings. It is the only code that writes password hashes.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
	"github.com/hongminglow/payments-dashboard/internal/auth"
	"github.com/hongminglow/payments-dashboard/internal/models"
	"github.com/hongminglow/payments-dashboard/internal/storage"
)

// SeedAccount is the bootstrap admin created on first start.
type SeedAccount struct {
	Username string
	Password string
}

type Service struct {
	store  storage.UserStore
	hasher *auth.Hasher
	seed   SeedAccount
	log    *slog.Logger

	seedOnce sync.Once
	seedErr  error
}

func NewService(store storage.UserStore, hasher *auth.Hasher, seed SeedAccount, log *slog.Logger) *Service {
	return &Service{store: store, hasher: hasher, seed: seed, log: log}
}

// CreateUser hashes password and stores a new user. An empty role means viewer.
func (s *Service) CreateUser(ctx context.Context, username, password, role string) (models.User, error) {
	const op = "users.CreateUser"

	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return models.User{}, apperr.Validation("username and password are required")
	}
	r, err := models.ParseRole(strings.TrimSpace(role), models.RoleViewer)
	if err != nil {
		return models.User{}, apperr.Validation("role must be admin or viewer")
	}

	created, err := s.create(ctx, username, password, r)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s *Service) create(ctx context.Context, username, password string, role models.Role) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}
	created, err := s.store.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return models.User{}, err
	}
	return created.Public(), nil
}

// ValidateCredentials returns the user when password matches. Unknown users and
// wrong passwords produce the same error after the same bcrypt work.
func (s *Service) ValidateCredentials(ctx context.Context, username, password string) (models.User, error) {
	const op = "users.ValidateCredentials"

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.Burn(password)
			return models.User{}, apperr.ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	return user.Public(), nil
}

// SeedDefaultAdmin creates the bootstrap admin if that username is free. It does
// its work at most once per Service; later calls return the first result.
func (s *Service) SeedDefaultAdmin(ctx context.Context) error {
	s.seedOnce.Do(func() {
		s.seedErr = s.seedAdmin(ctx)
	})
	return s.seedErr
}

func (s *Service) seedAdmin(ctx context.Context) error {
	const op = "users.SeedDefaultAdmin"

	_, err := s.store.FindByUsername(ctx, s.seed.Username)
	if err == nil {
		s.log.Debug("bootstrap admin already present", slog.String("username", s.seed.Username))
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.create(ctx, s.seed.Username, s.seed.Password, models.RoleAdmin); err != nil {
		// another instance may have seeded between our lookup and insert
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("bootstrap admin created", slog.String("username", s.seed.Username))
	return nil
}

// FindAll lists every user without password hashes.
func (s *Service) FindAll(ctx context.Context) ([]models.User, error) {
	list, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("users.FindAll: %w", err)
	}
	out := make([]models.User, len(list))
	for i, u := range list {
		out[i] = u.Public()
	}
	return out, nil
}
