// Package services contains server-side business logic. This file implements
// UserService, which handles registration and login: uniqueness checks,
// password hashing/verification and bearer-token issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ChutneyCheeseball/blabber/internal/common"
	"github.com/ChutneyCheeseball/blabber/internal/server/auth"
	"github.com/ChutneyCheeseball/blabber/internal/server/config"
	"github.com/ChutneyCheeseball/blabber/internal/server/hashing"
	"github.com/ChutneyCheeseball/blabber/internal/server/models"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UserService provides authentication-related operations:
// - Register: create identities
// - Login: verify credentials and mint a token
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	hasher                *hashing.Hasher
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories, the password
// hasher and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h *hashing.Hasher, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		hasher:                h,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates a new identity. The username is checked first: a taken
// username yields ErrUsernameTaken even when the email is also taken. Then
// the email is checked, then the password is hashed and the row inserted.
// Nothing is written on any failure path.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByUsername(ctx, username)
	if err == nil {
		return nil, common.ErrUsernameTaken
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking username: %w", err)
	}

	_, err = repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrEmailTaken
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking email: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{ID: uuid.NewString(), Username: username, Email: email, PasswordHash: hash}
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login locates the identity by username or email (exactly one is supplied;
// the input boundary enforces exclusivity), verifies the password and mints
// a signed token carrying {id, username, email}. A missing identity yields
// common.ErrorNotFound, a wrong password common.ErrInvalidCredentials.
// Login never writes.
func (s *UserService) Login(ctx context.Context, username, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	var user *models.User
	var err error
	if username != "" {
		user, err = repo.GetByUsername(ctx, username)
	} else {
		user, err = repo.GetByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("error looking up user: %w", err)
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return "", common.ErrInvalidCredentials
		}
		return "", fmt.Errorf("error verifying password: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.Email, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return token, nil
}
