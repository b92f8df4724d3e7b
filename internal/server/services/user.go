// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login and resolving bearer tokens back
// to users.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/dmitrijs2005/bookreviews/internal/server/auth"
	"github.com/dmitrijs2005/bookreviews/internal/server/config"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	MsgCredentialsInUse   = "Username or Email already in use"
	MsgInvalidCredentials = "Invalid email or password"
	MsgInvalidToken       = "Invalid or expired token"
	MsgUserNotFound       = "User not found"
)

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Signup registers a new user and returns a token for it. A username or
// email that is already taken yields common.ErrorAlreadyExists.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, common.NewError(common.ErrorValidation, "Username, email and password are required")
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("error checking user: %w", err)
	}
	if exists {
		return nil, common.NewError(common.ErrorAlreadyExists, MsgCredentialsInUse)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// the unique constraints still catch a concurrent signup that slipped
	// past the check above
	user, err := repo.Create(ctx, &models.User{Username: username, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewError(common.ErrorAlreadyExists, MsgCredentialsInUse)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.authResult(user)
}

// Login verifies the email/password pair. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, common.NewError(common.ErrorValidation, "Email and password are required")
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorUnauthorized, MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, common.NewError(common.ErrorUnauthorized, MsgInvalidCredentials)
	}

	return s.authResult(user)
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.UserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.NewError(common.ErrorUnauthorized, MsgInvalidToken)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.NewError(common.ErrorUnauthorized, MsgInvalidToken)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorUnauthorized, MsgUserNotFound)
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	token, err := auth.IssueToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &AuthResult{ID: user.ID, Username: user.Username, Email: user.Email, Token: token}, nil
}
