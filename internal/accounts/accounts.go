// Package accounts registers users and verifies their credentials.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/models"
	"github.com/hongminglow/mosque-donations/internal/storage"
)

var (
	// ErrDuplicateEmail means another account already uses the email.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrUserNotFound means no account has the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials means the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const minPasswordLength = 6

// RegisterInput is the data required to create an account.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Role     string
	MosqueID int64
}

// Service owns account creation and credential checks.
type Service struct {
	users   storage.UserStore
	mosques storage.ReferenceStore
	tokens  *auth.TokenManager
}

// NewService constructs the account service.
func NewService(users storage.UserStore, mosques storage.ReferenceStore, tokens *auth.TokenManager) *Service {
	return &Service{users: users, mosques: mosques, tokens: tokens}
}

// Register validates in, hashes the password and stores the user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	email := normalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return models.User{}, models.Invalid("full_name", "full name is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return models.User{}, models.Invalid("email", "a valid email is required")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength || !utf8.ValidString(in.Password) {
		return models.User{}, models.Invalid("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	role, err := models.ParseRole(strings.TrimSpace(in.Role))
	if err != nil {
		return models.User{}, err
	}
	if in.MosqueID <= 0 {
		return models.User{}, models.Invalid("mosque_id", "mosque is required")
	}
	exists, err := s.mosques.MosqueExists(ctx, in.MosqueID)
	if err != nil {
		return models.User{}, fmt.Errorf("check mosque: %w", err)
	}
	if !exists {
		return models.User{}, models.Invalid("mosque_id", "mosque does not exist")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.CreateUser(ctx, models.User{
		FullName:     fullName,
		Email:        email,
		Role:         role,
		MosqueID:     in.MosqueID,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return models.User{}, ErrDuplicateEmail
	case errors.Is(err, storage.ErrInvalidReference):
		return models.User{}, models.Invalid("mosque_id", "mosque does not exist")
	case err != nil:
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Verify checks an email and password pair.
func (s *Service) Verify(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	if !auth.ComparePassword(user.PasswordHash, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := s.Verify(ctx, email, password)
	if err != nil {
		return "", models.User{}, err
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", models.User{}, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// Me returns the account for an authenticated user id.
func (s *Service) Me(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
