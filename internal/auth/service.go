// Package auth validates credentials, issues and prunes session tokens, and
// resolves the current identity from a token. Hashing is delegated to bcrypt;
// sessions live in the storage collaborator.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lumen/internal/core"
)

const (
	bcryptCost        = 12
	minPasswordLength = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmptyUsername      = errors.New("empty username")
	ErrSetupDone          = errors.New("setup already completed")
)

// Store is the slice of the storage layer the auth service needs.
type Store interface {
	HasUsers(ctx context.Context) (bool, error)
	InsertUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (int64, error)
	UserCredentials(ctx context.Context, username string) (int64, string, error)
	UserBySession(ctx context.Context, token string) (core.User, error)
	CreateSession(ctx context.Context, userID int64, token string, createdAt time.Time) error
	PruneSessions(ctx context.Context, userID int64, keep int) error
	DeleteSession(ctx context.Context, token string) error
	DeleteSessionsForUser(ctx context.Context, userID int64) error
	SessionCount(ctx context.Context, userID int64) (int64, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type Service struct {
	store       Store
	maxSessions int
}

func NewService(store Store, maxSessions int) *Service {
	return &Service{store: store, maxSessions: maxSessions}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func newSessionToken() string {
	return uuid.NewString()
}

// NeedsSetup reports whether no user exists yet and first-run setup applies.
func (s *Service) NeedsSetup(ctx context.Context) (bool, error) {
	has, err := s.store.HasUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("check users: %w", err)
	}
	return !has, nil
}

// Setup creates the initial user and opens its first session. It fails once
// any user exists.
func (s *Service) Setup(ctx context.Context, username, password, confirm string) (string, error) {
	needed, err := s.NeedsSetup(ctx)
	if err != nil {
		return "", err
	}
	if !needed {
		return "", ErrSetupDone
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrEmptyUsername
	}
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}

	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}
	userID, err := s.store.InsertUser(ctx, username, hash, time.Now())
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return s.openSession(ctx, userID)
}

// Login verifies the credentials and opens a new session, pruning the oldest
// sessions beyond the retention bound. Unknown username and wrong password
// are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	userID, hash, err := s.store.UserCredentials(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}
	if !verifyPassword(hash, password) {
		slog.WarnContext(ctx, "Login rejected", "username", username)
		return "", ErrInvalidCredentials
	}

	return s.openSession(ctx, userID)
}

func (s *Service) openSession(ctx context.Context, userID int64) (string, error) {
	token := newSessionToken()
	if err := s.store.CreateSession(ctx, userID, token, time.Now()); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if err := s.store.PruneSessions(ctx, userID, s.maxSessions); err != nil {
		return "", fmt.Errorf("prune sessions: %w", err)
	}
	return token, nil
}

// CurrentUser resolves the identity behind a session token. A blank or
// unknown token yields core.ErrNotFound.
func (s *Service) CurrentUser(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.ErrNotFound
	}
	return s.store.UserBySession(ctx, token)
}

// Logout discards a single session. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}

// LogoutAll discards every session of the user.
func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	return s.store.DeleteSessionsForUser(ctx, userID)
}

// SessionCount returns the number of active sessions of the user.
func (s *Service) SessionCount(ctx context.Context, userID int64) (int64, error) {
	return s.store.SessionCount(ctx, userID)
}

// ChangePassword replaces the user's password after verifying the current
// one. Existing sessions are kept.
func (s *Service) ChangePassword(ctx context.Context, user core.User, current, next, confirm string) error {
	if len(next) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	if !verifyPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return nil
}
