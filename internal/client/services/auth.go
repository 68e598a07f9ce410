// Package services contains application services for the gophboard client.
// This file defines the authentication service: register, login, logout and
// session restore on startup.
package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/logging"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: validate the form locally, then create the account on the server.
//   - Login: authenticate, persist the session and load the user's likes.
//   - Logout: forget the session and the likes. The local draft is kept.
//   - Restore: bring back a persisted session on startup.
//   - Close: release underlying client resources.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, creds models.Credentials, confirm string) error
	Login(ctx context.Context, email, password string) (models.Session, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (models.Session, bool)
	Close() error
}

// API is the part of the REST client used for authentication.
type API interface {
	Register(ctx context.Context, creds models.Credentials) error
	Login(ctx context.Context, email, password string) (models.Session, error)
	Close() error
}

type Sessions interface {
	Restore(ctx context.Context) (*models.Session, bool)
	Establish(ctx context.Context, sess models.Session) error
	Clear(ctx context.Context) error
}

type Likes interface {
	Load(ctx context.Context) (models.LikeSet, error)
	Clear()
}

type authService struct {
	api      API
	sessions Sessions
	likes    Likes
	log      logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client,
// session store and like cache.
func NewAuthService(api API, sessions Sessions, likes Likes, log logging.Logger) AuthService {
	return &authService{api: api, sessions: sessions, likes: likes, log: log}
}

// ValidateRegistration checks the registration form without touching the network.
func ValidateRegistration(creds models.Credentials, confirm string) error {
	email := strings.TrimSpace(creds.Email)
	if email == "" {
		return common.Invalid("email", "email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email || !strings.Contains(email, ".") {
		return common.Invalid("email", "invalid email address")
	}
	if strings.TrimSpace(creds.DisplayName) == "" {
		return common.Invalid("nickname", "nickname is required")
	}
	if len([]rune(creds.Password)) < MinPasswordLength {
		return common.Invalid("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if creds.Password != confirm {
		return common.Invalid("confirm", "passwords do not match")
	}
	return nil
}

// Register creates a new account. It does not sign in.
func (a *authService) Register(ctx context.Context, creds models.Credentials, confirm string) error {
	if err := ValidateRegistration(creds, confirm); err != nil {
		return err
	}
	creds.Email = strings.TrimSpace(creds.Email)
	creds.DisplayName = strings.TrimSpace(creds.DisplayName)

	if err := a.api.Register(ctx, creds); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	a.log.Info(ctx, "account registered", "email", creds.Email)
	return nil
}

// Login authenticates and establishes the session. A failure to load likes
// is logged and does not fail the login.
func (a *authService) Login(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Session{}, common.Invalid("credentials", "email and password are required")
	}

	sess, err := a.api.Login(ctx, email, password)
	if err != nil {
		return models.Session{}, fmt.Errorf("login error: %w", err)
	}
	if err := a.sessions.Establish(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("session saving error: %w", err)
	}
	a.loadLikes(ctx)
	return sess, nil
}

// Logout clears the session and the like cache.
func (a *authService) Logout(ctx context.Context) error {
	a.likes.Clear()
	if err := a.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.log.Info(ctx, "logged out")
	return nil
}

// Restore brings back the persisted session, if any, and loads its likes.
func (a *authService) Restore(ctx context.Context) (models.Session, bool) {
	sess, ok := a.sessions.Restore(ctx)
	if !ok {
		return models.Session{}, false
	}
	a.loadLikes(ctx)
	return *sess, true
}

func (a *authService) loadLikes(ctx context.Context) {
	if _, err := a.likes.Load(ctx); err != nil {
		a.log.Warn(ctx, "likes not loaded", "err", err)
	}
}

// Close releases resources held by the underlying client.
func (a *authService) Close() error {
	return a.api.Close()
}
