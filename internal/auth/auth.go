// Package auth signs users in and out and resolves session tokens.
//
// The resolved Session is passed explicitly to every use-case; nothing reads
// the current user from a global.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

var (
	// ErrNoSession means the request carries no valid session; the client should sign in.
	ErrNoSession          = errors.New("no active session")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

// Session identifies the signed-in user for one request.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store is the part of the record store auth needs.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (store.UserRow, error)
	FindUserByEmail(ctx context.Context, email string) (store.UserRow, error)
	SaveSession(ctx context.Context, sess store.SessionRow, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (store.SessionRow, error)
	DeleteSession(ctx context.Context, sess store.SessionRow) error
}

type Service struct {
	store Store
	ttl   time.Duration
	cost  int
	now   func() time.Time
}

// NewService creates the auth service. A cost of 0 uses bcrypt.DefaultCost.
func NewService(st Store, ttl time.Duration, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		store: st,
		ttl:   ttl,
		cost:  cost,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SignUp registers a user and opens a session for it.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}
	u, err := s.store.CreateUser(ctx, email, string(hash))
	if errors.Is(err, store.ErrConflict) {
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, err
	}
	return s.open(ctx, u)
}

// SignIn checks the password and opens a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.open(ctx, u)
}

func (s *Service) open(ctx context.Context, u store.UserRow) (Session, error) {
	now := s.now()
	row := store.SessionRow{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		Email:     u.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.SaveSession(ctx, row, s.ttl); err != nil {
		return Session{}, err
	}
	return fromRow(row), nil
}

// SignOut ends the session. Signing out twice is not an error.
func (s *Service) SignOut(ctx context.Context, sess Session) error {
	return s.store.DeleteSession(ctx, store.SessionRow{Token: sess.Token, UserID: sess.UserID})
}

// Resolve returns the session behind token, or ErrNoSession.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	row, err := s.store.GetSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	if !row.ExpiresAt.IsZero() && s.now().After(row.ExpiresAt) {
		return Session{}, ErrNoSession
	}
	return fromRow(row), nil
}

// TTL is how long a fresh session lives.
func (s *Service) TTL() time.Duration { return s.ttl }

func fromRow(row store.SessionRow) Session {
	return Session{Token: row.Token, UserID: row.UserID, Email: row.Email, ExpiresAt: row.ExpiresAt}
}
