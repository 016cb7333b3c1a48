package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moodtrack/internal/models"
)

// AuthStore abstracts persistence operations required by AuthService.
type AuthStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	AddUser(ctx context.Context, u *models.User) error
	CountUsers(ctx context.Context) (int, error)
}

// TokenSigner issues a bearer token for an authenticated user.
type TokenSigner func(uid, email string, ttl time.Duration) (string, error)

// AuthService guards the single owner account of this instance.
type AuthService struct {
	store     AuthStore
	signToken TokenSigner
	now       func() time.Time
	idGen     func() string
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token  string
	UserID string
}

func NewAuthService(store AuthStore, signer TokenSigner, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:     store,
		signToken: signer,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     uuid.NewString,
		tokenTTL:  tokenTTL,
	}
}

// Register creates the owner account. Only one account exists; a second
// registration is rejected.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil, NewConflictError("instance already has an owner account")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{ID: s.idGen(), Email: email, PassHash: hash, CreatedAt: s.now()}
	if err := s.store.AddUser(ctx, u); err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	token, err := s.signToken(u.ID, u.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: u.ID}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	token, err := s.signToken(u.ID, u.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: u.ID}, nil
}
