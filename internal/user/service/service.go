// Package service provides the implementation of account business logic.
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	usererrors "github.com/nhupane/gopasal/internal/user/errors"
	"github.com/nhupane/gopasal/internal/user/store"
	"github.com/nhupane/gopasal/pkg/messaging"
	"github.com/nhupane/gopasal/pkg/messaging/events"
	"github.com/nhupane/gopasal/pkg/token"
)

const (
	otpTTL    = 10 * time.Minute
	otpDigits = 6
)

// UserService defines the methods for account registration and authentication.
type UserService interface {
	// Register creates an unverified account and sends a one-time code.
	Register(ctx context.Context, user RegisterDto) (*UserDto, error)

	// VerifyOTP checks the one-time code, marks the account verified and
	// returns a session token.
	VerifyOTP(ctx context.Context, email, code string) (*AuthDto, error)

	// ResendOTP issues a fresh one-time code for an unverified account.
	ResendOTP(ctx context.Context, email string) error

	// Login authenticates a verified account and returns a session token.
	Login(ctx context.Context, email, password string) (*AuthDto, error)

	// FindByID returns the account profile.
	FindByID(ctx context.Context, id uuid.UUID) (*UserDto, error)
}

// Service implements UserService. One-time codes live in Redis under a
// per-user key with a bounded TTL.
type Service struct {
	userStore store.UserStore
	otps      *redis.Client
	issuer    *token.Issuer
	publisher messaging.Publisher
}

// NewService creates a new account Service.
func NewService(userStore store.UserStore, otps *redis.Client, issuer *token.Issuer, publisher messaging.Publisher) *Service {
	return &Service{
		userStore: userStore,
		otps:      otps,
		issuer:    issuer,
		publisher: publisher,
	}
}

// UserDto represents the data transfer object for an account profile.
type UserDto struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Role     string    `json:"role"`
	Verified bool      `json:"verified"`
}

// RegisterDto represents the data transfer object for creating an account.
type RegisterDto struct {
	Username string `json:"username" validate:"required,min=2"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"`
}

// LoginDto represents the data transfer object for a login request.
type LoginDto struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyDto represents the data transfer object for an OTP verification request.
type VerifyDto struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required,len=6"`
}

// ResendDto represents the data transfer object for an OTP resend request.
type ResendDto struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthDto carries a session token with its account profile.
type AuthDto struct {
	Token string  `json:"token"`
	User  UserDto `json:"user"`
}

func (s *Service) Register(ctx context.Context, user RegisterDto) (*UserDto, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.userStore.Create(ctx, store.CreateUserParams{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: string(hash),
		Phone:        user.Phone,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sendOTP(ctx, created); err != nil {
		// The account exists; the code can be re-requested.
		slog.ErrorContext(ctx, "Failed to send verification code", "user_id", created.ID, "error", err)
	}

	return toDto(created), nil
}

func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*AuthDto, error) {
	user, err := s.userStore.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	stored, err := s.otps.GetDel(ctx, otpKey(user.ID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usererrors.ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to read verification code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, usererrors.ErrInvalidOTP
	}

	verified, err := s.userStore.MarkVerified(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return s.auth(verified)
}

func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.userStore.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	return s.sendOTP(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthDto, error) {
	user, err := s.userStore.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, usererrors.ErrUserNotFound) {
			return nil, usererrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, usererrors.ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, usererrors.ErrNotVerified
	}

	return s.auth(user)
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*UserDto, error) {
	user, err := s.userStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDto(user), nil
}

func (s *Service) auth(user *store.User) (*AuthDto, error) {
	tok, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthDto{Token: tok, User: *toDto(user)}, nil
}

func (s *Service) sendOTP(ctx context.Context, user *store.User) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.otps.Set(ctx, otpKey(user.ID), code, otpTTL).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	event := events.UserRegisteredEvent{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		OTP:      code,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish verification event: %w", err)
	}
	return nil
}

func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n), nil
}

func otpKey(userID uuid.UUID) string {
	return fmt.Sprintf("otp:%s", userID)
}

// toDto converts a store.User to a UserDto. The password hash stays behind.
func toDto(u *store.User) *UserDto {
	return &UserDto{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		Verified: u.Verified,
	}
}
