package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"
	"github.com/Trust-Mwendabai/CDIMS/internal/repo"
	"github.com/Trust-Mwendabai/CDIMS/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AccountService owns every mutation of users, reset tokens and login
// attempt counters.
type AccountService struct {
	users      repo.UserRepo
	tokens     repo.ResetTokenRepo
	guard      *BruteForceGuard
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// NewAccountService wires the account service. Non-positive cost falls back
// to bcrypt's default; non-positive resetTTL falls back to one hour.
func NewAccountService(users repo.UserRepo, tokens repo.ResetTokenRepo, guard *BruteForceGuard, bcryptCost int, resetTTL time.Duration) *AccountService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AccountService{
		users:      users,
		tokens:     tokens,
		guard:      guard,
		bcryptCost: bcryptCost,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// Login verifies the identifier (email or username) and password for the
// caller at ip. The brute-force guard is consulted before credentials are
// touched; a guard store failure locks the caller out and carries both
// ErrRateLimited and ErrStoreUnavailable.
func (s *AccountService) Login(ctx context.Context, identifier, password, ip string) (dom.User, error) {
	locked, err := s.guard.IsLocked(ctx, ip)
	if err != nil {
		return dom.User{}, errors.Join(ErrRateLimited, ErrStoreUnavailable, err)
	}
	if locked {
		return dom.User{}, ErrRateLimited
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return dom.User{}, s.failLogin(ctx, ip)
	}

	// Email or username: two explicit statements, never a dynamic column.
	var u dom.User
	if _, mailErr := mail.ParseAddress(identifier); mailErr == nil {
		u, err = s.users.GetActiveByEmail(ctx, identifier)
	} else {
		u, err = s.users.GetActiveByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, s.failLogin(ctx, ip)
		}
		return dom.User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return dom.User{}, s.failLogin(ctx, ip)
	}

	s.rehashIfStale(ctx, u, password)

	if err := s.guard.Reset(ctx, ip); err != nil {
		slog.Warn("clear login attempts", "ip", ip, "err", err)
	}
	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		slog.Warn("update last_login", "user_id", u.ID, "err", err)
	}
	return u, nil
}

// failLogin counts the attempt and always returns ErrInvalidCredentials.
func (s *AccountService) failLogin(ctx context.Context, ip string) error {
	if err := s.guard.RecordFailure(ctx, ip); err != nil {
		slog.Warn("record login attempt", "ip", ip, "err", err)
	}
	return ErrInvalidCredentials
}

// rehashIfStale upgrades a hash whose cost is below the configured one.
// Best effort: the login succeeds either way.
func (s *AccountService) rehashIfStale(ctx context.Context, u dom.User, password string) {
	cost, err := bcrypt.Cost([]byte(u.PasswordHash))
	if err != nil || cost >= s.bcryptCost {
		return
	}
	if err := s.UpdatePassword(ctx, u.ID, password); err != nil {
		slog.Warn("rehash password", "user_id", u.ID, "err", err)
	}
}

// Register creates a new account with role public and returns its ID.
func (s *AccountService) Register(ctx context.Context, username, email, password, fullName string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	if username == "" || email == "" || password == "" || fullName == "" {
		return 0, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return 0, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return 0, fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLength)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if exists {
		return 0, ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return 0, err
	}
	u, err := s.users.Create(ctx, username, email, string(hash), fullName, dom.RolePublic)
	if err != nil {
		// Two concurrent registrations can both pass the exists check; the
		// unique constraint decides the winner.
		if utils.IsPGUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return u.ID, nil
}

// GeneratePasswordResetToken issues a fresh one-hour token for the email,
// invalidating any prior one. An unknown email yields ("", nil) so callers
// can answer uniformly.
func (s *AccountService) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	token, err := randomToken(32)
	if err != nil {
		return "", err
	}
	if err := s.tokens.DeleteByEmail(ctx, email); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := s.tokens.Insert(ctx, email, token, s.now().Add(s.resetTTL)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, nil
}

// ResetPassword stores a new password for the token's account and consumes
// the token. Unknown, expired and already-used tokens are indistinguishable.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLength)
	}
	t, err := s.tokens.GetValid(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordByEmail(ctx, t.Email, string(hash)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := s.tokens.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// UpdatePassword unconditionally rehashes and stores the password.
func (s *AccountService) UpdatePassword(ctx context.Context, userID int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// ResolveUser loads an active user by ID. Satisfies auth.UserResolver for
// remember-me session revival.
func (s *AccountService) ResolveUser(ctx context.Context, userID int64) (dom.User, error) {
	return s.users.GetActiveByID(ctx, userID)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
