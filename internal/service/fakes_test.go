package service

import (
	"context"
	"sync"
	"time"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"
	"github.com/Trust-Mwendabai/CDIMS/internal/repo"

	"github.com/jackc/pgx/v5"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]dom.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]dom.User)}
}

func (r *fakeUserRepo) GetActiveByID(ctx context.Context, userID int64) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || !u.IsActive {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *fakeUserRepo) GetActiveByUsername(ctx context.Context, username string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username && u.IsActive {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetActiveByEmail(ctx context.Context, email string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *fakeUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, username, email, passwordHash, fullName string, role dom.Role) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := dom.User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.users[u.ID] = u
	r.nextID++
	return u, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	r.users[userID] = u
	return nil
}

func (r *fakeUserRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Email == email {
			u.PasswordHash = passwordHash
			r.users[id] = u
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	u.LastLogin = &now
	r.users[userID] = u
	return nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, role dom.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]repo.ResetToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]repo.ResetToken)}
}

func (r *fakeTokenRepo) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.Email == email {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *fakeTokenRepo) Insert(ctx context.Context, email, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = repo.ResetToken{Email: email, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (r *fakeTokenRepo) GetValid(ctx context.Context, token string, now time.Time) (repo.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || !t.ExpiresAt.After(now) {
		return repo.ResetToken{}, pgx.ErrNoRows
	}
	return t, nil
}

func (r *fakeTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

type attemptRow struct {
	attempts    int
	lastAttempt time.Time
}

// fakeAttemptRepo mirrors the Postgres attempt table; failEverything makes
// every call error, for fail-closed tests.
type fakeAttemptRepo struct {
	mu             sync.Mutex
	rows           map[string]attemptRow
	failEverything bool
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{rows: make(map[string]attemptRow)}
}

var errStoreDown = pgx.ErrTxClosed

func (r *fakeAttemptRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failEverything {
		return errStoreDown
	}
	for ip, row := range r.rows {
		if row.lastAttempt.Before(cutoff) {
			delete(r.rows, ip)
		}
	}
	return nil
}

func (r *fakeAttemptRepo) Attempts(ctx context.Context, ip string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failEverything {
		return 0, errStoreDown
	}
	return r.rows[ip].attempts, nil
}

func (r *fakeAttemptRepo) RecordFailure(ctx context.Context, ip string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failEverything {
		return errStoreDown
	}
	row := r.rows[ip]
	row.attempts++
	row.lastAttempt = at
	r.rows[ip] = row
	return nil
}

func (r *fakeAttemptRepo) Clear(ctx context.Context, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failEverything {
		return errStoreDown
	}
	delete(r.rows, ip)
	return nil
}

var _ repo.UserRepo = (*fakeUserRepo)(nil)
var _ repo.ResetTokenRepo = (*fakeTokenRepo)(nil)
var _ repo.LoginAttemptRepo = (*fakeAttemptRepo)(nil)
