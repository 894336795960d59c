package service

import (
	"context"
	"testing"
	"time"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testIP = "203.0.113.7"

func newTestService(t *testing.T) (*AccountService, *fakeUserRepo, *fakeTokenRepo, *fakeAttemptRepo) {
	t.Helper()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	attempts := newFakeAttemptRepo()
	guard := NewBruteForceGuard(attempts, 5, 900*time.Second)
	// bcrypt.MinCost keeps the suite fast; cost handling is tested explicitly.
	svc := NewAccountService(users, tokens, guard, bcrypt.MinCost, time.Hour)
	return svc, users, tokens, attempts
}

func mustRegister(t *testing.T, svc *AccountService, username, email, password, fullName string) int64 {
	t.Helper()
	id, err := svc.Register(context.Background(), username, email, password, fullName)
	require.NoError(t, err)
	require.NotZero(t, id)
	return id
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	id := mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	u, err := svc.Login(ctx, "alice", "Passw0rd!", testIP)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, dom.RolePublic, u.Role)

	// Email works as identifier too.
	u, err = svc.Login(ctx, "alice@x.com", "Passw0rd!", testIP)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestLoginWrongPasswordCountsOneAttempt(t *testing.T) {
	svc, _, _, attempts := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	_, err := svc.Login(ctx, "alice", "wrong", testIP)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, attempts.rows[testIP].attempts)

	// Unknown identifier is indistinguishable and also counted.
	_, err = svc.Login(ctx, "nobody", "wrong", testIP)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 2, attempts.rows[testIP].attempts)
}

func TestLoginLockoutAfterMaxAttempts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, "alice", "wrong", testIP)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// 6th attempt fails RateLimited even with the correct password.
	_, err := svc.Login(ctx, "alice", "Passw0rd!", testIP)
	assert.ErrorIs(t, err, ErrRateLimited)

	// A different IP is unaffected.
	u, err := svc.Login(ctx, "alice", "Passw0rd!", "198.51.100.9")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestLoginLockoutExpiresAfterWindow(t *testing.T) {
	svc, _, _, attempts := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	base := time.Now()
	svc.guard.now = func() time.Time { return base }
	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, "alice", "wrong", testIP)
	}
	_, err := svc.Login(ctx, "alice", "Passw0rd!", testIP)
	assert.ErrorIs(t, err, ErrRateLimited)

	// Once the window elapses the stale rows are purged lazily on check.
	svc.guard.now = func() time.Time { return base.Add(901 * time.Second) }
	u, err := svc.Login(ctx, "alice", "Passw0rd!", testIP)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, attempts.rows)
}

func TestLoginSuccessClearsAttempts(t *testing.T) {
	svc, _, _, attempts := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	_, _ = svc.Login(ctx, "alice", "wrong", testIP)
	_, _ = svc.Login(ctx, "alice", "wrong", testIP)
	require.Equal(t, 2, attempts.rows[testIP].attempts)

	_, err := svc.Login(ctx, "alice", "Passw0rd!", testIP)
	require.NoError(t, err)
	_, exists := attempts.rows[testIP]
	assert.False(t, exists)
}

func TestLoginGuardFailsClosed(t *testing.T) {
	svc, _, _, attempts := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	attempts.failEverything = true
	_, err := svc.Login(ctx, "alice", "Passw0rd!", testIP)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestLoginRehashesStaleHash(t *testing.T) {
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	attempts := newFakeAttemptRepo()
	guard := NewBruteForceGuard(attempts, 5, 900*time.Second)
	svc := NewAccountService(users, tokens, guard, bcrypt.MinCost+1, time.Hour)
	ctx := context.Background()

	weak, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := users.Create(ctx, "alice", "alice@x.com", string(weak), "Alice A", dom.RolePublic)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "Passw0rd!", testIP)
	require.NoError(t, err)

	stored, err := users.GetActiveByID(ctx, u.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
	// The upgraded hash still verifies.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Passw0rd!")))
}

func TestLoginInactiveUser(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	ctx := context.Background()
	id := mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	u := users.users[id]
	u.IsActive = false
	users.users[id] = u

	_, err := svc.Login(ctx, "alice", "Passw0rd!", testIP)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		fullName string
	}{
		{"empty username", "", "a@x.com", "longenough", "A"},
		{"empty email", "a", "", "longenough", "A"},
		{"empty password", "a", "a@x.com", "", "A"},
		{"empty full name", "a", "a@x.com", "longenough", ""},
		{"bad email", "a", "not-an-email", "longenough", "A"},
		{"7 char password", "a", "a@x.com", "seven77", "A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password, tc.fullName)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, users.users, "no writes on validation failure")

	// Exactly 8 characters passes.
	id, err := svc.Register(ctx, "bob", "bob@x.com", "eight888", "Bob B")
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestRegisterConflict(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	_, err := svc.Register(ctx, "alice", "other@x.com", "Passw0rd!", "A")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Register(ctx, "other", "alice@x.com", "Passw0rd!", "A")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, users.users, 1, "no writes on conflict")
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	token, err := svc.GeneratePasswordResetToken(ctx, "alice@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(ctx, token, "NewPassw0rd!"))

	// Old password no longer works, new one does.
	_, err = svc.Login(ctx, "alice", "Passw0rd!", testIP)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	u, err := svc.Login(ctx, "alice", "NewPassw0rd!", "198.51.100.9")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	// Single use: the same token fails the second time.
	err = svc.ResetPassword(ctx, token, "AnotherPass1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, tokens, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.GeneratePasswordResetToken(ctx, "ghost@x.com")
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, tokens.tokens)
}

func TestPasswordResetTokenExpiry(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	base := time.Now()
	svc.now = func() time.Time { return base }
	token, err := svc.GeneratePasswordResetToken(ctx, "alice@x.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(time.Hour + time.Minute) }
	err = svc.ResetPassword(ctx, token, "NewPassw0rd!")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordResetSupersedesPriorToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	mustRegister(t, svc, "alice", "alice@x.com", "Passw0rd!", "Alice A")

	first, err := svc.GeneratePasswordResetToken(ctx, "alice@x.com")
	require.NoError(t, err)
	second, err := svc.GeneratePasswordResetToken(ctx, "alice@x.com")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	assert.ErrorIs(t, svc.ResetPassword(ctx, first, "NewPassw0rd!"), ErrTokenInvalid)
	assert.NoError(t, svc.ResetPassword(ctx, second, "NewPassw0rd!"))
}

func TestResetPasswordWeakPassword(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.ResetPassword(context.Background(), "whatever", "short")
	assert.ErrorIs(t, err, ErrValidation)
}

// The end-to-end scenario from the portal's acceptance checklist.
func TestFreshStoreScenario(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice", "alice@x.com", "Passw0rd!", "Alice A")
	require.NoError(t, err)
	require.NotZero(t, id)

	u, err := svc.Login(ctx, "alice", "Passw0rd!", testIP)
	require.NoError(t, err)
	assert.Equal(t, dom.RolePublic, u.Role)

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, "alice", "wrong", testIP)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = svc.Login(ctx, "alice", "Passw0rd!", testIP)
	assert.ErrorIs(t, err, ErrRateLimited)
}
