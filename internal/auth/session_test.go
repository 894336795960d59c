package auth

import (
	"context"
	"testing"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstablishRegeneratesSessionID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	anonID, err := store.Anonymous(ctx)
	require.NoError(t, err)

	id, err := store.Establish(ctx, anonID, 7, "alice", dom.RoleAnalyst)
	require.NoError(t, err)
	assert.NotEqual(t, anonID, id, "login must rotate the session ID")

	// The pre-login session is gone.
	_, ok, err := store.Get(ctx, anonID)
	require.NoError(t, err)
	assert.False(t, ok)

	sess, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, dom.RoleAnalyst, sess.Role)
}

func TestAnonymousSessionIsNotAuthenticated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Anonymous(ctx)
	require.NoError(t, err)
	sess, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, sess.Authenticated())
	assert.False(t, sess.HasRole(dom.RolePublic))
}

func TestDeleteWipesSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Establish(ctx, "", 7, "alice", dom.RolePublic)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSRFIssueIsMemoized(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, err := store.Anonymous(ctx)
	require.NoError(t, err)

	first, err := store.IssueCSRF(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	second, err := store.IssueCSRF(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCSRFValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, err := store.Anonymous(ctx)
	require.NoError(t, err)
	token, err := store.IssueCSRF(ctx, id)
	require.NoError(t, err)

	ok, err := store.ValidateCSRF(ctx, id, "")
	require.NoError(t, err)
	assert.False(t, ok, "empty candidate fails closed")

	ok, err = store.ValidateCSRF(ctx, id, "not-the-token")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.ValidateCSRF(ctx, id, token)
	require.NoError(t, err)
	assert.True(t, ok)

	// Rotate on use: the same token is spent.
	ok, err = store.ValidateCSRF(ctx, id, token)
	require.NoError(t, err)
	assert.False(t, ok)

	// A fresh issue produces a new token that validates.
	next, err := store.IssueCSRF(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, token, next)
	ok, err = store.ValidateCSRF(ctx, id, next)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCSRFUnknownSessionFails(t *testing.T) {
	store := NewMemoryStore()
	ok, err := store.ValidateCSRF(context.Background(), "missing", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSRFIssueOnDeadSessionDoesNotReviveIt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Anonymous(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	token, err := store.IssueCSRF(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, token)

	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRememberTokenSingleUse(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	token, err := store.IssueRemember(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, ok, err := store.ConsumeRemember(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), userID)

	_, ok, err = store.ConsumeRemember(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok, "remember tokens are single use")
}

func TestRememberUnknownToken(t *testing.T) {
	store := NewMemoryStore()
	_, ok, err := store.ConsumeRemember(context.Background(), "bogus")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionHasRole(t *testing.T) {
	sess := Session{ID: "x", UserID: 1, Username: "root", Role: dom.RoleAdmin}
	assert.True(t, sess.HasRole(dom.RoleAdmin))
	assert.True(t, sess.HasRole(dom.RoleAdmin, dom.RoleAnalyst))
	assert.False(t, sess.HasRole(dom.RoleAnalyst, dom.RoleStakeholder))
}
