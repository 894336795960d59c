package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "session:"
	rememberKeyPrefix = "remember:"
	sessionTTL        = 24 * time.Hour
)

// Session is the identity carried by one session cookie. A zero UserID means
// an anonymous (pre-login) session, which exists only to hold a CSRF token.
type Session struct {
	ID       string
	UserID   int64
	Username string
	Role     dom.Role
}

// Authenticated reports whether the session carries a logged-in identity.
func (s Session) Authenticated() bool { return s.UserID != 0 }

// HasRole reports whether the session's role is one of the given roles.
func (s Session) HasRole(roles ...dom.Role) bool {
	return s.Authenticated() && s.Role.In(roles...)
}

// Store manages sessions, their CSRF tokens and remember-me tokens.
type Store interface {
	// Anonymous creates an identity-less session and returns its ID.
	Anonymous(ctx context.Context) (string, error)
	// Get returns the session; ok is false when the ID is unknown or expired.
	Get(ctx context.Context, id string) (Session, bool, error)
	// Establish writes the identity under a freshly generated session ID and
	// deletes oldID (if any), defeating session fixation. Returns the new ID.
	Establish(ctx context.Context, oldID string, userID int64, username string, role dom.Role) (string, error)
	// Delete wipes the session.
	Delete(ctx context.Context, id string) error

	// IssueCSRF returns the session's CSRF token, generating one when none is
	// held. Idempotent until the token is consumed by a valid submission.
	IssueCSRF(ctx context.Context, id string) (string, error)
	// ValidateCSRF compares candidate against the stored token in constant
	// time; empty on either side fails. A successful match consumes the token.
	ValidateCSRF(ctx context.Context, id, candidate string) (bool, error)

	// IssueRemember stores a long-lived remember token for the user and
	// returns it. Only a digest of the token is stored server-side.
	IssueRemember(ctx context.Context, userID int64) (string, error)
	// ConsumeRemember resolves a remember token to its user and invalidates
	// it; ok is false for unknown or expired tokens.
	ConsumeRemember(ctx context.Context, token string) (int64, bool, error)
}

// RedisStore keeps each session in a Redis hash with a TTL.
type RedisStore struct {
	rdb         *redis.Client
	ttl         time.Duration
	rememberTTL time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a Redis-backed session store.
func NewRedisStore(rdb *redis.Client, ttl, rememberTTL time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	if rememberTTL <= 0 {
		rememberTTL = 30 * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl, rememberTTL: rememberTTL}
}

func (s *RedisStore) Anonymous(ctx context.Context) (string, error) {
	id, err := newToken(16)
	if err != nil {
		return "", err
	}
	key := sessionKeyPrefix + id
	if err := s.rdb.HSet(ctx, key, "user_id", 0).Err(); err != nil {
		return "", err
	}
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, bool, error) {
	if id == "" {
		return Session{}, false, nil
	}
	data, err := s.rdb.HGetAll(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return Session{}, false, err
	}
	if len(data) == 0 {
		return Session{}, false, nil
	}
	sess := Session{ID: id}
	if raw, ok := data["user_id"]; ok {
		sess.UserID, _ = strconv.ParseInt(raw, 10, 64)
	}
	sess.Username = data["username"]
	sess.Role = dom.Role(data["role"])
	return sess, true, nil
}

func (s *RedisStore) Establish(ctx context.Context, oldID string, userID int64, username string, role dom.Role) (string, error) {
	id, err := newToken(16)
	if err != nil {
		return "", err
	}
	key := sessionKeyPrefix + id
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "user_id", userID, "username", username, "role", string(role))
		p.Expire(ctx, key, s.ttl)
		if oldID != "" {
			p.Del(ctx, sessionKeyPrefix+oldID)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

func (s *RedisStore) IssueCSRF(ctx context.Context, id string) (string, error) {
	key := sessionKeyPrefix + id
	existing, err := s.rdb.HGet(ctx, key, "csrf").Result()
	if err == nil && existing != "" {
		return existing, nil
	}
	if err != nil && err != redis.Nil {
		return "", err
	}
	// HSet on a missing key would resurrect the session as an orphan hash
	// with no TTL, so only live sessions get a token.
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	token, err := newToken(32)
	if err != nil {
		return "", err
	}
	if err := s.rdb.HSet(ctx, key, "csrf", token).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) ValidateCSRF(ctx context.Context, id, candidate string) (bool, error) {
	if id == "" || candidate == "" {
		return false, nil
	}
	key := sessionKeyPrefix + id
	stored, err := s.rdb.HGet(ctx, key, "csrf").Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !tokensEqual(stored, candidate) {
		return false, nil
	}
	// Rotate on use: the next form render gets a fresh token.
	if err := s.rdb.HDel(ctx, key, "csrf").Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) IssueRemember(ctx context.Context, userID int64) (string, error) {
	token, err := newToken(32)
	if err != nil {
		return "", err
	}
	key := rememberKeyPrefix + digest(token)
	if err := s.rdb.Set(ctx, key, userID, s.rememberTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) ConsumeRemember(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	key := rememberKeyPrefix + digest(token)
	raw, err := s.rdb.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return userID, true, nil
}

func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
