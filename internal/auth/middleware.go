package auth

import (
	"context"
	"net/http"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName  = "session_id"
	RememberCookieName = "remember_token"

	contextKeySession = "session"
	csrfHeader        = "X-CSRF-Token"
	csrfFormField     = "csrf_token"
)

// UserResolver loads an active user by ID, for remember-me session revival.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID int64) (dom.User, error)
}

// CookieOptions control how session/remember cookies are written.
type CookieOptions struct {
	Secure      bool
	SessionTTL  int // seconds
	RememberTTL int // seconds
}

// SetSessionCookie writes the HttpOnly, SameSite=Strict session cookie.
func SetSessionCookie(c *gin.Context, id string, opts CookieOptions) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, id, opts.SessionTTL, "/", "", opts.Secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", opts.Secure, true)
}

// SetRememberCookie writes the long-lived HttpOnly, SameSite=Strict remember cookie.
func SetRememberCookie(c *gin.Context, token string, opts CookieOptions) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RememberCookieName, token, opts.RememberTTL, "/", "", opts.Secure, true)
}

// ClearRememberCookie expires the remember cookie.
func ClearRememberCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RememberCookieName, "", -1, "/", "", opts.Secure, true)
}

// SessionFromContext returns the session set by RequireSession.
func SessionFromContext(c *gin.Context) (Session, bool) {
	v, ok := c.Get(contextKeySession)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	return sess, ok
}

// RequireSession checks for a valid authenticated session cookie and sets the
// session in context. A missing session is revived from a valid remember
// cookie when one is present; otherwise the request is rejected with 401.
func RequireSession(sessions Store, users UserResolver, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if id, err := c.Cookie(SessionCookieName); err == nil && id != "" {
			sess, ok, err := sessions.Get(ctx, id)
			if err == nil && ok && sess.Authenticated() {
				c.Set(contextKeySession, sess)
				c.Next()
				return
			}
		}

		if users != nil {
			if token, err := c.Cookie(RememberCookieName); err == nil && token != "" {
				if sess, ok := reviveFromRemember(c, sessions, users, token, opts); ok {
					c.Set(contextKeySession, sess)
					c.Next()
					return
				}
				ClearRememberCookie(c, opts)
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
	}
}

// reviveFromRemember trades a valid remember token for a fresh session and a
// rotated remember token.
func reviveFromRemember(c *gin.Context, sessions Store, users UserResolver, token string, opts CookieOptions) (Session, bool) {
	ctx := c.Request.Context()
	userID, ok, err := sessions.ConsumeRemember(ctx, token)
	if err != nil || !ok {
		return Session{}, false
	}
	u, err := users.ResolveUser(ctx, userID)
	if err != nil {
		return Session{}, false
	}
	id, err := sessions.Establish(ctx, "", u.ID, u.Username, u.Role)
	if err != nil {
		return Session{}, false
	}
	rotated, err := sessions.IssueRemember(ctx, u.ID)
	if err == nil {
		SetRememberCookie(c, rotated, opts)
	}
	SetSessionCookie(c, id, opts)
	return Session{ID: id, UserID: u.ID, Username: u.Username, Role: u.Role}, true
}

// RequireRole rejects sessions whose role is not in the given set with 403.
// Must run after RequireSession.
func RequireRole(roles ...dom.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		if !ok || !sess.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// ValidateCSRF rejects state-changing requests whose CSRF token does not
// match the session's. The token is read from the X-CSRF-Token header or the
// csrf_token form field. Failures are uniform: a generic 403.
func ValidateCSRF(sessions Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		candidate := c.GetHeader(csrfHeader)
		if candidate == "" {
			candidate = c.PostForm(csrfFormField)
		}
		id, _ := c.Cookie(SessionCookieName)

		ok, err := sessions.ValidateCSRF(c.Request.Context(), id, candidate)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid request"})
			return
		}
		c.Next()
	}
}
