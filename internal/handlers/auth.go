package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Trust-Mwendabai/CDIMS/internal/auth"
	"github.com/Trust-Mwendabai/CDIMS/internal/dto"
	"github.com/Trust-Mwendabai/CDIMS/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles login, register, logout and the password-reset flow.
type AuthHandler struct {
	sessions auth.Store
	accounts *service.AccountService
	cookies  auth.CookieOptions
	appEnv   string
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(sessions auth.Store, accounts *service.AccountService, cookies auth.CookieOptions, appEnv string) *AuthHandler {
	return &AuthHandler{sessions: sessions, accounts: accounts, cookies: cookies, appEnv: appEnv}
}

// CSRF godoc
// @Summary      Issue a CSRF token
// @Description  Ensures a session exists and returns its CSRF token for the next state-changing request.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.CSRFResponse
// @Failure      500  {object}  map[string]string
// @Router       /auth/csrf [get]
func (h *AuthHandler) CSRF(c *gin.Context) {
	ctx := c.Request.Context()

	id, _ := c.Cookie(auth.SessionCookieName)
	if id != "" {
		if _, ok, err := h.sessions.Get(ctx, id); err != nil || !ok {
			id = ""
		}
	}
	if id == "" {
		newID, err := h.sessions.Anonymous(ctx)
		if err != nil {
			slog.Error("create anonymous session", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		id = newID
		auth.SetSessionCookie(c, id, h.cookies)
	}

	token, err := h.sessions.IssueCSRF(ctx, id)
	if err != nil || token == "" {
		slog.Error("issue csrf token", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, dto.CSRFResponse{Token: token})
}

// Login godoc
// @Summary      Login
// @Description  Verifies username/email and password, establishes a session and optionally a remember-me cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.UserResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier and password are required"})
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), req.Identifier, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			if errors.Is(err, service.ErrStoreUnavailable) {
				slog.Error("brute-force guard unavailable", "err", err)
			}
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many failed login attempts, try again later"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username/email or password"})
		default:
			slog.Error("login", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	oldID, _ := c.Cookie(auth.SessionCookieName)
	sessionID, err := h.sessions.Establish(c.Request.Context(), oldID, user.ID, user.Username, user.Role)
	if err != nil {
		slog.Error("establish session", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	auth.SetSessionCookie(c, sessionID, h.cookies)

	if req.Remember {
		token, err := h.sessions.IssueRemember(c.Request.Context(), user.ID)
		if err != nil {
			slog.Warn("issue remember token", "user_id", user.ID, "err", err)
		} else {
			auth.SetRememberCookie(c, token, h.cookies)
		}
	}

	c.JSON(http.StatusOK, dto.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Role:     string(user.Role),
	})
}

// Register godoc
// @Summary      Register
// @Description  Creates a new account with role public. Does not log the new user in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Registration fields"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required; password must be at least 8 characters"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	id, err := h.accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
		default:
			slog.Error("register", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.UserResponse{
		ID:       id,
		Username: req.Username,
		FullName: req.FullName,
		Role:     "public",
	})
}

// Logout godoc
// @Summary      Logout
// @Description  Wipes the session and expires both cookies.
// @Tags         auth
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if id, err := c.Cookie(auth.SessionCookieName); err == nil && id != "" {
		if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
			slog.Warn("delete session", "err", err)
		}
	}
	auth.ClearSessionCookie(c, h.cookies)
	auth.ClearRememberCookie(c, h.cookies)
	c.Status(http.StatusNoContent)
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Description  Issues a one-hour reset token. The response never reveals whether the email exists.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ForgotPasswordRequest  true  "Account email"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	token, err := h.accounts.GeneratePasswordResetToken(c.Request.Context(), req.Email)
	if err != nil {
		slog.Error("generate reset token", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := gin.H{"message": "if that email is registered, a reset link has been issued"}
	// Mail delivery is not wired yet; surface the token in dev only.
	if token != "" && h.appEnv == "dev" {
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

// ResetPassword godoc
// @Summary      Reset password with a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and a password of at least 8 characters are required"})
		return
	}

	err := h.accounts.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrTokenInvalid):
			c.JSON(http.StatusGone, gin.H{"error": "reset token is invalid or expired"})
		default:
			slog.Error("reset password", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// Me godoc
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := auth.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	c.JSON(http.StatusOK, dto.UserResponse{
		ID:       sess.UserID,
		Username: sess.Username,
		Role:     string(sess.Role),
	})
}
