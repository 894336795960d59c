package dto

// LoginRequest is the body for POST /auth/login. The CSRF token travels in
// the X-CSRF-Token header (or csrf_token form field for form posts).
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier" binding:"required"`
	Password   string `json:"password" form:"password" binding:"required"`
	Remember   bool   `json:"remember" form:"remember"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Username        string `json:"username" form:"username" binding:"required,min=1,max=50"`
	Email           string `json:"email" form:"email" binding:"required,email,max=100"`
	FullName        string `json:"full_name" form:"full_name" binding:"required,min=1,max=100"`
	Password        string `json:"password" form:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required"`
}

// ForgotPasswordRequest is the body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" form:"token" binding:"required"`
	NewPassword string `json:"new_password" form:"new_password" binding:"required,min=8"`
}

// UserResponse is returned when user info is needed (e.g. after login).
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// CSRFResponse carries the session's current CSRF token.
type CSRFResponse struct {
	Token string `json:"csrf_token"`
}
