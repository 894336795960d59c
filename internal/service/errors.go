package service

import "errors"

var (
	// ErrInvalidCredentials covers both unknown identifier and wrong password;
	// callers never learn which, to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	// ErrRateLimited means the caller's IP tripped the brute-force guard.
	ErrRateLimited = errors.New("too many failed login attempts")
	// ErrValidation covers malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict means the username or email is already taken.
	ErrConflict = errors.New("username or email already exists")
	// ErrTokenInvalid covers unknown, consumed and expired reset tokens.
	ErrTokenInvalid = errors.New("reset token is invalid or expired")
	// ErrStoreUnavailable means the credential store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)
