package myerrors

import "errors"

// Closed set of domain errors. Handlers map these to HTTP statuses in
// one place; anything outside the set becomes a generic 500.
var (
	ErrValidation = errors.New("invalid input")

	ErrEmailRegistered       = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrTokenInvalidOrExpired = errors.New("token expired or invalid")
	ErrUserNotFound          = errors.New("user not found")
	ErrUploadFailed          = errors.New("failed to upload profile image")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Session token verification failures. Kept distinct internally,
	// collapsed to a single 401 at the HTTP boundary.
	ErrSessionSignature = errors.New("session token signature mismatch")
	ErrSessionExpired   = errors.New("session token expired")
	ErrSessionMalformed = errors.New("session token malformed")
)
