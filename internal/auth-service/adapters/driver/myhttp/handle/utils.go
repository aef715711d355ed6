package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"employee-portal/internal/auth-service/core/myerrors"
)

const WaitTime = 10

// jsonResponse writes the given data as a JSON-encoded HTTP response.
func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// jsonError writes an error response as JSON with the specified HTTP
// status code. Internal errors are masked so no driver or stack detail
// leaks to the client.
func jsonError(w http.ResponseWriter, code int, err error) {
	msg := "internal server error"
	if code != http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": msg,
		"code":  code,
	})
}

// statusOf is the single mapping from domain errors to HTTP statuses.
// Anything outside the closed set is an internal error.
func statusOf(err error) int {
	switch {
	case errors.Is(err, myerrors.ErrValidation),
		errors.Is(err, myerrors.ErrTokenInvalidOrExpired),
		errors.Is(err, myerrors.ErrUploadFailed):
		return http.StatusBadRequest
	case errors.Is(err, myerrors.ErrEmailRegistered):
		return http.StatusConflict
	case errors.Is(err, myerrors.ErrInvalidCredentials),
		errors.Is(err, myerrors.ErrUnauthorized),
		errors.Is(err, myerrors.ErrSessionSignature),
		errors.Is(err, myerrors.ErrSessionExpired),
		errors.Is(err, myerrors.ErrSessionMalformed):
		return http.StatusUnauthorized
	case errors.Is(err, myerrors.ErrEmailNotVerified),
		errors.Is(err, myerrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, myerrors.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
