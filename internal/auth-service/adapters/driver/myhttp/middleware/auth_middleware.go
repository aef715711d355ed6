package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"employee-portal/internal/auth-service/core/domain/dto"
	"employee-portal/internal/auth-service/core/myerrors"
	"employee-portal/internal/auth-service/core/service"
	"employee-portal/internal/mylogger"
)

const CookieName = "token"

type ctxKey int

const claimsKey ctxKey = 0

// AuthMiddleware is the authorization gate: Authenticate validates the
// session token and attaches claims to the request context, Authorize
// checks the role of already-authenticated claims. Authorize composes
// after Authenticate and is never meant to run on its own.
type AuthMiddleware struct {
	sessions *service.SessionIssuer
	mylog    mylogger.Logger
}

func NewAuthMiddleware(sessions *service.SessionIssuer, mylog mylogger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		mylog:    mylog,
	}
}

// Authenticate extracts the session token from the cookie or the
// Authorization header. Missing token, bad signature, expiry and parse
// failures all collapse to a single 401.
func (am *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			unauthorized(w)
			return
		}

		claims, err := am.sessions.Verify(tokenString)
		if err != nil {
			am.mylog.Action("Authenticate").Warn("Rejected session token", "reason", err.Error())
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize passes the request through when the authenticated role is
// in requiredRoles. A request that never went through Authenticate is
// unauthorized, not forbidden.
func (am *AuthMiddleware) Authorize(requiredRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}

			for _, role := range requiredRoles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			forbidden(w)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (dto.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(dto.Claims)
	return claims, ok
}

// ContextWithClaims is used by handler tests to seed authenticated
// requests without running the full middleware chain.
func ContextWithClaims(ctx context.Context, claims dto.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func unauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, myerrors.ErrUnauthorized.Error())
}

func forbidden(w http.ResponseWriter) {
	writeJSONError(w, http.StatusForbidden, myerrors.ErrForbidden.Error())
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": msg,
		"code":  code,
	})
}
