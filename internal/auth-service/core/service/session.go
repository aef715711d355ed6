package service

import (
	"errors"
	"time"

	"employee-portal/internal/auth-service/core/domain/dto"
	"employee-portal/internal/auth-service/core/myerrors"

	"github.com/golang-jwt/jwt/v5"
)

const SessionTTL = time.Hour

// SessionIssuer mints and verifies the signed session tokens held by
// clients. Sessions are stateless: nothing is stored server-side, and
// revocation happens only through expiry.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionIssuer(secret string) *SessionIssuer {
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    SessionTTL,
	}
}

func (si *SessionIssuer) Issue(userID, email, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, dto.Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(si.ttl)),
		},
	})

	return token.SignedString(si.secret)
}

// Verify parses and validates a session token. Signature, expiry and
// parse failures are surfaced as distinct errors.
func (si *SessionIssuer) Verify(tokenString string) (dto.Claims, error) {
	claims := &dto.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return si.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return dto.Claims{}, myerrors.ErrSessionExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return dto.Claims{}, myerrors.ErrSessionSignature
		default:
			return dto.Claims{}, myerrors.ErrSessionMalformed
		}
	}

	if !token.Valid {
		return dto.Claims{}, myerrors.ErrSessionMalformed
	}

	return *claims, nil
}
