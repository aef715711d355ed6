package driven

import (
	"context"

	"employee-portal/internal/auth-service/core/domain/models"
)

type IUserRepo interface {
	// CreateUnverified inserts a new unverified user, or refreshes an
	// existing unverified row with the same email (new password hash,
	// name and verification token). Returns myerrors.ErrEmailRegistered
	// when a verified user already owns the email.
	CreateUnverified(ctx context.Context, user models.User) (string, error)

	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)

	// MarkEmailVerified flips is_email_verified and clears the token
	// pair in a single conditional update. Zero rows affected means the
	// token is unknown, expired or already used:
	// myerrors.ErrTokenInvalidOrExpired.
	MarkEmailVerified(ctx context.Context, tokenHash string) (string, error)

	UpdateProfile(ctx context.Context, user models.User) error
}
