package db

import (
	"context"
	"errors"
	"fmt"

	"employee-portal/internal/auth-service/core/domain/models"
	"employee-portal/internal/auth-service/core/myerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres unique_violation, raised by the email constraint on updates.
const uniqueViolation = "23505"

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

// CreateUnverified inserts the user, or refreshes an existing row with
// the same email as long as that row is still unverified. The guarded
// ON CONFLICT update makes the registration policy race-free: when a
// verified user owns the email the update matches nothing, no row comes
// back and the caller sees ErrEmailRegistered.
func (ur *UserRepo) CreateUnverified(ctx context.Context, user models.User) (string, error) {
	q := `
		INSERT INTO users (user_id, user_name, email, password_hash, role, is_email_verified, token_hash, token_expiry)
		VALUES ($1, $2, $3, $4, $5, false, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			user_name = EXCLUDED.user_name,
			password_hash = EXCLUDED.password_hash,
			token_hash = EXCLUDED.token_hash,
			token_expiry = EXCLUDED.token_expiry,
			updated_at = now()
		WHERE NOT users.is_email_verified
		RETURNING user_id
	`

	id := ""
	row := ur.db.pool.QueryRow(ctx, q,
		user.UserID,
		user.UserName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.TokenHash,
		user.TokenExpiry,
	)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", myerrors.ErrEmailRegistered
		}
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	return id, nil
}

func (ur *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return ur.getOne(ctx, "u.email = $1", email)
}

func (ur *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return ur.getOne(ctx, "u.user_id = $1", id)
}

func (ur *UserRepo) getOne(ctx context.Context, where string, arg any) (models.User, error) {
	q := fmt.Sprintf(`
		SELECT
			u.user_id,
			u.created_at,
			u.updated_at,
			u.user_name,
			u.email,
			u.password_hash,
			u.role,
			u.is_email_verified,
			u.token_hash,
			u.token_expiry,
			u.profile_image,
			u.profile_image_public_id
		FROM
			users u
		WHERE
			%s
	`, where)

	var u models.User
	err := ur.db.pool.QueryRow(ctx, q, arg).Scan(
		&u.UserID,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.UserName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsEmailVerified,
		&u.TokenHash,
		&u.TokenExpiry,
		&u.ProfileImage,
		&u.ProfileImagePublicID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, myerrors.ErrUserNotFound
		}
		return models.User{}, err
	}

	return u, nil
}

// MarkEmailVerified is the check-then-clear of the verification flow as
// a single conditional update. Two concurrent redemptions of the same
// token cannot both win: only one update affects a row, the other scans
// no row and reports the token as invalid or expired.
func (ur *UserRepo) MarkEmailVerified(ctx context.Context, tokenHash string) (string, error) {
	q := `
		UPDATE users
		SET is_email_verified = true, token_hash = NULL, token_expiry = NULL, updated_at = now()
		WHERE token_hash = $1 AND token_expiry > now() AND NOT is_email_verified
		RETURNING user_id
	`

	id := ""
	if err := ur.db.pool.QueryRow(ctx, q, tokenHash).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", myerrors.ErrTokenInvalidOrExpired
		}
		return "", fmt.Errorf("failed to mark email verified: %w", err)
	}

	return id, nil
}

func (ur *UserRepo) UpdateProfile(ctx context.Context, user models.User) error {
	q := `
		UPDATE users
		SET
			user_name = $2,
			email = $3,
			password_hash = $4,
			role = $5,
			profile_image = $6,
			profile_image_public_id = $7,
			updated_at = now()
		WHERE user_id = $1
	`

	tag, err := ur.db.pool.Exec(ctx, q,
		user.UserID,
		user.UserName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.ProfileImage,
		user.ProfileImagePublicID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return myerrors.ErrEmailRegistered
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return myerrors.ErrUserNotFound
	}

	return nil
}
