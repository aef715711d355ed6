package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"employee-portal/internal/auth-service/core/domain/dto"
	"employee-portal/internal/auth-service/core/domain/models"
	"employee-portal/internal/auth-service/core/myerrors"
	"employee-portal/internal/auth-service/core/ports/driven"
	"employee-portal/internal/config"
	"employee-portal/internal/mylogger"

	"github.com/google/uuid"
)

const VerificationTokenTTL = time.Hour

type AuthService struct {
	ctx       context.Context
	cfg       *config.Config
	userRepo  driven.IUserRepo
	mailQueue driven.IMailQueue
	media     driven.IMediaStore
	sessions  *SessionIssuer
	mylog     mylogger.Logger
}

func NewAuthService(
	ctx context.Context,
	cfg *config.Config,
	userRepo driven.IUserRepo,
	mailQueue driven.IMailQueue,
	media driven.IMediaStore,
	mylog mylogger.Logger,
) *AuthService {
	return &AuthService{
		ctx:       ctx,
		cfg:       cfg,
		userRepo:  userRepo,
		mailQueue: mailQueue,
		media:     media,
		sessions:  NewSessionIssuer(cfg.App.JwtSecret),
		mylog:     mylog,
	}
}

func (as *AuthService) Sessions() *SessionIssuer {
	return as.sessions
}

// ======================= Register =======================

// Register creates an unverified user and queues a verification mail.
// An unverified row with the same email is refreshed in place; only a
// verified one blocks the registration. Mail delivery is best-effort
// and never rolls back the database write.
func (as *AuthService) Register(ctx context.Context, regReq dto.RegistrationRequest) (string, error) {
	mylog := as.mylog.Action("Register")

	if err := validateRegistration(regReq.UserName, regReq.Email, regReq.Password); err != nil {
		return "", err
	}

	hashedPassword, err := hashPassword(regReq.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	rawToken, tokenHash, err := generateVerificationToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	tokenExpiry := time.Now().Add(VerificationTokenTTL)

	user := models.User{
		UserID:       uuid.NewString(),
		UserName:     regReq.UserName,
		Email:        regReq.Email,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
		TokenHash:    &tokenHash,
		TokenExpiry:  &tokenExpiry,
	}

	id, err := as.userRepo.CreateUnverified(ctx, user)
	if err != nil {
		if errors.Is(err, myerrors.ErrEmailRegistered) {
			mylog.Warn("Failed to register, email already registered")
			return "", err
		}
		mylog.Error("Failed to save user in db", err)
		return "", fmt.Errorf("cannot save user in db: %w", err)
	}

	msg := dto.VerificationEmail{
		To:        regReq.Email,
		UserName:  regReq.UserName,
		VerifyURL: fmt.Sprintf("%s/verify-email?token=%s", as.cfg.App.ClientURL, rawToken),
	}
	if err := as.mailQueue.PublishVerificationEmail(ctx, msg); err != nil {
		// The user row is already committed; delivery failure is an
		// operational warning, not a registration failure.
		mylog.Warn("Failed to queue verification email", "email", regReq.Email, "err", err.Error())
	}

	mylog.Info("User registered, verification pending")
	return id, nil
}

// ======================= VerifyEmail =======================

// VerifyEmail redeems a raw verification token. The repo performs the
// check-then-clear as one conditional update, so a replayed or raced
// token observes zero affected rows and fails the same way as an
// unknown one.
func (as *AuthService) VerifyEmail(ctx context.Context, rawToken string) error {
	mylog := as.mylog.Action("VerifyEmail")

	if rawToken == "" {
		return myerrors.ErrTokenInvalidOrExpired
	}

	userID, err := as.userRepo.MarkEmailVerified(ctx, hashVerificationToken(rawToken))
	if err != nil {
		if errors.Is(err, myerrors.ErrTokenInvalidOrExpired) {
			mylog.Warn("Verification attempt with invalid or expired token")
			return err
		}
		mylog.Error("Failed to verify email", err)
		return fmt.Errorf("cannot verify email: %w", err)
	}

	mylog.Info("Email verified", "user_id", userID)
	return nil
}

// ======================= Login =======================

// Login checks credentials and issues a session token. Unknown email
// and wrong password are indistinguishable to the caller.
func (as *AuthService) Login(ctx context.Context, authReq dto.LoginRequest) (string, error) {
	mylog := as.mylog.Action("Login")

	if err := validateLogin(authReq.Email, authReq.Password); err != nil {
		return "", err
	}

	user, err := as.userRepo.GetByEmail(ctx, authReq.Email)
	if err != nil {
		if errors.Is(err, myerrors.ErrUserNotFound) {
			mylog.Warn("Failed to login, unknown email")
			return "", myerrors.ErrInvalidCredentials
		}
		mylog.Error("Failed to load user from db", err)
		return "", fmt.Errorf("cannot load user from db: %w", err)
	}

	if !checkPassword(user.PasswordHash, authReq.Password) {
		mylog.Warn("Failed to login, password mismatch")
		return "", myerrors.ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		mylog.Warn("Failed to login, email not verified")
		return "", myerrors.ErrEmailNotVerified
	}

	accessToken, err := as.sessions.Issue(user.UserID, user.Email, user.Role)
	if err != nil {
		mylog.Error("Failed to sign session token", err)
		return "", fmt.Errorf("cannot sign session token: %w", err)
	}

	mylog.Info("User logged in")
	return accessToken, nil
}

// ======================= Profile =======================

func (as *AuthService) GetProfile(ctx context.Context, userID string) (dto.UserProfile, error) {
	user, err := as.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, myerrors.ErrUserNotFound) {
			return dto.UserProfile{}, err
		}
		as.mylog.Action("GetProfile").Error("Failed to load user from db", err)
		return dto.UserProfile{}, fmt.Errorf("cannot load user from db: %w", err)
	}

	return profileOf(user), nil
}

// UpdateProfile applies a partial profile change. A USER may only edit
// their own profile and may not change roles; ADMIN may edit anyone.
// A replaced profile image is uploaded before the old asset is removed,
// and removal failure is tolerated.
func (as *AuthService) UpdateProfile(ctx context.Context, actor dto.Claims, targetID string, upd dto.ProfileUpdate) (dto.UserProfile, error) {
	mylog := as.mylog.Action("UpdateProfile")

	if actor.Role != models.RoleAdmin {
		if actor.UserID != targetID {
			return dto.UserProfile{}, myerrors.ErrForbidden
		}
		if upd.Role != "" {
			return dto.UserProfile{}, myerrors.ErrForbidden
		}
	}

	user, err := as.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, myerrors.ErrUserNotFound) {
			return dto.UserProfile{}, err
		}
		mylog.Error("Failed to load user from db", err)
		return dto.UserProfile{}, fmt.Errorf("cannot load user from db: %w", err)
	}

	if upd.UserName != "" {
		if err := validateName(upd.UserName); err != nil {
			return dto.UserProfile{}, fmt.Errorf("%w: invalid name: %v", myerrors.ErrValidation, err)
		}
		user.UserName = upd.UserName
	}

	if upd.Email != "" {
		if err := validateEmail(upd.Email); err != nil {
			return dto.UserProfile{}, fmt.Errorf("%w: invalid email: %v", myerrors.ErrValidation, err)
		}
		user.Email = upd.Email
	}

	if upd.Password != "" {
		if err := validatePassword(upd.Password); err != nil {
			return dto.UserProfile{}, fmt.Errorf("%w: invalid password: %v", myerrors.ErrValidation, err)
		}
		hashed, err := hashPassword(upd.Password)
		if err != nil {
			return dto.UserProfile{}, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashed
	}

	if upd.Role != "" {
		if err := validateRole(upd.Role); err != nil {
			return dto.UserProfile{}, err
		}
		user.Role = upd.Role
	}

	if upd.Image != nil {
		oldPublicID := user.ProfileImagePublicID

		url, publicID, err := as.media.Upload(ctx, *upd.Image)
		if err != nil {
			mylog.Error("Failed to upload profile image", err)
			return dto.UserProfile{}, myerrors.ErrUploadFailed
		}
		user.ProfileImage = &url
		user.ProfileImagePublicID = &publicID

		if oldPublicID != nil {
			if err := as.media.Delete(ctx, *oldPublicID); err != nil {
				mylog.Warn("Failed to delete previous profile image", "public_id", *oldPublicID, "err", err.Error())
			}
		}
	}

	if err := as.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, myerrors.ErrEmailRegistered) {
			mylog.Warn("Failed to update profile, email already registered")
			return dto.UserProfile{}, err
		}
		mylog.Error("Failed to update user in db", err)
		return dto.UserProfile{}, fmt.Errorf("cannot update user in db: %w", err)
	}

	mylog.Info("Profile updated", "user_id", user.UserID)
	return profileOf(user), nil
}

func profileOf(user models.User) dto.UserProfile {
	profile := dto.UserProfile{
		UserID:   user.UserID,
		Email:    user.Email,
		UserName: user.UserName,
		Role:     user.Role,
	}
	if user.ProfileImage != nil {
		profile.ProfileImage = *user.ProfileImage
	}
	return profile
}
