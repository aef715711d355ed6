package driver

import (
	"context"

	"employee-portal/internal/auth-service/core/domain/dto"
)

type IAuthService interface {
	Register(ctx context.Context, regReq dto.RegistrationRequest) (string, error)
	VerifyEmail(ctx context.Context, rawToken string) error
	Login(ctx context.Context, authReq dto.LoginRequest) (string, error)
	GetProfile(ctx context.Context, userID string) (dto.UserProfile, error)
	UpdateProfile(ctx context.Context, actor dto.Claims, targetID string, upd dto.ProfileUpdate) (dto.UserProfile, error)
}
