package models

import (
	"time"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type User struct {
	UserID               string     `json:"user_id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	UserName             string     `json:"user_name"`
	Email                string     `json:"email"`
	PasswordHash         []byte     `json:"password_hash"`
	Role                 string     `json:"role"`
	IsEmailVerified      bool       `json:"is_email_verified"`
	TokenHash            *string    `json:"token_hash,omitempty"`
	TokenExpiry          *time.Time `json:"token_expiry,omitempty"`
	ProfileImage         *string    `json:"profile_image,omitempty"`
	ProfileImagePublicID *string    `json:"profile_image_public_id,omitempty"`
}
