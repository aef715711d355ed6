package dto

import (
	"github.com/golang-jwt/jwt/v5"
)

type RegistrationRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProfile carries the safe subset of a user record. Password and
// token hashes never leave the store through this type.
type UserProfile struct {
	UserID       string `json:"id"`
	Email        string `json:"email"`
	UserName     string `json:"userName"`
	Role         string `json:"role"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// ProfileUpdate holds the optional fields of a profile change. Empty
// strings mean "leave as is"; a nil Image means no image change.
type ProfileUpdate struct {
	UserName string
	Email    string
	Password string
	Role     string
	Image    *ImageUpload
}

type ImageUpload struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Claims is the decoded payload of a session token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
