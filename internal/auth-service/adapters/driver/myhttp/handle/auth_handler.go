package handle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"employee-portal/internal/auth-service/adapters/driver/myhttp/middleware"
	"employee-portal/internal/auth-service/core/domain/dto"
	"employee-portal/internal/auth-service/core/ports/driver"
	"employee-portal/internal/mylogger"
)

const (
	cookieMaxAge     = 3600
	maxMultipartSize = 10 << 20
)

type AuthHandler struct {
	authService driver.IAuthService
	mylog       mylogger.Logger
}

func NewAuthHandler(authService driver.IAuthService, mylog mylogger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		mylog:       mylog,
	}
}

func (ah *AuthHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var regReq dto.RegistrationRequest

		mylog := ah.mylog.Action("Register")

		if err := json.NewDecoder(r.Body).Decode(&regReq); err != nil {
			mylog.Warn("Failed to parse registration request")
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		userID, err := ah.authService.Register(ctx, regReq)
		if err != nil {
			jsonError(w, statusOf(err), err)
			return
		}

		jsonResponse(w, http.StatusCreated, map[string]string{
			"message": "User registered, follow the link in your mailbox to verify your email",
			"userId":  userID,
		})
	}
}

func (ah *AuthHandler) VerifyEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		if err := ah.authService.VerifyEmail(ctx, token); err != nil {
			jsonError(w, statusOf(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, map[string]string{
			"message": "Email verified successfully",
		})
	}
}

// Login issues the session token twice on purpose: as an http-only
// cookie and in the response body. Both paths stay valid for
// authorization.
func (ah *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var authReq dto.LoginRequest

		mylog := ah.mylog.Action("Login")

		if err := json.NewDecoder(r.Body).Decode(&authReq); err != nil {
			mylog.Warn("Failed to parse login request")
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		accessToken, err := ah.authService.Login(ctx, authReq)
		if err != nil {
			jsonError(w, statusOf(err), err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.CookieName,
			Value:    accessToken,
			Path:     "/",
			MaxAge:   cookieMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		jsonResponse(w, http.StatusOK, map[string]string{
			"message": "Login successful",
			"token":   accessToken,
		})
	}
}

// Logout is stateless: there is no server-side session record, so
// clearing the cookie is the whole operation.
func (ah *AuthHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		jsonResponse(w, http.StatusOK, map[string]string{
			"message": "Logout successful",
		})
	}
}

func (ah *AuthHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			jsonError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		profile, err := ah.authService.GetProfile(ctx, claims.UserID)
		if err != nil {
			jsonError(w, statusOf(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, profile)
	}
}

func (ah *AuthHandler) UpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mylog := ah.mylog.Action("UpdateProfile")

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			jsonError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		targetID := r.PathValue("id")
		if targetID == "" {
			jsonError(w, http.StatusBadRequest, errors.New("user id not provided"))
			return
		}

		if err := r.ParseMultipartForm(maxMultipartSize); err != nil {
			mylog.Warn("Failed to parse multipart form")
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse multipart form"))
			return
		}

		upd := dto.ProfileUpdate{
			UserName: r.FormValue("userName"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
			Role:     r.FormValue("role"),
		}

		if file, header, err := r.FormFile("profileImage"); err == nil {
			defer file.Close()

			content, err := io.ReadAll(file)
			if err != nil {
				jsonError(w, http.StatusBadRequest, errors.New("failed to read profile image"))
				return
			}
			upd.Image = &dto.ImageUpload{
				Content:     content,
				ContentType: header.Header.Get("Content-Type"),
				Filename:    header.Filename,
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		profile, err := ah.authService.UpdateProfile(ctx, claims, targetID, upd)
		if err != nil {
			jsonError(w, statusOf(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Profile updated successfully",
			"data":    profile,
		})
	}
}
