package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dsmelov/clipshare/internal/apperrors"
	"github.com/dsmelov/clipshare/internal/handlers/render"
	"github.com/dsmelov/clipshare/internal/handlers/userctx"
	"github.com/dsmelov/clipshare/internal/logger"
	"github.com/dsmelov/clipshare/internal/models"
	"github.com/dsmelov/clipshare/internal/service/auth"
)

type accountResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CoverURL  string    `json:"coverUrl,omitempty"`
}

// The account is sanitized by the service already, this just shapes the json
func toAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		Username:  a.Username,
		Email:     a.Email,
		FullName:  a.FullName,
		AvatarURL: a.AvatarURL,
		CoverURL:  a.CoverURL,
	}
}

func handleRegister(s authService, l logger.Logger) http.Handler {
	type request struct {
		Username  string `json:"username" validate:"required,min=2,max=50"`
		Email     string `json:"email" validate:"required,email"`
		FullName  string `json:"fullName" validate:"required,max=100"`
		Password  string `json:"password" validate:"required,min=8"`
		AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
		CoverURL  string `json:"coverUrl" validate:"omitempty,url"`
	}
	type response struct {
		Message string          `json:"message"`
		Account accountResponse `json:"account"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		account, pair, err := s.Register(r.Context(), auth.RegisterParams{
			Username:  data.Username,
			Email:     data.Email,
			FullName:  data.FullName,
			Password:  data.Password,
			AvatarURL: data.AvatarURL,
			CoverURL:  data.CoverURL,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAccountExists):
				render.ServiceError(w, "Account with this username or email already exists", http.StatusConflict)
			default:
				l.Error("register failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		s.SetTokenPairToResponse(w, pair)
		render.JSONWithStatus(w, response{
			Message: "Account registered successfully",
			Account: toAccountResponse(account),
		}, http.StatusCreated)
	})
}

func handleLogin(s authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message string          `json:"message"`
		Account accountResponse `json:"account"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		account, pair, err := s.Login(r.Context(), data.Login, data.Password)
		if err != nil {
			switch {
			// Same response for a missing account and a wrong password,
			// no oracle for which one it was
			case errors.Is(err, apperrors.ErrAccountNotFound),
				errors.Is(err, apperrors.ErrInvalidCredential):
				render.ServiceError(w, "Invalid login or password", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		s.SetTokenPairToResponse(w, pair)
		render.JSON(w, response{
			Message: "Logged in successfully",
			Account: toAccountResponse(account),
		})
	})
}

func handleTokenRefresh(s authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := s.ReadRefreshToken(r)
		if err != nil {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		_, pair, err := s.Refresh(r.Context(), refresh)
		if err != nil {
			if !errors.Is(err, apperrors.ErrUnauthorized) {
				l.Error("refresh failed", "error", err)
			}
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		s.SetTokenPairToResponse(w, pair)
		render.JSON(w, response{Message: "Tokens refreshed successfully"})
	})
}

func handleLogout(s authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, _ := userctx.FromContext(r.Context())

		if err := s.Logout(r.Context(), account.ID); err != nil {
			l.Error("logout failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.ClearTokensFromResponse(w)
		render.JSON(w, response{Message: "Logged out successfully"})
	})
}

func handleChangePassword(s authService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		account, _ := userctx.FromContext(r.Context())

		err = s.ChangePassword(r.Context(), account.ID, data.CurrentPassword, data.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredential):
				render.ServiceError(w, "Current password is incorrect", http.StatusBadRequest)
			default:
				l.Error("password change failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password changed successfully"})
	})
}

func handleMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, _ := userctx.FromContext(r.Context())
		render.JSON(w, toAccountResponse(account))
	})
}
