package http

import (
	"errors"
	"net/http"

	"github.com/sladosa/diary-multiuser/internal/auth"
	"github.com/sladosa/diary-multiuser/internal/repo"
	"github.com/sladosa/diary-multiuser/internal/service"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	DisplayName     string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type entityResponse struct {
	ID string `json:"id"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, err := a.Service.Register(r.Context(), req.Email, req.Password, req.PasswordConfirm, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields),
			errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrPasswordMismatch):
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, repo.ErrDuplicate):
			// don't reveal which part failed
			writeError(w, http.StatusBadRequest, "REGISTRATION_FAILED", "Registration failed")
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Registration failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{ID: userID})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	accessToken, refreshToken, err := a.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	var req logoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.Service.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	u, err := a.Service.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
