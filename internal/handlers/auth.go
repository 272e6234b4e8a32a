package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"quillpress/internal/auth"
	"quillpress/internal/middleware"
)

// Authenticator checks admin credentials. Implemented by auth.Authenticator.
type Authenticator interface {
	Login(username, password, code string) (string, *auth.Claims, error)
	ProvisioningQR() ([]byte, error)
}

// Auth groups the login and token endpoints.
type Auth struct {
	authn Authenticator
}

// NewAuth creates the auth handler group.
func NewAuth(authn Authenticator) *Auth {
	return &Auth{authn: authn}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// Login handles POST /api/auth/login and returns a bearer token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide username and password")
		return
	}

	token, claims, err := a.authn.Login(req.Username, req.Password, strings.TrimSpace(req.OTP))
	switch {
	case errors.Is(err, auth.ErrOTPRequired):
		writeJSON(w, http.StatusUnauthorized, response{
			Message:     "One-time code required",
			OTPRequired: true,
		})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		slog.WarnContext(r.Context(), "admin login failed", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "admin login error", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	slog.InfoContext(r.Context(), "admin logged in", "username", claims.Username)
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User:    &userInfo{Username: claims.Username, Role: claims.Role},
	})
}

// Verify handles GET /api/admin/verify. RequireAdmin has already checked the
// token; this reports who it belongs to.
func (a *Auth) Verify(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromCtx(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	writeJSON(w, http.StatusOK, response{
		Success: true,
		User:    &userInfo{Username: claims.Username, Role: claims.Role},
	})
}

// TwoFAQR handles GET /api/admin/2fa/qr.png: the authenticator enrolment QR
// code for the configured TOTP secret.
func (a *Auth) TwoFAQR(w http.ResponseWriter, r *http.Request) {
	png, err := a.authn.ProvisioningQR()
	if errors.Is(err, auth.ErrTOTPDisabled) {
		writeError(w, http.StatusNotFound, "Two-factor authentication is not enabled")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "generate 2fa qr failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error generating QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
