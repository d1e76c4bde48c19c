package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an authentication token. Every credential
// failure answers the same 401 so responses never reveal whether an account
// exists.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, expiresAt, err := a.authsvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{"email": req.Email})
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "authentication error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"email": req.Email})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
	})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset issues a reset token for the account. The response is
// identical whether or not the account exists.
func (a *API) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := a.authsvc.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if token != "" {
		// Delivery is the mailer's concern; the token is only audited here.
		_ = audit.LogEvent(r.Context(), "auth.password_reset.requested", map[string]any{"email": req.Email})
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
}

type passwordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ConfirmPasswordReset verifies a reset token and stores the new password.
func (a *API) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req passwordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.authsvc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		respondError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password_reset.confirmed", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
