package httpapi

import (
	"net/http"
	"strings"
	"time"

	"qatysu.org/internal/audit"
	"qatysu.org/internal/auth"
)

type loginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

const tokenTTL = 15 * time.Minute

func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user := strings.TrimSpace(req.User)
	if user == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "user and password are required")
		return
	}

	if a.adminPassHash == "" {
		writeError(w, r, http.StatusServiceUnavailable, "operator login is not configured")
		return
	}
	if user != a.adminUser || auth.VerifyPassword(a.adminPassHash, req.Password) != nil {
		_ = audit.LogEvent(r.Context(), "auth.login.rejected", map[string]any{"user": user})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user, tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	expiresAt := time.Now().UTC().Add(tokenTTL)
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user":       user,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
