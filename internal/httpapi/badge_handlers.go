package httpapi

import (
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"qatysu.org/internal/audit"
)

type issueBadgeRequest struct {
	EmployeeID string `json:"employee_id"`
}

type issueBadgeResponse struct {
	EmployeeID string `json:"employee_id"`
	Token      string `json:"token"`
	MaxAgeSec  int    `json:"max_age_sec"`
}

// handleBadges issues a fresh badge token for an employee. With
// ?format=png the response is the QR symbol itself, ready for the
// employee's phone screen.
func (a *API) handleBadges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req issueBadgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	employeeID := strings.TrimSpace(req.EmployeeID)
	if employeeID == "" {
		writeError(w, r, http.StatusBadRequest, "employee_id is required")
		return
	}

	ok, err := a.dir.Exists(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "employee not found")
		return
	}

	token, err := a.codec.Issue(employeeID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "badge issuance failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "badge.issued", map[string]any{
		"employee_id": employeeID,
	})

	if r.URL.Query().Get("format") == "png" {
		png, err := qrcode.Encode(token, qrcode.Medium, 256)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "qr encoding failed")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
		return
	}

	writeJSON(w, http.StatusOK, issueBadgeResponse{
		EmployeeID: employeeID,
		Token:      token,
		MaxAgeSec:  int(a.codec.MaxAge().Seconds()),
	})
}
