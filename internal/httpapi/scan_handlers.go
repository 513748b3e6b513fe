package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"qatysu.org/internal/attendance"
	"qatysu.org/internal/audit"
	"qatysu.org/internal/badge"
	"qatysu.org/internal/obs"
	"qatysu.org/internal/stream"
)

type scanRequest struct {
	Token    string `json:"token"`
	ImageB64 string `json:"image_b64"`
}

type scanResponse struct {
	Outcome    attendance.Outcome `json:"outcome"`
	EmployeeID string             `json:"employee_id"`
	Day        string             `json:"day"`
	CheckinAt  time.Time          `json:"checkin_at"`
	CheckoutAt *time.Time         `json:"checkout_at,omitempty"`
}

// handleScans is the kiosk flow. The order is fixed: the badge token is
// cryptographically validated first, only then is the face sample compared,
// and attendance is recorded only after both pass. Reordering would let a
// biometric match stand in for identity, or record presence without proof.
func (a *API) handleScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, r, http.StatusBadRequest, "token is required")
		return
	}
	if strings.TrimSpace(req.ImageB64) == "" {
		writeError(w, r, http.StatusBadRequest, "image_b64 is required")
		return
	}

	employeeID, err := a.codec.Validate(req.Token)
	if err != nil {
		a.rejectScan(w, r, err)
		return
	}

	ok, err := a.dir.Exists(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		_ = audit.LogEvent(r.Context(), "badge.scan.rejected", map[string]any{
			"reason":      "unknown_employee",
			"employee_id": employeeID,
		})
		writeError(w, r, http.StatusNotFound, "employee not found")
		return
	}

	verified, err := a.verifier.Verify(r.Context(), employeeID, req.ImageB64)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "identity verification unavailable")
		return
	}
	if !verified {
		_ = audit.LogEvent(r.Context(), "badge.scan.rejected", map[string]any{
			"reason":      "face_mismatch",
			"employee_id": employeeID,
		})
		writeError(w, r, http.StatusForbidden, "identity verification failed")
		return
	}

	res, err := a.ledger.RecordScan(r.Context(), employeeID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, attendance.ErrNonMonotonicTime) {
			_ = audit.LogEvent(r.Context(), "attendance.scan.anomaly", map[string]any{
				"reason":      "non_monotonic_time",
				"employee_id": employeeID,
			})
			writeError(w, r, http.StatusConflict, "scan time precedes recorded check-in")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	obs.CountScan(string(res.Outcome))
	_ = audit.LogEvent(r.Context(), "attendance.scan.recorded", map[string]any{
		"employee_id": res.EmployeeID,
		"day":         res.Day,
		"outcome":     string(res.Outcome),
	})

	if a.stream != nil {
		a.stream.Publish(stream.ScanEvent{
			EmployeeID: res.EmployeeID,
			Outcome:    string(res.Outcome),
			Day:        res.Day,
			Timestamp:  time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Outcome:    res.Outcome,
		EmployeeID: res.EmployeeID,
		Day:        res.Day,
		CheckinAt:  res.CheckinAt,
		CheckoutAt: res.CheckoutAt,
	})
}

// rejectScan maps token validation failures to responses. Malformed and
// BadSignature are deliberately indistinguishable to the kiosk so a forger
// gets no oracle; the audit entry and metric keep the reasons separate for
// monitoring.
func (a *API) rejectScan(w http.ResponseWriter, r *http.Request, err error) {
	var reason string
	switch {
	case errors.Is(err, badge.ErrExpired):
		reason = "expired"
		obs.CountBadgeValidationFailure(reason)
		_ = audit.LogEvent(r.Context(), "badge.scan.rejected", map[string]any{"reason": reason})
		writeError(w, r, http.StatusUnauthorized, "badge expired, please scan again")
		return
	case errors.Is(err, badge.ErrBadSignature):
		reason = "bad_signature"
	case errors.Is(err, badge.ErrMalformed):
		reason = "malformed"
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	obs.CountBadgeValidationFailure(reason)
	_ = audit.LogEvent(r.Context(), "badge.scan.rejected", map[string]any{"reason": reason})
	writeError(w, r, http.StatusUnauthorized, "invalid credential")
}
