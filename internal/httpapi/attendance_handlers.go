package httpapi

import (
	"net/http"
	"strings"
	"time"

	"qatysu.org/internal/attendance"
)

type listAttendanceResponse struct {
	Items []attendance.Record `json:"items"`
	AsOf  time.Time           `json:"as_of"`
}

func (a *API) handleAttendance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	employeeID := strings.TrimSpace(r.URL.Query().Get("employee_id"))
	day := strings.TrimSpace(r.URL.Query().Get("day"))
	if day != "" {
		if _, err := time.Parse(attendance.DayFormat, day); err != nil {
			writeError(w, r, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
	}

	items, err := a.ledger.ListRecords(r.Context(), employeeID, day)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []attendance.Record{}
	}
	writeJSON(w, http.StatusOK, listAttendanceResponse{
		Items: items,
		AsOf:  time.Now().UTC(),
	})
}
