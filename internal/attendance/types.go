package attendance

import (
	"errors"
	"time"
)

// DayFormat is the canonical key for a calendar day. Days are resolved in
// UTC; changing the timezone policy mid-deployment would silently
// reinterpret historical records, so it is fixed at construction time.
const DayFormat = "2006-01-02"

// Outcome tags the result of applying one badge scan to the day's record.
type Outcome string

const (
	OutcomeCheckedIn         Outcome = "checked_in"
	OutcomeCheckedOut        Outcome = "checked_out"
	OutcomeAlreadyCheckedOut Outcome = "already_checked_out"
)

// Record is the day-scoped attendance entry: at most one per
// (employee, day), check-out set at most once and never before check-in.
type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Day        string     `json:"day"`
	CheckinAt  time.Time  `json:"checkin_at"`
	CheckoutAt *time.Time `json:"checkout_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ScanResult is what a scan returns to the caller: the outcome tag plus the
// record's timestamps for display at the kiosk.
type ScanResult struct {
	Outcome    Outcome    `json:"outcome"`
	EmployeeID string     `json:"employee_id"`
	Day        string     `json:"day"`
	CheckinAt  time.Time  `json:"checkin_at"`
	CheckoutAt *time.Time `json:"checkout_at,omitempty"`
}

var (
	ErrNotFound = errors.New("attendance: record not found")

	// ErrNonMonotonicTime marks a scan whose timestamp precedes the stored
	// check-in. It signals a clock or storage inconsistency and is never
	// silently corrected.
	ErrNonMonotonicTime = errors.New("attendance: scan time precedes recorded check-in")
)

// Day maps a scan timestamp to its canonical day key.
func Day(now time.Time) string {
	return now.UTC().Format(DayFormat)
}
