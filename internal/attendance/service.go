package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"qatysu.org/internal/ids"
)

// Service defines attendance operations. RecordScan must behave as if
// backed by an atomic compare-and-set on (employee, day): under concurrent
// duplicate scans exactly one caller observes checked_in.
type Service interface {
	RecordScan(ctx context.Context, employeeID string, now time.Time) (ScanResult, error)
	GetRecord(ctx context.Context, employeeID, day string) (Record, error)
	ListRecords(ctx context.Context, employeeID, day string) ([]Record, error)
}

// InMemory implements Service with in-process concurrency safety. The
// mutex held across read-decide-write is the in-process rendition of the
// storage-level conditional update the Postgres store performs.
type InMemory struct {
	mu   sync.RWMutex
	recs map[string]*Record // employeeID+"/"+day
}

// NewInMemory creates an empty ledger.
func NewInMemory() *InMemory {
	return &InMemory{recs: make(map[string]*Record)}
}

var _ Service = (*InMemory)(nil)

func (s *InMemory) RecordScan(ctx context.Context, employeeID string, now time.Time) (ScanResult, error) {
	day := Day(now)
	key := employeeID + "/" + day

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[key]
	if !ok {
		rec = &Record{
			ID:         ids.New(),
			EmployeeID: employeeID,
			Day:        day,
			CheckinAt:  now.UTC(),
			CreatedAt:  now.UTC(),
		}
		s.recs[key] = rec
		return result(OutcomeCheckedIn, rec), nil
	}

	if now.UTC().Before(rec.CheckinAt) {
		return ScanResult{}, ErrNonMonotonicTime
	}

	if rec.CheckoutAt == nil {
		out := now.UTC()
		rec.CheckoutAt = &out
		return result(OutcomeCheckedOut, rec), nil
	}

	// Terminal for the day: repeat scans mutate nothing.
	return result(OutcomeAlreadyCheckedOut, rec), nil
}

func (s *InMemory) GetRecord(ctx context.Context, employeeID, day string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[employeeID+"/"+day]
	if !ok {
		return Record{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *InMemory) ListRecords(ctx context.Context, employeeID, day string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.recs {
		if employeeID != "" && rec.EmployeeID != employeeID {
			continue
		}
		if day != "" && rec.Day != day {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day > out[j].Day
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func result(outcome Outcome, rec *Record) ScanResult {
	r := ScanResult{
		Outcome:    outcome,
		EmployeeID: rec.EmployeeID,
		Day:        rec.Day,
		CheckinAt:  rec.CheckinAt,
	}
	if rec.CheckoutAt != nil {
		out := *rec.CheckoutAt
		r.CheckoutAt = &out
	}
	return r
}

func copyRecord(rec *Record) Record {
	out := *rec
	if rec.CheckoutAt != nil {
		ts := *rec.CheckoutAt
		out.CheckoutAt = &ts
	}
	return out
}
