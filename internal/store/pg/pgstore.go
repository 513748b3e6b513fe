package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"qatysu.org/internal/attendance"
	"qatysu.org/internal/ids"
)

type Store struct {
	db *sql.DB
}

var _ attendance.Service = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle (used by tests with sqlmock).
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// RecordScan applies the check-in/check-out transition for the scan's day.
// The read-modify-write is pushed into two conditional statements so the
// database acts as the lock: the insert claims check-in atomically via the
// (employee_id, day) unique constraint, and the update only fires while
// checkout_at is still null and ordering holds. No explicit row locks.
func (s *Store) RecordScan(ctx context.Context, employeeID string, now time.Time) (attendance.ScanResult, error) {
	now = now.UTC()
	day := attendance.Day(now)

	res, err := s.db.ExecContext(ctx, `
		insert into attendance(id, employee_id, day, checkin_at, created_at)
		values ($1,$2,$3,$4,$4)
		on conflict (employee_id, day) do nothing
	`, ids.New(), employeeID, day, now)
	if err != nil {
		return attendance.ScanResult{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return attendance.ScanResult{}, err
	} else if n == 1 {
		return attendance.ScanResult{
			Outcome:    attendance.OutcomeCheckedIn,
			EmployeeID: employeeID,
			Day:        day,
			CheckinAt:  now,
		}, nil
	}

	// A record exists: try to close it out, guarding both idempotency
	// (checkout_at is null) and ordering (checkin_at <= now) in one
	// conditional update.
	var checkin time.Time
	err = s.db.QueryRowContext(ctx, `
		update attendance set checkout_at=$3
		where employee_id=$1 and day=$2 and checkout_at is null and checkin_at <= $3
		returning checkin_at
	`, employeeID, day, now).Scan(&checkin)
	if err == nil {
		out := now
		return attendance.ScanResult{
			Outcome:    attendance.OutcomeCheckedOut,
			EmployeeID: employeeID,
			Day:        day,
			CheckinAt:  checkin.UTC(),
			CheckoutAt: &out,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return attendance.ScanResult{}, err
	}

	// The update matched nothing: either the day is already closed out or
	// the scan timestamp precedes the stored check-in. Re-read to tell the
	// two apart.
	var checkout sql.NullTime
	err = s.db.QueryRowContext(ctx, `
		select checkin_at, checkout_at from attendance
		where employee_id=$1 and day=$2
	`, employeeID, day).Scan(&checkin, &checkout)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.ScanResult{}, attendance.ErrNotFound
	}
	if err != nil {
		return attendance.ScanResult{}, err
	}
	if now.Before(checkin.UTC()) {
		return attendance.ScanResult{}, attendance.ErrNonMonotonicTime
	}
	result := attendance.ScanResult{
		Outcome:    attendance.OutcomeAlreadyCheckedOut,
		EmployeeID: employeeID,
		Day:        day,
		CheckinAt:  checkin.UTC(),
	}
	if checkout.Valid {
		ts := checkout.Time.UTC()
		result.CheckoutAt = &ts
	}
	return result, nil
}

func (s *Store) GetRecord(ctx context.Context, employeeID, day string) (attendance.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, employee_id, day, checkin_at, checkout_at, created_at
		from attendance where employee_id=$1 and day=$2
	`, employeeID, day)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, err
}

func (s *Store) ListRecords(ctx context.Context, employeeID, day string) ([]attendance.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, employee_id, day, checkin_at, checkout_at, created_at
		from attendance
		where ($1 = '' or employee_id = $1)
		  and ($2 = '' or day = $2::date)
		order by day desc, employee_id asc
	`, employeeID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (attendance.Record, error) {
	var rec attendance.Record
	var day time.Time
	var checkout sql.NullTime
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &day, &rec.CheckinAt, &checkout, &rec.CreatedAt); err != nil {
		return attendance.Record{}, err
	}
	rec.Day = day.UTC().Format(attendance.DayFormat)
	rec.CheckinAt = rec.CheckinAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	if checkout.Valid {
		ts := checkout.Time.UTC()
		rec.CheckoutAt = &ts
	}
	return rec, nil
}
