package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"qatysu.org/internal/directory"
)

// Directory implements directory.Service over the same database handle as
// the attendance store.
type Directory struct {
	db *sql.DB
}

var _ directory.Service = (*Directory)(nil)

// NewDirectory wraps the store's handle for employee operations.
func NewDirectory(s *Store) *Directory { return &Directory{db: s.db} }

func (d *Directory) Create(ctx context.Context, id, name string) (directory.Employee, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return directory.Employee{}, directory.ErrInvalidInput
	}
	now := time.Now().UTC()
	res, err := d.db.ExecContext(ctx, `
		insert into employees(id, name, created_at)
		values ($1,$2,$3)
		on conflict (id) do nothing
	`, id, name, now)
	if err != nil {
		return directory.Employee{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return directory.Employee{}, err
	} else if n == 0 {
		return directory.Employee{}, directory.ErrAlreadyExists
	}
	return directory.Employee{ID: id, Name: name, CreatedAt: now}, nil
}

func (d *Directory) Get(ctx context.Context, id string) (directory.Employee, error) {
	var emp directory.Employee
	err := d.db.QueryRowContext(ctx, `
		select id, name, created_at from employees where id=$1
	`, id).Scan(&emp.ID, &emp.Name, &emp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.Employee{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Employee{}, err
	}
	emp.CreatedAt = emp.CreatedAt.UTC()
	return emp, nil
}

func (d *Directory) List(ctx context.Context) ([]directory.Employee, error) {
	rows, err := d.db.QueryContext(ctx, `
		select id, name, created_at from employees order by id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []directory.Employee
	for rows.Next() {
		var emp directory.Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.CreatedAt); err != nil {
			return nil, err
		}
		emp.CreatedAt = emp.CreatedAt.UTC()
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (d *Directory) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `select 1 from employees where id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
