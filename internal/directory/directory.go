package directory

import (
	"context"
	"errors"
	"time"
)

// Employee is a directory entry. The attendance core treats the id as an
// opaque pre-validated key; existence is checked here, before any scan is
// recorded.
type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound      = errors.New("directory: employee not found")
	ErrAlreadyExists = errors.New("directory: employee already exists")
	ErrInvalidInput  = errors.New("directory: invalid input")
)

// Service defines employee directory operations.
type Service interface {
	Create(ctx context.Context, id, name string) (Employee, error)
	Get(ctx context.Context, id string) (Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Exists(ctx context.Context, id string) (bool, error)
}
