package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemory implements Service for tests and single-node deployments.
type InMemory struct {
	mu   sync.RWMutex
	emps map[string]Employee
}

// NewInMemory creates an empty directory.
func NewInMemory() *InMemory {
	return &InMemory{emps: make(map[string]Employee)}
}

var _ Service = (*InMemory)(nil)

func (s *InMemory) Create(ctx context.Context, id, name string) (Employee, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return Employee{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emps[id]; ok {
		return Employee{}, ErrAlreadyExists
	}
	emp := Employee{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	s.emps[id] = emp
	return emp, nil
}

func (s *InMemory) Get(ctx context.Context, id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.emps[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return emp, nil
}

func (s *InMemory) List(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Employee, 0, len(s.emps))
	for _, emp := range s.emps {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.emps[id]
	return ok, nil
}
