package repository

import (
	"context"
	"sync"

	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/model"
)

// MemoryStudentStore keeps students in process memory. Data lives as long
// as the store value.
type MemoryStudentStore struct {
	mu       sync.RWMutex
	students []model.Student
	nextID   int
}

// NewMemoryStudentStore creates an empty in-memory store.
func NewMemoryStudentStore() *MemoryStudentStore {
	return &MemoryStudentStore{nextID: 1}
}

// Name implements StudentStore.
func (r *MemoryStudentStore) Name() string { return config.BackendMemory }

// List returns matching students, newest first.
func (r *MemoryStudentStore) List(_ context.Context, filter model.StudentFilter) ([]model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matcher, filtered := newStudentMatcher(filter.Query)

	out := make([]model.Student, 0, len(r.students))
	for _, s := range r.students {
		if filtered && !matcher.match(s) {
			continue
		}
		out = append(out, s)
	}
	sortNewestFirst(out)
	return out, nil
}

// GetByID retrieves a student by ID.
func (r *MemoryStudentStore) GetByID(_ context.Context, id int) (*model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	s := r.students[i]
	return &s, nil
}

// Create inserts a new student. Ids come from a monotonic counter, so an
// id freed by Delete is never handed out again by this store.
func (r *MemoryStudentStore) Create(_ context.Context, fields model.StudentFields) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := model.Student{ID: r.nextID, CreatedAt: now()}
	fields.Apply(&s)
	r.nextID++

	r.students = append(r.students, s)
	return &s, nil
}

// Update replaces a student's business fields in place.
func (r *MemoryStudentStore) Update(_ context.Context, id int, fields model.StudentFields) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	fields.Apply(&r.students[i])
	s := r.students[i]
	return &s, nil
}

// Delete removes a student by ID.
func (r *MemoryStudentStore) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	r.students = append(r.students[:i], r.students[i+1:]...)
	return nil
}

// Close implements StudentStore.
func (r *MemoryStudentStore) Close() error { return nil }

// indexOf must be called with r.mu held.
func (r *MemoryStudentStore) indexOf(id int) int {
	for i := range r.students {
		if r.students[i].ID == id {
			return i
		}
	}
	return -1
}
