package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/student-records/internal/model"
)

// Store errors shared by every StudentStore implementation.
var (
	ErrNotFound    = errors.New("student not found")
	ErrUnavailable = errors.New("student store unavailable")
)

// StudentStore persists student records. Implementations own the
// authoritative copy of every record they hold.
type StudentStore interface {
	// Name identifies the backend, e.g. "memory" or "postgres".
	Name() string
	// List returns matching students, newest first. Never nil.
	List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error)
	GetByID(ctx context.Context, id int) (*model.Student, error)
	// Create assigns a fresh id and created_at and returns the stored record.
	Create(ctx context.Context, fields model.StudentFields) (*model.Student, error)
	// Update replaces the business fields; id and created_at are kept.
	Update(ctx context.Context, id int, fields model.StudentFields) (*model.Student, error)
	Delete(ctx context.Context, id int) error
	Close() error
}

// HealthChecker is implemented by stores backed by a remote server.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// studentMatcher implements the search rule: case-insensitive substring of
// the name, or exact id when the query is an integer.
type studentMatcher struct {
	needle string
	id     int
	hasID  bool
}

func newStudentMatcher(query string) (studentMatcher, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return studentMatcher{}, false
	}
	m := studentMatcher{needle: strings.ToLower(q)}
	if id, err := strconv.Atoi(q); err == nil {
		m.id, m.hasID = id, true
	}
	return m, true
}

func (m studentMatcher) match(s model.Student) bool {
	if m.hasID && s.ID == m.id {
		return true
	}
	return strings.Contains(strings.ToLower(s.Name), m.needle)
}

// idArg returns the id to compare against in SQL, or nil when the query
// is not an integer.
func (m studentMatcher) idArg() *int {
	if !m.hasID {
		return nil
	}
	id := m.id
	return &id
}

// sortNewestFirst orders by created_at descending, then id descending.
func sortNewestFirst(students []model.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// now is the creation timestamp source, truncated to the precision every
// backend can store so a record reads back exactly as it was returned.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
