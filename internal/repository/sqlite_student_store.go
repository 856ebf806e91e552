package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/database"
	"github.com/stemsi/student-records/internal/model"
)

const sqliteStudentColumns = `id, name, age, gender, midterm, final, created_at`

// SQLiteStudentStore persists students in an embedded SQLite file.
// created_at is stored as Unix microseconds.
type SQLiteStudentStore struct {
	db *sql.DB
}

// NewSQLiteStudentStore wraps a migrated SQLite handle.
func NewSQLiteStudentStore(db *sql.DB) *SQLiteStudentStore {
	return &SQLiteStudentStore{db: db}
}

// Name implements StudentStore.
func (r *SQLiteStudentStore) Name() string { return config.BackendSQLite }

// List returns matching students, newest first.
func (r *SQLiteStudentStore) List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error) {
	query := `SELECT ` + sqliteStudentColumns + ` FROM students`
	var args []interface{}

	if matcher, ok := newStudentMatcher(filter.Query); ok {
		query += ` WHERE instr(` + database.SQLiteLowerFunc + `(name), ?) > 0 OR id = ?`
		args = append(args, matcher.needle, matcher.idArg())
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanSQLiteStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// GetByID retrieves a student by ID.
func (r *SQLiteStudentStore) GetByID(ctx context.Context, id int) (*model.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteStudentColumns+` FROM students WHERE id = ?`, id)
	s, err := scanSQLiteStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get student %d: %w", id, err)
	}
	return s, nil
}

// Create inserts a new student.
func (r *SQLiteStudentStore) Create(ctx context.Context, fields model.StudentFields) (*model.Student, error) {
	s := &model.Student{CreatedAt: now()}
	fields.Apply(s)

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO students (name, age, gender, midterm, final, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		s.Name, s.Age, s.Gender, s.Midterm, s.Final, s.CreatedAt.UnixMicro(),
	).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	return s, nil
}

// Update replaces a student's business fields with a single statement.
func (r *SQLiteStudentStore) Update(ctx context.Context, id int, fields model.StudentFields) (*model.Student, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE students SET name = ?, age = ?, gender = ?, midterm = ?, final = ?
		 WHERE id = ?
		 RETURNING `+sqliteStudentColumns,
		fields.Name, fields.Age, fields.Gender, fields.Midterm, fields.Final, id,
	)
	s, err := scanSQLiteStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update student %d: %w", id, err)
	}
	return s, nil
}

// Delete removes a student by ID.
func (r *SQLiteStudentStore) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete student %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLiteStudentStore) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteStudent(row rowScanner) (*model.Student, error) {
	var (
		s       model.Student
		created int64
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Age, &s.Gender, &s.Midterm, &s.Final, &created); err != nil {
		return nil, err
	}
	s.CreatedAt = time.UnixMicro(created).UTC()
	return &s, nil
}
