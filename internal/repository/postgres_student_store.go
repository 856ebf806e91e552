package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/model"
)

const pgStudentColumns = `id, name, age, gender, midterm, final, created_at`

// PostgresStudentStore handles student data access on PostgreSQL.
type PostgresStudentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStudentStore creates a new PostgresStudentStore.
func NewPostgresStudentStore(pool *pgxpool.Pool) *PostgresStudentStore {
	return &PostgresStudentStore{pool: pool}
}

// Name implements StudentStore.
func (r *PostgresStudentStore) Name() string { return config.BackendPostgres }

// Ping checks that a connection can be acquired and used.
func (r *PostgresStudentStore) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// List retrieves students, newest first, optionally filtered by name or id.
func (r *PostgresStudentStore) List(ctx context.Context, filter model.StudentFilter) ([]model.Student, error) {
	query := `SELECT ` + pgStudentColumns + ` FROM students`
	var args []interface{}

	if matcher, ok := newStudentMatcher(filter.Query); ok {
		query += ` WHERE strpos(lower(name), $1) > 0 OR id = $2`
		args = append(args, matcher.needle, matcher.idArg())
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPgError("list students", err)
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Age, &s.Gender, &s.Midterm, &s.Final, &s.CreatedAt); err != nil {
			return nil, classifyPgError("scan student", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError("list students", err)
	}
	return students, nil
}

// GetByID retrieves a student by ID.
func (r *PostgresStudentStore) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+pgStudentColumns+` FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Age, &s.Gender, &s.Midterm, &s.Final, &s.CreatedAt)
	if err != nil {
		return nil, classifyPgError(fmt.Sprintf("get student %d", id), err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// Create inserts a new student.
func (r *PostgresStudentStore) Create(ctx context.Context, fields model.StudentFields) (*model.Student, error) {
	s := &model.Student{CreatedAt: now()}
	fields.Apply(s)

	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (name, age, gender, midterm, final, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		s.Name, s.Age, s.Gender, s.Midterm, s.Final, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return nil, classifyPgError("insert student", err)
	}
	return s, nil
}

// Update replaces a student's business fields with a single statement.
func (r *PostgresStudentStore) Update(ctx context.Context, id int, fields model.StudentFields) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`UPDATE students SET name = $1, age = $2, gender = $3, midterm = $4, final = $5
		 WHERE id = $6
		 RETURNING `+pgStudentColumns,
		fields.Name, fields.Age, fields.Gender, fields.Midterm, fields.Final, id,
	).Scan(&s.ID, &s.Name, &s.Age, &s.Gender, &s.Midterm, &s.Final, &s.CreatedAt)
	if err != nil {
		return nil, classifyPgError(fmt.Sprintf("update student %d", id), err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// Delete removes a student by ID.
func (r *PostgresStudentStore) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return classifyPgError(fmt.Sprintf("delete student %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases every pooled connection.
func (r *PostgresStudentStore) Close() error {
	r.pool.Close()
	return nil
}

// classifyPgError maps driver errors onto the store's error kinds.
func classifyPgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
