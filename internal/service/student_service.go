package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/model"
	"github.com/stemsi/student-records/internal/repository"
	"github.com/stemsi/student-records/internal/validator"
)

// StudentService validates submissions and delegates persistence to the
// configured store. It holds no copies of student data.
type StudentService struct {
	store   repository.StudentStore
	timeout time.Duration
	log     zerolog.Logger
}

// NewStudentService creates a new StudentService. A zero timeout leaves
// store calls bounded only by the request context.
func NewStudentService(store repository.StudentStore, timeout time.Duration, log zerolog.Logger) *StudentService {
	return &StudentService{
		store:   store,
		timeout: timeout,
		log:     log.With().Str("component", "student_service").Str("store", store.Name()).Logger(),
	}
}

// ListStudents returns every student, or those matching query, newest first.
func (s *StudentService) ListStudents(ctx context.Context, query string) ([]model.Student, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}
	return s.store.List(ctx, model.StudentFilter{Query: query})
}

// GetStudent retrieves a student by ID.
func (s *StudentService) GetStudent(ctx context.Context, id int) (*model.Student, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// CreateStudent validates in and stores it as a new student.
func (s *StudentService) CreateStudent(ctx context.Context, in model.StudentInput) (*model.Student, error) {
	fields, err := validator.ValidateStudent(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	student, err := s.store.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}

	s.log.Debug().Int("student_id", student.ID).Msg("student created")
	return student, nil
}

// UpdateStudent validates in and replaces the business fields of student id.
func (s *StudentService) UpdateStudent(ctx context.Context, id int, in model.StudentInput) (*model.Student, error) {
	fields, err := validator.ValidateStudent(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.checkStore(ctx); err != nil {
		return nil, err
	}

	student, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Int("student_id", id).Msg("student updated")
	return student, nil
}

// DeleteStudent removes a student by ID.
func (s *StudentService) DeleteStudent(ctx context.Context, id int) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.checkStore(ctx); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Debug().Int("student_id", id).Msg("student deleted")
	return nil
}

// Health reports whether the store is reachable.
func (s *StudentService) Health(ctx context.Context) model.HealthStatus {
	name := s.store.Name()
	status := model.HealthStatus{
		OK:       true,
		Mode:     model.ModeProduction,
		Database: name,
	}
	if name == config.BackendMemory {
		status.Mode = model.ModeDemo
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.checkStore(ctx); err != nil {
		status.OK = false
		status.Message = fmt.Sprintf("%s store unreachable", name)
		return status
	}

	switch {
	case status.Mode == model.ModeDemo:
		status.Message = "Running in demo mode - no database required"
	case name == config.BackendSQLite:
		status.Message = "Using embedded sqlite database"
	default:
		status.Message = fmt.Sprintf("Connected to %s", name)
	}
	return status
}

// checkStore runs the store's connectivity check, when it has one.
func (s *StudentService) checkStore(ctx context.Context) error {
	hc, ok := s.store.(repository.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("store connectivity check failed")
		if errors.Is(err, repository.ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

func (s *StudentService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
