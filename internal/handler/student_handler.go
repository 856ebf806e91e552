package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/model"
	"github.com/stemsi/student-records/internal/repository"
	"github.com/stemsi/student-records/internal/response"
	"github.com/stemsi/student-records/internal/service"
	"github.com/stemsi/student-records/internal/validator"
)

// StudentHandler serves the student record CRUD endpoints.
type StudentHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// ListStudents godoc
// GET /api/students?q=
// Lists all students newest first, or those whose name contains q or whose id equals q.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	var query model.ListStudentsQuery
	if fields := validator.BindQuery(c, &query); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, "", fields)
		return
	}

	students, err := h.studentService.ListStudents(c.Request.Context(), query.Q)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, students)
}

// GetStudent godoc
// GET /api/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	student, err := h.studentService.GetStudent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// CreateStudent godoc
// POST /api/students
// Creates a student; the store assigns id and created_at.
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	in, ok := bindStudent(c)
	if !ok {
		return
	}

	student, err := h.studentService.CreateStudent(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// UpdateStudent godoc
// PUT /api/students/:id
// Replaces the five business fields; id and created_at never change.
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := bindStudent(c)
	if !ok {
		return
	}

	student, err := h.studentService.UpdateStudent(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// DeleteStudent godoc
// DELETE /api/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.studentService.DeleteStudent(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	response.OK(c, http.StatusOK)
}

// fail maps a service error to its status code and error body.
func (h *StudentHandler) fail(c *gin.Context, err error) {
	var fe *validator.FieldError
	switch {
	case errors.As(err, &fe):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fe.Message, validator.TranslateErrors(fe))
	case errors.Is(err, validator.ErrValidation):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrUnavailable):
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("student store unavailable")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
	default:
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("student request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// parseID reads the :id parameter. A non-integer id names no student, so
// it is answered with 404 like any other unknown id.
func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return 0, false
	}
	return id, true
}

// bindStudent decodes the JSON body. Values of the wrong type are reported
// as validation failures; anything else undecodable is an invalid payload.
func bindStudent(c *gin.Context) (model.StudentInput, bool) {
	var in model.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		if fe := validator.DecodeError(err); fe != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fe.Message, validator.TranslateErrors(fe))
			return in, false
		}
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return in, false
	}
	return in, true
}
