package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/student-records/internal/response"
	"github.com/stemsi/student-records/internal/service"
)

// HealthHandler reports store connectivity and deployment mode.
type HealthHandler struct {
	studentService *service.StudentService
}

func NewHealthHandler(studentService *service.StudentService) *HealthHandler {
	return &HealthHandler{studentService: studentService}
}

// Health godoc
// GET /api/health
// Returns 503 with the same body when the store cannot be reached.
func (h *HealthHandler) Health(c *gin.Context) {
	status := h.studentService.Health(c.Request.Context())
	code := http.StatusOK
	if !status.OK {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, status)
}
