package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/model"
	"github.com/stemsi/student-records/internal/repository"
	"github.com/stemsi/student-records/internal/response"
	"github.com/stemsi/student-records/internal/service"
	"github.com/stemsi/student-records/internal/validator"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// unreachableStore is a store whose connectivity check always fails.
type unreachableStore struct {
	*repository.MemoryStudentStore
}

func (unreachableStore) Name() string { return "postgres" }

func (unreachableStore) Ping(context.Context) error {
	return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

func newTestEngine(store repository.StudentStore) *gin.Engine {
	svc := service.NewStudentService(store, time.Second, zerolog.Nop())
	students := NewStudentHandler(svc, zerolog.Nop())
	health := NewHealthHandler(svc)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.GET("/api/health", health.Health)
	r.GET("/api/students", students.ListStudents)
	r.GET("/api/students/:id", students.GetStudent)
	r.POST("/api/students", students.CreateStudent)
	r.PUT("/api/students/:id", students.UpdateStudent)
	r.DELETE("/api/students/:id", students.DeleteStudent)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStudentLifecycleOverHTTP(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	w := do(t, r, http.MethodPost, "/api/students",
		`{"name":"Amy","age":21,"gender":"F","midterm":70,"final":80}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Student](t, w)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.Equal(t, "Amy", created.Name)
	require.Equal(t, 21, created.Age)

	path := "/api/students/" + strconv.Itoa(created.ID)

	w = do(t, r, http.MethodPut, path,
		`{"name":"Amy","age":22,"gender":"F","midterm":70,"final":80}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Student](t, w)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, 22, updated.Age)
	require.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	w = do(t, r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	w = do(t, r, http.MethodGet, path, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode[response.ErrorBody](t, w)
	require.Equal(t, response.ErrNotFound, body.Code)
	require.Equal(t, "Student not found", body.Error)
	require.NotEmpty(t, body.RequestID)
}

func TestListStudentsSearch(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	for _, name := range []string{"John Doe", "Jane Roe"} {
		w := do(t, r, http.MethodPost, "/api/students",
			`{"name":"`+name+`","age":20,"gender":"M","midterm":0,"final":0}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(t, r, http.MethodGet, "/api/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]model.Student](t, w)
	require.Len(t, all, 2)
	require.Equal(t, "Jane Roe", all[0].Name, "newest first")

	w = do(t, r, http.MethodGet, "/api/students?q=jane", "")
	found := decode[[]model.Student](t, w)
	require.Len(t, found, 1)
	require.Equal(t, 2, found[0].ID)

	w = do(t, r, http.MethodGet, "/api/students?q=2", "")
	found = decode[[]model.Student](t, w)
	require.Len(t, found, 1)
	require.Equal(t, "Jane Roe", found[0].Name)

	w = do(t, r, http.MethodGet, "/api/students?q=xyz", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestListStudentsRejectsLongQuery(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	q := bytes.Repeat([]byte("a"), 101)
	w := do(t, r, http.MethodGet, "/api/students?q="+string(q), "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[response.ErrorBody](t, w)
	require.Equal(t, response.ErrValidation, body.Code)
	require.Contains(t, body.Fields, "q")
}

func TestCreateStudentValidation(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	tests := []struct {
		name  string
		body  string
		code  response.ErrCode
		field string
	}{
		{"name reported before age", `{"gender":"F","midterm":1,"final":1}`, response.ErrValidation, "name"},
		{"blank name", `{"name":"   ","age":1,"gender":"F","midterm":1,"final":1}`, response.ErrValidation, "name"},
		{"missing final", `{"name":"Amy","age":1,"gender":"F","midterm":1}`, response.ErrValidation, "final"},
		{"wrong type", `{"name":"Amy","age":"x","gender":"F","midterm":1,"final":1}`, response.ErrValidation, "age"},
		{"malformed json", `{"name":`, response.ErrInvalidPayload, ""},
		{"empty body", ``, response.ErrInvalidPayload, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/students", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			body := decode[response.ErrorBody](t, w)
			require.Equal(t, tt.code, body.Code)
			require.NotEmpty(t, body.Error)
			if tt.field != "" {
				require.Contains(t, body.Fields, tt.field)
				require.Len(t, body.Fields, 1)
			}
		})
	}

	w := do(t, r, http.MethodGet, "/api/students", "")
	require.JSONEq(t, `[]`, w.Body.String(), "nothing stored after rejected submissions")
}

func TestCreateStudentAcceptsOutOfRangeNumbers(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	w := do(t, r, http.MethodPost, "/api/students",
		`{"name":"Amy","age":200,"gender":"female","midterm":105,"final":-1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	s := decode[model.Student](t, w)
	require.Equal(t, 200, s.Age)
	require.Equal(t, 105.0, s.Midterm)
	require.Equal(t, -1.0, s.Final)
	require.Equal(t, "female", s.Gender)
}

func TestCreateStudentAcceptsZeros(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	w := do(t, r, http.MethodPost, "/api/students",
		`{"name":"Zed","age":0,"gender":"M","midterm":0,"final":0}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	s := decode[model.Student](t, w)
	require.Zero(t, s.Age)
	require.Zero(t, s.Midterm)
}

func TestStudentRoutesTreatNonIntegerIDsAsMissing(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := do(t, r, method, "/api/students/abc",
			`{"name":"Amy","age":21,"gender":"F","midterm":70,"final":80}`)
		require.Equal(t, http.StatusNotFound, w.Code, method)
		body := decode[response.ErrorBody](t, w)
		require.Equal(t, response.ErrNotFound, body.Code)
		require.Equal(t, "Student not found", body.Error)
	}
}

func TestUpdateAndDeleteMissingStudent(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	w := do(t, r, http.MethodPut, "/api/students/999",
		`{"name":"Amy","age":22,"gender":"F","midterm":70,"final":80}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/students/999", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnavailableStoreReturns503(t *testing.T) {
	r := newTestEngine(unreachableStore{repository.NewMemoryStudentStore()})

	w := do(t, r, http.MethodGet, "/api/students", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[response.ErrorBody](t, w)
	require.Equal(t, response.ErrServiceUnavailable, body.Code)

	w = do(t, r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	health := decode[model.HealthStatus](t, w)
	require.False(t, health.OK)
	require.Equal(t, model.ModeProduction, health.Mode)
	require.Equal(t, "postgres", health.Database)
}

func TestHealthInDemoMode(t *testing.T) {
	r := newTestEngine(repository.NewMemoryStudentStore())

	w := do(t, r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[model.HealthStatus](t, w)
	require.True(t, health.OK)
	require.Equal(t, model.ModeDemo, health.Mode)
	require.Equal(t, "memory", health.Database)
	require.NotEmpty(t, health.Message)
}
