package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON body of every failed request. Error is always a
// human-readable message the client can show as is.
type ErrorBody struct {
	Error     string            `json:"error"`
	Code      ErrCode           `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// SuccessBody is returned by operations with no resource to echo back.
type SuccessBody struct {
	Success bool `json:"success"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// Success sends data as the JSON body with the given status code.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// OK sends {"success": true}.
func OK(c *gin.Context, statusCode int) {
	c.JSON(statusCode, SuccessBody{Success: true})
}

// Fail sends an error response with the code's default message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, buildError(c, code, GetMessage(code), nil))
}

// FailWithMessage sends an error response with a specific message.
func FailWithMessage(c *gin.Context, statusCode int, code ErrCode, message string) {
	c.JSON(statusCode, buildError(c, code, message, nil))
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, message string, fields map[string]string) {
	c.JSON(statusCode, buildError(c, code, message, fields))
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, buildError(c, code, GetMessage(code), nil))
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func buildError(c *gin.Context, code ErrCode, message string, fields map[string]string) ErrorBody {
	if message == "" {
		message = GetMessage(code)
	}
	return ErrorBody{
		Error:     message,
		Code:      code,
		Fields:    fields,
		RequestID: RequestID(c),
	}
}
