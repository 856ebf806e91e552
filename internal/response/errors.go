package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrRouteNotFound ErrCode = "ROUTE_NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
	ErrInternal           ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "All fields required"
	case ErrInvalidPayload:
		return "Request body must be a JSON object"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Student not found"
	case ErrRouteNotFound:
		return "Route not found"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests, please try again later"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrServiceUnavailable:
		return "Database is unavailable, please try again later"
	case ErrInternal:
		return "Internal server error"
	default:
		return "Unexpected error"
	}
}
