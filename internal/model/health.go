package model

// Deployment modes reported by the health endpoint.
const (
	ModeDemo       = "demo"
	ModeProduction = "production"
)

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	OK       bool   `json:"ok"`
	Mode     string `json:"mode"`
	Database string `json:"database"`
	Message  string `json:"message"`
}
