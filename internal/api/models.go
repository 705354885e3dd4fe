package api

import "github.com/ykarpov/procnode/internal/version"

// HealthData is the health check payload.
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Health status"`
	Message string `json:"message" example:"API is healthy" doc:"Status detail"`
}

// HealthResponse wraps HealthData for huma.
type HealthResponse struct {
	Body HealthData
}

// VersionResponse wraps version info for huma.
type VersionResponse struct {
	Body version.Info
}
