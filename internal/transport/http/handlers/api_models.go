package handlers

import "time"

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type twoFactorStartRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type twoFactorVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type twoFactorCompleteRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PersonResponse is the authenticated person as returned to clients.
type PersonResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// StatusResponse is a generic machine-readable outcome message.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
