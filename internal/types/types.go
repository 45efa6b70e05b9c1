package types

// LoginRequest is the body posted to /api/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ErrorResponse is the body the API sends alongside a non-2xx status. Only
// message is guaranteed to be present.
type ErrorResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}
