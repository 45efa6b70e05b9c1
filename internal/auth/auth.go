package auth

import (
	"context"
	"encoding/json"
	"fmt"
)

// StatusSuccess is the only status the login endpoint uses for an accepted login.
const StatusSuccess = "success"

// Service defines the authentication operations
type Service interface {
	Login(ctx context.Context, creds Credentials) (*Result, error)
}

// Credentials contains login request data
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Complete reports whether both fields are filled in.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Result is the decoded body of a login response.
type Result struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the server accepted the credentials.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// User represents authenticated user data. Fields the client does not know
// about are kept in raw and written back unchanged by MarshalJSON.
type User struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`

	raw json.RawMessage
}

type userFields struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var f userFields
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode user: %w", err)
	}
	*u = User{Username: f.Username, Email: f.Email, Role: f.Role}
	u.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	if len(u.raw) > 0 {
		return u.raw, nil
	}
	return json.Marshal(userFields{Username: u.Username, Email: u.Email, Role: u.Role})
}

// DisplayName is the best human readable name the server gave us.
func (u User) DisplayName() string {
	switch {
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	default:
		return "unknown user"
	}
}

// ServerError is returned when the login endpoint answers with a non-2xx
// status. Message holds the server-supplied message, if the body had one.
type ServerError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server responded %d", e.StatusCode)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
