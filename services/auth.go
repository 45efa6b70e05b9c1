package services

import (
	"context"
	"fmt"

	"github.com/portal-login/v2/internal/auth"
	"github.com/portal-login/v2/internal/types"
)

const loginEndpoint = "/api/auth/login"

// AuthService implements auth.Service interface
type AuthService struct {
	apiClient *ApiClient
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(apiClient *ApiClient) *AuthService {
	return &AuthService{
		apiClient: apiClient,
	}
}

// Login posts the credentials to the login endpoint. A response carrying a
// non-success status is returned as a Result, not an error; errors are
// reserved for transport and server failures.
func (s *AuthService) Login(ctx context.Context, creds auth.Credentials) (*auth.Result, error) {
	payload := types.LoginRequest{
		Username: creds.Username,
		Password: creds.Password,
	}

	var result auth.Result
	if err := s.apiClient.PostJSON(ctx, loginEndpoint, payload, &result); err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}

	if result.Succeeded() {
		s.apiClient.Token = result.Token
	}
	return &result, nil
}
