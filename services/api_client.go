package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/portal-login/v2/internal/auth"
	"github.com/portal-login/v2/internal/pkg/logger"
	"github.com/portal-login/v2/internal/types"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 1 << 20

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ApiClient struct {
	BaseURL string
	Token   string

	client httpClient
}

// NewApiClient returns a client for baseURL. A nil client means http.DefaultClient;
// timeouts come from the request context.
func NewApiClient(baseURL string, client httpClient) *ApiClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ApiClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// prepareRequest creates a new HTTP request with proper headers for JSON data
func (c *ApiClient) prepareRequest(ctx context.Context, method, endpoint string, payload any) (*http.Request, error) {
	url := c.BaseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request data: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	return req, nil
}

// PostJSON posts payload to endpoint and decodes the JSON response into out.
// A non-2xx status is reported as *auth.ServerError, carrying the body's
// message when there is one.
func (c *ApiClient) PostJSON(ctx context.Context, endpoint string, payload, out any) error {
	return c.CallAPI(ctx, endpoint, http.MethodPost, payload, out)
}

func (c *ApiClient) CallAPI(ctx context.Context, endpoint, method string, payload, out any) error {
	req, err := c.prepareRequest(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}

	logger.Debugf(ctx, "%s %s request_id=%s", method, req.URL.Path, req.Header.Get("X-Request-ID"))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serverErr := &auth.ServerError{StatusCode: resp.StatusCode}
		var errResp types.ErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil {
			serverErr.Message = errResp.Message
		} else {
			serverErr.Err = errors.New("API call failed with status: " + resp.Status)
		}
		return serverErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return nil
}
