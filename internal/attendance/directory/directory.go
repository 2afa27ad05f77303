// Package directory provides the HTTP client for the external user/email
// directory service consulted by create-employee: a new employee needs
// a login identity before its employee document can be written, and if
// the document write fails the directory entry must be rolled back.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/attendsure/attendance-authority/pkg/logger"
)

// UserClient talks to the external directory service.
type UserClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewUserClient creates a new directory client.
func NewUserClient(baseURL string, log *logger.Logger) *UserClient {
	return &UserClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

// CreateUserRequest is the payload for provisioning a directory entry for
// a new employee.
type CreateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DirectoryUser is the directory service's view of a provisioned user.
type DirectoryUser struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// CreateUser provisions a directory entry for a new employee. The
// returned ID becomes the employee's opaque identity for this service.
func (c *UserClient) CreateUser(ctx context.Context, req *CreateUserRequest) (*DirectoryUser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/users", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info().Str("email", req.Email).Msg("creating directory entry for new employee")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to call directory service")
		return nil, fmt.Errorf("failed to call directory service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		c.logger.Error().Int("status", resp.StatusCode).Interface("error", errResp).Msg("directory user creation failed")
		return nil, fmt.Errorf("directory user creation failed with status %d: %v", resp.StatusCode, errResp)
	}

	var response struct {
		Success bool          `json:"success"`
		Data    DirectoryUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info().Str("user_id", response.Data.ID).Str("email", response.Data.Email).Msg("directory entry created")
	return &response.Data, nil
}

// DeleteUser removes a directory entry, used to roll back CreateUser
// when the subsequent employee document write fails.
func (c *UserClient) DeleteUser(ctx context.Context, userID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/users/"+userID, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Warn().Str("user_id", userID).Msg("rolling back directory entry after employee creation failure")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to delete directory entry")
		return fmt.Errorf("failed to delete directory entry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		c.logger.Error().Int("status", resp.StatusCode).Msg("directory entry deletion failed")
		return fmt.Errorf("directory entry deletion failed with status %d", resp.StatusCode)
	}

	c.logger.Info().Str("user_id", userID).Msg("directory entry deleted (rollback)")
	return nil
}
