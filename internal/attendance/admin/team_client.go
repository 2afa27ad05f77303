package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/attendsure/attendance-authority/pkg/logger"
)

// HTTPTeamClient queries the external team-membership service over
// HTTP with a 10s timeout and a {success, data} JSON envelope.
type HTTPTeamClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewHTTPTeamClient creates a new team-membership client.
func NewHTTPTeamClient(baseURL string, log *logger.Logger) *HTTPTeamClient {
	return &HTTPTeamClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

type membershipResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Total int `json:"total"`
	} `json:"data"`
}

// IsMember reports whether userID has a membership row in teamID,
// querying GET {baseURL}/teams/{teamID}/memberships?userId=... The
// caller is an admin iff the membership count comes back non-zero.
func (c *HTTPTeamClient) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/teams/%s/memberships?userId=%s", c.baseURL, url.PathEscape(teamID), url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build membership request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("team_id", teamID).Msg("failed to call team service")
		return false, fmt.Errorf("failed to call team service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("team_id", teamID).Msg("membership lookup failed")
		return false, fmt.Errorf("membership lookup failed with status %d", resp.StatusCode)
	}

	var body membershipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode membership response: %w", err)
	}

	return body.Data.Total > 0, nil
}
