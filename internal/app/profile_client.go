package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ProfileClient asks the student profile collaborator whether a student is
// academically active (not on leave).
type ProfileClient struct {
	baseURL string
	http    *http.Client
}

func NewProfileClient(baseURL string, timeout time.Duration) *ProfileClient {
	return &ProfileClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *ProfileClient) IsAcademicallyActive(ctx context.Context, studentID uuid.UUID) (bool, error) {
	endpoint := fmt.Sprintf("%s/v1/students/%s/profile", c.baseURL, url.PathEscape(studentID.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build profile request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call profile service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("profile service returned status %d", resp.StatusCode)
	}

	var body struct {
		AcademicallyActive bool `json:"academically_active"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode profile response: %w", err)
	}
	return body.AcademicallyActive, nil
}
