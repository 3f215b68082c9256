package seeder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Client wraps the service HTTP API for seeding runs.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the given base URL.
func NewClient(cfg *Config) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

// Health checks the /healthz endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %d", resp.StatusCode())
	}
	return nil
}

// CreateCourse registers a catalog entry via POST /courses.
func (c *Client) CreateCourse(ctx context.Context, course Course) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(course).Post("/courses")
	if err != nil {
		return fmt.Errorf("create course %q: %w", course.Name, err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("create course %q: unexpected status %d: %s", course.Name, resp.StatusCode(), resp.String())
	}
	return nil
}

// Submit posts one chapter completion. The returned status string is the
// service's ack: accepted or duplicate.
func (c *Client) Submit(ctx context.Context, sub Submission) (string, error) {
	var ack struct {
		Status string `json:"status"`
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(sub).SetResult(&ack).Post("/submissions")
	if err != nil {
		return "", fmt.Errorf("submit %s: %w", sub.SubmissionID, err)
	}
	switch resp.StatusCode() {
	case http.StatusAccepted, http.StatusOK:
		return ack.Status, nil
	default:
		return "", fmt.Errorf("submit %s: unexpected status %d: %s", sub.SubmissionID, resp.StatusCode(), resp.String())
	}
}

// Summary fetches the analytics document for a learner.
func (c *Client) Summary(ctx context.Context, userID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/analytics/" + userID)
	if err != nil {
		return nil, fmt.Errorf("summary %s: %w", userID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("summary %s: unexpected status %d", userID, resp.StatusCode())
	}
	return out, nil
}

// Leaderboard fetches the top n entries.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", n)).
		SetResult(&out).
		Get("/leaderboard")
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("leaderboard: unexpected status %d", resp.StatusCode())
	}
	return out, nil
}
