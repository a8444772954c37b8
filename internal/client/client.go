// Package client is the HTTP client for the automation API, used by the
// deskctl CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deskforge/automation/internal/history"
	"github.com/deskforge/automation/internal/rules"
)

// RulePayload is the rule create/update request body.
type RulePayload struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	TriggerType rules.TriggerType `json:"triggerType"`
	Conditions  []rules.Condition `json:"conditions"`
	Actions     []rules.Action    `json:"actions"`
	Expression  *string           `json:"expression,omitempty"`
	IsActive    *bool             `json:"isActive,omitempty"`
}

// EventPayload is the domain-event ingestion body.
type EventPayload struct {
	TriggerType      rules.TriggerType `json:"triggerType"`
	EntityID         string            `json:"entityId"`
	Snapshot         map[string]any    `json:"snapshot"`
	PreviousSnapshot map[string]any    `json:"previousSnapshot,omitempty"`
}

// Client is an HTTP client for the automation API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates an API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListRules retrieves all rules.
func (c *Client) ListRules(ctx context.Context) ([]rules.Rule, error) {
	var resp struct {
		Rules []rules.Rule `json:"rules"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/rules", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rules, nil
}

// GetRule retrieves a single rule by ID.
func (c *Client) GetRule(ctx context.Context, id string) (*rules.Rule, error) {
	var rule rules.Rule
	if err := c.do(ctx, http.MethodGet, "/v1/rules/"+id, nil, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// CreateRule creates a rule and returns the stored definition.
func (c *Client) CreateRule(ctx context.Context, payload RulePayload) (*rules.Rule, error) {
	var rule rules.Rule
	if err := c.do(ctx, http.MethodPost, "/v1/rules", payload, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateRule replaces a rule by ID.
func (c *Client) UpdateRule(ctx context.Context, id string, payload RulePayload) (*rules.Rule, error) {
	var rule rules.Rule
	if err := c.do(ctx, http.MethodPut, "/v1/rules/"+id, payload, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// DeleteRule removes a rule by ID.
func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/rules/"+id, nil, nil)
}

// SendEvent posts a domain event and returns the run report.
func (c *Client) SendEvent(ctx context.Context, payload EventPayload) (*history.RunRecord, error) {
	var record history.RunRecord
	if err := c.do(ctx, http.MethodPost, "/v1/events", payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
