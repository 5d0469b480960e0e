package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Health calls /api/health and returns its status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	data, err := c.get(ctx, "/api/health")
	if err != nil {
		return "", err
	}

	var payload HealthStatus
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return payload.Status, nil
}
