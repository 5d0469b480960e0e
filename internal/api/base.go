package api

import "time"

// DefaultBaseURL is the content service the CLI talks to when nothing is configured.
const DefaultBaseURL = "http://localhost:8420"

// NewDefaultClient builds a client pointed at the default service URL.
func NewDefaultClient(apiKey string, timeout ...time.Duration) *Client {
	return NewClient(DefaultBaseURL, apiKey, timeout...)
}
