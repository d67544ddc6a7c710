// Package relay delivers submission notifications through a Web3Forms-style
// form relay API: one JSON POST with a public access key, a flat key→value
// payload, and a honeypot field.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client posts submissions to the relay endpoint.
type Client struct {
	endpoint  string
	accessKey string
	http      *http.Client
	log       zerolog.Logger
}

func New(endpoint, accessKey string, log zerolog.Logger) *Client {
	return &Client{
		endpoint:  endpoint,
		accessKey: accessKey,
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

// Send posts the payload and treats anything but {"success": true} as a
// delivery failure.
func (c *Client) Send(ctx context.Context, subject string, fields map[string]string) error {
	body := make(map[string]string, len(fields)+3)
	for k, v := range fields {
		body[k] = v
	}
	body["access_key"] = c.accessKey
	body["subject"] = subject
	body["botcheck"] = "" // honeypot, always empty from the server

	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode relay payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode relay response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		c.log.Warn().Int("status", resp.StatusCode).Str("message", out.Message).Msg("relay rejected submission")
		return fmt.Errorf("relay rejected submission: %s", out.Message)
	}
	return nil
}

// LogOnly is a stand-in relay for local development without an access key.
// It records the notification in the log and reports success.
type LogOnly struct {
	log zerolog.Logger
}

func NewLogOnly(log zerolog.Logger) *LogOnly { return &LogOnly{log: log} }

func (l *LogOnly) Send(_ context.Context, subject string, fields map[string]string) error {
	l.log.Info().Str("subject", subject).Int("fields", len(fields)).Msg("relay disabled, submission logged only")
	return nil
}
