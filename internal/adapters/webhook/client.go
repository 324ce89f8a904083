// Package webhook implements the client for the external business webhook.
// Every call phase is reported as a single POST carrying a small tagged
// payload; the response is raw text that may or may not be JSON.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ClareAI/astra-call-bridge/pkg/logger"
	"go.uber.org/zap"
)

// Route tags the call phase a notification belongs to. The numbering is
// part of the webhook wire contract.
type Route string

const (
	RouteCallStart   Route = "1"
	RouteCallEnd     Route = "2"
	RouteQuestion    Route = "3"
	RouteNegotiation Route = "4"
)

// Failure indicates the webhook round-trip did not produce a usable
// response: either the request itself failed or the endpoint returned a
// non-success status. The client never retries.
type Failure struct {
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("webhook request failed: %v", f.Err)
	}
	return fmt.Sprintf("webhook returned status %d", f.StatusCode)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Notification is the request body sent for every call phase.
type Notification struct {
	Route Route  `json:"route"`
	Data1 string `json:"data1"`
	Data2 string `json:"data2"`
	SID   string `json:"sid"`
}

// Reply is the decoded webhook response. Message may be empty when the
// endpoint returned JSON without a message field; callers fall back to
// their own defaults in that case.
type Reply struct {
	Message string
	Thread  string
}

// Client posts tagged notifications to one configured webhook URL.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// NewClient creates a webhook client with a bounded request timeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify sends exactly one notification and returns the raw response body.
// A non-success status or transport error surfaces as *Failure.
func (c *Client) Notify(ctx context.Context, route Route, data1, data2, callID string) (string, error) {
	payload := Notification{
		Route: route,
		Data1: data1,
		Data2: data2,
		SID:   callID,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Base().Debug("sending webhook notification",
		zap.String("route", string(route)),
		zap.String("call_id", callID))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &Failure{Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Failure{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Base().Warn("webhook returned non-success status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("route", string(route)),
			zap.String("call_id", callID))
		return "", &Failure{StatusCode: resp.StatusCode}
	}

	logger.Base().Debug("webhook notification delivered",
		zap.String("route", string(route)),
		zap.String("call_id", callID),
		zap.Int("response_bytes", len(bodyBytes)))

	return string(bodyBytes), nil
}

// ParseReply decodes a webhook response body. It first attempts a
// structured decode; when the body is not JSON, the raw trimmed text
// becomes the message. This two-tier contract is deliberate: the
// webhook side is free to answer with either form.
func ParseReply(raw string) Reply {
	var decoded struct {
		Message      string `json:"message"`
		FirstMessage string `json:"firstMessage"`
		Thread       string `json:"thread"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		message := decoded.Message
		if message == "" {
			message = decoded.FirstMessage
		}
		return Reply{Message: message, Thread: decoded.Thread}
	}
	return Reply{Message: strings.TrimSpace(raw)}
}
