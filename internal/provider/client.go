// Package provider wraps the outbound voice-call HTTP API. It exposes exactly
// the two operations the dialer needs — start a call, read its status — and
// returns failures as data so the orchestrator can decide how to react.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	logger     *slog.Logger
	maxRetries int
	retryBase  time.Duration
}

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "provider"),
		maxRetries: 3,
		retryBase:  500 * time.Millisecond,
	}
}

type StartCallInput struct {
	ToNumber       string
	AgentID        string
	FromNumber     string
	Variables      map[string]string
	RingTimeoutSec int
}

// StartCallResult reports whether a call was created. A failed start is not
// an error in the Go sense: the orchestrator reads Success/Error and moves on.
type StartCallResult struct {
	Success bool
	CallID  string
	Raw     map[string]any
	Error   string
}

type startCallRequest struct {
	ToNumber         string            `json:"to_number"`
	AgentID          string            `json:"agent_id"`
	FromNumber       string            `json:"from_number,omitempty"`
	DynamicVariables map[string]string `json:"dynamic_variables"`
	RingTimeout      int               `json:"ring_timeout,omitempty"`
}

// StartCall issues the call-creation request. Transient failures (network
// errors, 5xx) are retried with exponential backoff and jitter; a non-2xx
// response or a 2xx body without a call id is definitive and not retried.
func (c *Client) StartCall(ctx context.Context, in StartCallInput) StartCallResult {
	body, err := json.Marshal(startCallRequest{
		ToNumber:         in.ToNumber,
		AgentID:          in.AgentID,
		FromNumber:       in.FromNumber,
		DynamicVariables: in.Variables,
		RingTimeout:      in.RingTimeoutSec,
	})
	if err != nil {
		return StartCallResult{Error: fmt.Sprintf("encode request: %v", err)}
	}

	url := c.baseURL + "/v2/create-phone-call"

	var lastErr string
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return StartCallResult{Error: ctx.Err().Error()}
			case <-time.After(backoff(c.retryBase, attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return StartCallResult{Error: fmt.Sprintf("build request: %v", err)}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Sprintf("start call: %v", err)
			c.logger.Warn("start call request failed", "attempt", attempt+1, "error", err)
			continue
		}

		raw, status := readJSON(resp)
		if status >= 500 {
			lastErr = fmt.Sprintf("start call: provider returned %d", status)
			c.logger.Warn("start call server error", "attempt", attempt+1, "status", status)
			continue
		}
		if status < 200 || status >= 300 {
			return StartCallResult{Raw: raw, Error: fmt.Sprintf("start call: provider returned %d", status)}
		}

		callID := extractCallID(raw)
		if callID == "" {
			return StartCallResult{Raw: raw, Error: "start call: response has no call id"}
		}
		return StartCallResult{Success: true, CallID: callID, Raw: raw}
	}

	return StartCallResult{Error: lastErr}
}

// GetCallStatus performs a single best-effort status read. Errors come back
// in the result, never as a Go error: the polling loop treats them as
// transient and tries again on the next tick.
func (c *Client) GetCallStatus(ctx context.Context, callID string) CallStatus {
	url := c.baseURL + "/v2/get-call/" + callID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CallStatus{Error: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return CallStatus{Error: fmt.Sprintf("get call: %v", err)}
	}

	raw, status := readJSON(resp)
	if status < 200 || status >= 300 {
		return CallStatus{Raw: raw, Error: fmt.Sprintf("get call: provider returned %d", status)}
	}
	return newCallStatus(raw)
}

// extractCallID probes the known response shapes: top-level call_id, nested
// data.call_id, or a bare id field.
func extractCallID(raw map[string]any) string {
	if id, ok := raw["call_id"].(string); ok && id != "" {
		return id
	}
	if data, ok := raw["data"].(map[string]any); ok {
		if id, ok := data["call_id"].(string); ok && id != "" {
			return id
		}
	}
	if id, ok := raw["id"].(string); ok && id != "" {
		return id
	}
	return ""
}

func readJSON(resp *http.Response) (map[string]any, int) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode
	}
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	return raw, resp.StatusCode
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(d/2))) - d/4
	return d + jitter
}
