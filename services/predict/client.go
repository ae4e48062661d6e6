// Package predict talks to the remote PIN-inference backend. All transport,
// status and decode failures are converted to one descriptive error here, at
// the collaborator boundary — they never reach the session engine and never
// affect locally collected records.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
)

// Request is the batch payload: every record of one completed trial plus
// the device/session identity the backend keys its models on.
type Request struct {
	DeviceID  string                `json:"device_id"`
	SessionID string                `json:"session_id"`
	Records   []models.SensorRecord `json:"records"`
}

// Response carries either a predicted code or a backend-side error message.
type Response struct {
	PredictedPIN string `json:"predicted_pin"`
	Error        string `json:"error,omitempty"`
}

// Client posts completed trials to the prediction backend.
type Client struct {
	url      string
	deviceID string
	http     *http.Client
}

// NewClient builds a client from config. Timeout defaults to 10s.
func NewClient(cfg *utils.PredictConfig) *Client {
	timeout := time.Duration(cfg.Predict.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:      cfg.Predict.URL,
		deviceID: cfg.Predict.DeviceID,
		http:     &http.Client{Timeout: timeout},
	}
}

// PredictPIN sends one trial's records and returns the backend's predicted
// code. Every failure mode comes back as a single user-facing error; the
// caller logs it and moves on.
func (c *Client) PredictPIN(ctx context.Context, records []models.SensorRecord) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("prediction: no records to send")
	}

	payload, err := json.Marshal(Request{
		DeviceID:  c.deviceID,
		SessionID: records[0].SessionID,
		Records:   records,
	})
	if err != nil {
		return "", fmt.Errorf("prediction: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("prediction: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("prediction service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("prediction: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prediction service returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("prediction: decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("prediction service error: %s", out.Error)
	}
	return out.PredictedPIN, nil
}
