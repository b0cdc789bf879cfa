package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"voxsearch/internal/domain"
)

const maxResponseBytes = 1 << 20

// Client posts query text to the relay. It never retries: every Submit is
// exactly one round trip.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

type request struct {
	Text        string `json:"text"`
	SubmittedAt string `json:"submittedAt"`
}

type response struct {
	Result *string `json:"result"`
}

func (c *Client) Submit(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &domain.SubmissionError{Reason: domain.FailureEmpty, Err: domain.ErrEmptySubmission}
	}

	body, err := json.Marshal(request{
		Text:        text,
		SubmittedAt: c.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &domain.SubmissionError{Reason: domain.FailureNetwork, Err: fmt.Errorf("creating request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.SubmissionError{Reason: domain.FailureNetwork, Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &domain.SubmissionError{Reason: domain.FailureNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("submission round trip",
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(started),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.SubmissionError{
			Reason:     domain.FailureServer,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("relay responded %s: %s", resp.Status, strings.TrimSpace(string(respBody))),
		}
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &domain.SubmissionError{Reason: domain.FailureBadResponse, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if parsed.Result == nil {
		return "", &domain.SubmissionError{Reason: domain.FailureBadResponse, StatusCode: resp.StatusCode, Err: errors.New("response has no result field")}
	}

	return *parsed.Result, nil
}
