// Package dupr talks to the external DUPR player-rating service. The
// engine's only outbound call is the irrevocable submission of an official
// match result.
package dupr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/openrally/matchplay/models"
	"github.com/openrally/matchplay/storage"
)

// ErrSubmissionDisabled is returned by the disabled client when no DUPR
// credentials are configured.
var ErrSubmissionDisabled = errors.New("dupr submission is not configured")

// MatchSubmission is the payload sent to DUPR and archived for audit.
type MatchSubmission struct {
	IdempotencyKey string             `json:"idempotency_key"`
	MatchID        int                `json:"match_id"`
	DivisionID     int                `json:"division_id"`
	Side1Players   []int              `json:"side1_players"`
	Side2Players   []int              `json:"side2_players"`
	Games          []models.GameScore `json:"games"`
	WinnerTeamID   int                `json:"winner_team_id"`
	SubmittedAt    time.Time          `json:"submitted_at"`
}

type Client interface {
	SubmitMatch(ctx context.Context, sub MatchSubmission) error
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// Archive, when set, receives a JSON copy of every successful
	// submission. Archive failures are logged, never surfaced.
	Archive storage.FileUploader
}

type httpClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	archive storage.FileUploader
	logger  *slog.Logger
}

func NewHTTPClient(cfg ClientConfig, logger *slog.Logger) (Client, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, errors.New("invalid DUPR configuration: base URL and API key are required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &httpClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		archive: cfg.Archive,
		logger:  logger,
	}, nil
}

func (c *httpClient) SubmitMatch(ctx context.Context, sub MatchSubmission) error {
	if sub.IdempotencyKey == "" {
		sub.IdempotencyKey = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode dupr submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/matches", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build dupr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Idempotency-Key", sub.IdempotencyKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dupr request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("dupr rejected match %d: status %d: %s", sub.MatchID, resp.StatusCode, detail)
	}

	c.archiveSubmission(ctx, sub, body)
	return nil
}

func (c *httpClient) archiveSubmission(ctx context.Context, sub MatchSubmission, body []byte) {
	if c.archive == nil {
		return
	}
	key := fmt.Sprintf("dupr-submissions/%d/%s.json", sub.DivisionID, sub.IdempotencyKey)
	if _, err := c.archive.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		c.logger.Error("failed to archive dupr submission",
			slog.Int("match_id", sub.MatchID), slog.Any("error", err))
	}
}

// NewDisabledClient returns a client that rejects every submission; used
// when the deployment has no DUPR credentials.
func NewDisabledClient() Client {
	return disabledClient{}
}

type disabledClient struct{}

func (disabledClient) SubmitMatch(ctx context.Context, sub MatchSubmission) error {
	return ErrSubmissionDisabled
}
