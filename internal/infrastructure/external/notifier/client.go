// Package notifier implements the HTTP client for the notification
// emitter. Delivery is best-effort: command handlers never fail because a
// notice could not be sent, and notices raised at night are deferred to
// the next safe window.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/circuitbreaker"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
	"github.com/campus-connect/mentorship-hub/pkg/retry"
	"github.com/campus-connect/mentorship-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the notifier client.
type ClientConfig struct {
	// BaseURL is the notification emitter base URL.
	BaseURL string

	// APIKey is the bearer token for authentication (if applicable).
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// DeferQuietHours defers notices raised outside 9:00-22:00 campus
	// time instead of sending them immediately.
	DeferQuietHours bool

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:         baseURL,
		Timeout:         5 * time.Second,
		DeferQuietHours: true,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// noticePayload is the emitter's wire format.
type noticePayload struct {
	RecipientAccountID string `json:"recipient_account_id"`
	ActorName          string `json:"actor_name,omitempty"`
	Message            string `json:"message"`
	RedirectHint       string `json:"redirect_hint,omitempty"`
	ScheduledFor       string `json:"scheduled_for,omitempty"`
}

// Client posts notices to the notification emitter. It implements the
// notice sender hook of the event handlers.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	log        *logger.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a new notifier client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log:     config.Logger.With(logger.Component("notifier-client")),
		retrier: retry.NotifierRetrier(),
		breaker: circuitbreaker.New("notifier"),
	}
}

// Send delivers a notice to its recipient. Notices raised during quiet
// hours carry a scheduled_for timestamp so the emitter holds them until
// morning.
func (c *Client) Send(ctx context.Context, notice shared.Notice) error {
	if notice.RecipientAccountID == "" {
		return shared.NewDomainError("notifier", "Emit", shared.ErrEmptyValue, "notice has no recipient")
	}

	payload := noticePayload{
		RecipientAccountID: notice.RecipientAccountID,
		ActorName:          notice.ActorName,
		Message:            notice.Message,
		RedirectHint:       notice.RedirectHint,
	}

	now := timeutil.Now()
	if c.config.DeferQuietHours && !timeutil.IsSafeNotificationTime(now) {
		payload.ScheduledFor = timeutil.NextSafeNotificationTime(now).Format(time.RFC3339)
	}

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.post(ctx, payload)
		})
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return shared.WrapError("notifier", "Emit", shared.ErrServiceUnavailable, "notifier circuit open", err)
	}
	return err
}

// IsHealthy checks if the emitter is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, payload noticePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal notice: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/v1/notices", bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(shared.WrapError("notifier", "Emit", shared.ErrNotifierFailed, "request failed", err))
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(shared.NewDomainError("notifier", "Emit", shared.ErrRateLimited, "emitter rate limit"))
	case resp.StatusCode >= 500:
		return retry.Retryable(shared.NewDomainError("notifier", "Emit", shared.ErrNotifierFailed,
			fmt.Sprintf("status %d", resp.StatusCode)))
	case resp.StatusCode >= 400:
		return retry.Permanent(shared.NewDomainError("notifier", "Emit", shared.ErrNotifierFailed,
			fmt.Sprintf("status %d", resp.StatusCode)))
	}

	return nil
}
