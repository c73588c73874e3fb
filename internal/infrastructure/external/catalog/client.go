// Package catalog implements the HTTP client for the external subject
// catalog. The catalog is read-only reference data: the client layers a
// TTL cache, retries, and a circuit breaker over plain GET endpoints.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	domaincatalog "github.com/campus-connect/mentorship-hub/internal/domain/catalog"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/circuitbreaker"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
	"github.com/campus-connect/mentorship-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the catalog client.
type ClientConfig struct {
	// BaseURL is the catalog service base URL.
	BaseURL string

	// APIKey is the bearer token for authentication (if applicable).
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// CacheTTL bounds staleness of cached subjects. Subjects change once
	// a term, so an hour is a safe default.
	CacheTTL time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:  baseURL,
		Timeout:  10 * time.Second,
		CacheTTL: time.Hour,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the subject catalog HTTP client. It implements
// catalog.Catalog.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	log        *logger.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker

	mu       sync.RWMutex
	subjects map[shared.SubjectID]cachedSubject
	listings map[string]cachedListing
}

type cachedSubject struct {
	subject   domaincatalog.Subject
	fetchedAt time.Time
}

type cachedListing struct {
	subjects  []domaincatalog.Subject
	fetchedAt time.Time
}

// NewClient creates a new catalog client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Hour
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log:      config.Logger.With(logger.Component("catalog-client")),
		retrier:  retry.CatalogRetrier(),
		breaker:  circuitbreaker.New("catalog"),
		subjects: make(map[shared.SubjectID]cachedSubject),
		listings: make(map[string]cachedListing),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// catalog.Catalog
// ─────────────────────────────────────────────────────────────────────────────

// GetSubject returns a catalog record by ID.
func (c *Client) GetSubject(ctx context.Context, id shared.SubjectID) (domaincatalog.Subject, error) {
	if cached, ok := c.cachedSubject(id); ok {
		return cached, nil
	}

	path := "/api/v1/subjects/" + url.PathEscape(string(id))

	var dto SubjectDTO
	if err := c.doRequest(ctx, path, &dto); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return domaincatalog.Subject{}, shared.ErrSubjectNotFound
		}
		return domaincatalog.Subject{}, err
	}

	subject, err := dto.toDomain()
	if err != nil {
		return domaincatalog.Subject{}, err
	}

	c.storeSubject(subject)
	return subject, nil
}

// ListSubjects returns the branch's subjects up to the given term
// inclusive.
func (c *Client) ListSubjects(ctx context.Context, branch shared.Branch, upToTerm shared.Term) ([]domaincatalog.Subject, error) {
	key := string(branch) + ":" + strconv.Itoa(upToTerm.Int())
	if cached, ok := c.cachedListing(key); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("branch", string(branch))
	params.Set("up_to_term", strconv.Itoa(upToTerm.Int()))
	path := "/api/v1/subjects?" + params.Encode()

	var dto SubjectListDTO
	if err := c.doRequest(ctx, path, &dto); err != nil {
		return nil, err
	}

	subjects := make([]domaincatalog.Subject, 0, len(dto.Subjects))
	for _, s := range dto.Subjects {
		subject, err := s.toDomain()
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	c.storeListing(key, subjects)
	return subjects, nil
}

// IsHealthy checks if the catalog service is reachable.
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

// ─────────────────────────────────────────────────────────────────────────────
// HTTP plumbing
// ─────────────────────────────────────────────────────────────────────────────

// doRequest performs a GET with the circuit breaker around the retry loop:
// a whole exhausted retry budget counts as one breaker failure.
func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doSingleRequest(ctx, path, result)
		})
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return shared.WrapError("catalog", "Request", shared.ErrServiceUnavailable, "catalog circuit open", err)
	}
	return err
}

func (c *Client) doSingleRequest(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are worth another attempt.
		return retry.Retryable(shared.WrapError("catalog", "Request", shared.ErrCatalogUnavailable, "request failed", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(shared.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(shared.ErrCatalogRateLimited)
	case resp.StatusCode >= 500:
		return retry.Retryable(shared.NewDomainError("catalog", "Request", shared.ErrCatalogUnavailable,
			fmt.Sprintf("status %d", resp.StatusCode)))
	case resp.StatusCode >= 400:
		var apiErr APIErrorDTO
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return retry.Permanent(&apiErr)
		}
		return retry.Permanent(fmt.Errorf("catalog api error: status %d", resp.StatusCode))
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return retry.Permanent(shared.WrapError("catalog", "Parse", shared.ErrCatalogInvalidResponse, "bad json", err))
		}
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// TTL cache
// ─────────────────────────────────────────────────────────────────────────────

func (c *Client) cachedSubject(id shared.SubjectID) (domaincatalog.Subject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.subjects[id]
	if !ok || time.Since(entry.fetchedAt) > c.config.CacheTTL {
		return domaincatalog.Subject{}, false
	}
	return entry.subject, true
}

func (c *Client) storeSubject(s domaincatalog.Subject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects[s.ID] = cachedSubject{subject: s, fetchedAt: time.Now()}
}

func (c *Client) cachedListing(key string) ([]domaincatalog.Subject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.listings[key]
	if !ok || time.Since(entry.fetchedAt) > c.config.CacheTTL {
		return nil, false
	}
	return entry.subjects, true
}

func (c *Client) storeListing(key string, subjects []domaincatalog.Subject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings[key] = cachedListing{subjects: subjects, fetchedAt: time.Now()}
}

// InvalidateCache drops all cached catalog data.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects = make(map[shared.SubjectID]cachedSubject)
	c.listings = make(map[string]cachedListing)
}
