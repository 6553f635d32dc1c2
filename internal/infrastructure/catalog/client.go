package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stockmatch/backend/internal/domain"
)

const (
	defaultRequestsPerSecond = 5.0
	defaultBurst             = 10
	defaultMaxAttempts       = 3
	userAgent                = "stockmatch/1.0"
)

// Client reads catalog snapshots from a remote inventory API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	maxAttempts int
	backoff     func(attempt int) time.Duration
	logger      zerolog.Logger
}

// NewClient creates an inventory API client limited to requestsPerSecond
func NewClient(baseURL, apiKey string, requestsPerSecond float64, logger zerolog.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), defaultBurst),
		maxAttempts: defaultMaxAttempts,
		backoff:     exponentialBackoff,
		logger:      logger,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return c.httpClient.Do(req)
}

// ItemsInCategory fetches every item in category. An unknown category (404)
// is an empty snapshot; transport errors, 429 and 5xx are retried.
func (c *Client) ItemsInCategory(ctx context.Context, category string) ([]domain.CatalogItem, error) {
	params := url.Values{}
	params.Set("category", strings.TrimSpace(category))
	reqURL := fmt.Sprintf("%s/v1/items?%s", c.baseURL, params.Encode())

	log := c.logger.With().Str("category", category).Logger()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrCatalogUnavailable, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("inventory request failed")
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var payload InventoryResponse
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, fmt.Errorf("%w: decode inventory response: %v", domain.ErrCatalogUnavailable, err)
			}
			items := MapToCatalogItems(&payload)
			log.Debug().Int("items", len(items)).Msg("inventory snapshot fetched")
			return items, nil

		case resp.StatusCode == http.StatusNotFound:
			return []domain.CatalogItem{}, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			log.Warn().
				Int("attempt", attempt).
				Int("status", resp.StatusCode).
				Msg("inventory API error, retrying")
			lastErr = fmt.Errorf("status %d", resp.StatusCode)

		default:
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrCatalogUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}

	log.Error().Err(lastErr).Msg("all inventory attempts failed")
	return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
