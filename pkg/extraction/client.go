package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/snf-admission-engine/internal/domain"
)

// Client calls the clinical feature extraction service, which turns
// free-text hospital referrals into structured clinical features.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	maxRetries int
}

// Config represents configuration for the extraction service client
type Config struct {
	BaseURL    string        `json:"base_url"`
	APIKey     string        `json:"api_key"`
	Timeout    time.Duration `json:"timeout"`
	RateLimit  int           `json:"rate_limit"` // requests per second
	MaxRetries int           `json:"max_retries"`
}

// extractRequest is the wire request for the extraction endpoint.
type extractRequest struct {
	ReferralText string `json:"referral_text"`
}

// extractResponse is the wire response from the extraction endpoint.
type extractResponse struct {
	Features *domain.ClinicalFeatures `json:"features"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// NewClient creates a new extraction service client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		maxRetries: config.MaxRetries,
	}
}

// ConfigFromApp maps the application extraction config onto client settings.
func ConfigFromApp(cfg domain.ExtractionConfig) Config {
	return Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		MaxRetries: cfg.RetryCount,
	}
}

// ExtractFeatures submits referral text for extraction and returns the
// structured clinical features.
func (c *Client) ExtractFeatures(ctx context.Context, referralText string) (*domain.ClinicalFeatures, error) {
	referralText = strings.TrimSpace(referralText)
	if referralText == "" {
		return nil, fmt.Errorf("referral text cannot be empty")
	}

	// Rate limiting
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	body, err := json.Marshal(extractRequest{ReferralText: referralText})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between retries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		features, retryable, err := c.doExtract(ctx, body)
		if err == nil {
			return features, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("extraction failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// doExtract performs one extraction attempt. The second return value
// reports whether the failure is worth retrying.
func (c *Client) doExtract(ctx context.Context, body []byte) (*domain.ClinicalFeatures, bool, error) {
	url := c.baseURL + "/v1/extract"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Handled below
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	default:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, false, fmt.Errorf("extraction service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if decoded.Features == nil {
		return nil, false, fmt.Errorf("extraction response carried no features")
	}
	if decoded.Features.PrimaryDiagnosis == "" {
		return nil, false, fmt.Errorf("extraction response missing primary diagnosis")
	}

	return decoded.Features, false, nil
}
