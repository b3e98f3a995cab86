// Package features provides access to the external feature service that
// publishes CompanyFeatures snapshots. The engine reads through the
// Provider interface; Client talks HTTP, CachedProvider layers the
// in-memory snapshot store in front of it.
package features

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/pkg/logger"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout    = 30 * time.Second
	maxErrorBodyBytes = 512
)

// featureNames requested from the online feature view.
var featureNames = []string{
	"user_overlap_score",
	"funding_amount",
	"employee_count",
	"growth_rate",
	"market_sentiment",
	"culture_vector",
}

// Provider is what the recommendation engine needs from the feature layer.
type Provider interface {
	// Get returns the latest snapshot for one company, or nil when the
	// company has no published features. Missing data is not an error.
	Get(ctx context.Context, companyID string) (*model.CompanyFeatures, error)

	// GetBatch returns snapshots keyed by company id, omitting ids with no
	// data. A transport failure fails the whole batch.
	GetBatch(ctx context.Context, companyIDs []string) (map[string]model.CompanyFeatures, error)

	// ListCompanyIDs enumerates all companies with published features.
	ListCompanyIDs(ctx context.Context) ([]string, error)
}

// Client is the HTTP client for the feature service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithTimeout bounds individual feature service calls.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a feature service client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger.Get().Named("features"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches the latest snapshot for one company. A 404 means the company
// has no features and returns (nil, nil).
func (c *Client) Get(ctx context.Context, companyID string) (*model.CompanyFeatures, error) {
	start := time.Now()
	defer func() {
		metrics.RecordFeatureFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	url := fmt.Sprintf("%s/features/company/%s", c.baseURL, companyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordFeatureFetchError()
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var f model.CompanyFeatures
		if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
			return nil, fmt.Errorf("decode features for %s: %w", companyID, err)
		}
		return &f, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		metrics.RecordFeatureFetchError()
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, readErrorBody(resp.Body))
	}
}

// batchRequest mirrors the feature service online-view request schema.
type batchRequest struct {
	CompanyIDs   []string `json:"company_ids"`
	FeatureNames []string `json:"feature_names"`
}

// batchResponse mirrors the feature service online-view response schema.
type batchResponse struct {
	Features []model.CompanyFeatures `json:"features"`
}

// GetBatch fetches snapshots for many companies at once. Companies without
// data are simply absent from the result map.
func (c *Client) GetBatch(ctx context.Context, companyIDs []string) (map[string]model.CompanyFeatures, error) {
	start := time.Now()
	defer func() {
		metrics.RecordFeatureFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	body, err := json.Marshal(batchRequest{CompanyIDs: companyIDs, FeatureNames: featureNames})
	if err != nil {
		return nil, fmt.Errorf("encode batch request: %w", err)
	}

	url := c.baseURL + "/features/online"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordFeatureFetchError()
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFeatureFetchError()
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}

	out := make(map[string]model.CompanyFeatures, len(decoded.Features))
	for _, f := range decoded.Features {
		if f.CompanyID == "" {
			continue
		}
		out[f.CompanyID] = f
	}
	return out, nil
}

// companiesResponse mirrors the feature service company enumeration schema.
type companiesResponse struct {
	CompanyIDs []string `json:"company_ids"`
}

// ListCompanyIDs enumerates all companies with published features.
func (c *Client) ListCompanyIDs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/features/companies", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordFeatureFetchError()
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFeatureFetchError()
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded companiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode companies response: %w", err)
	}
	return decoded.CompanyIDs, nil
}

// Health reports whether the feature service answers its health endpoint.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func readErrorBody(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	return string(raw)
}
