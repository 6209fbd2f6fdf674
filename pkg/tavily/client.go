// Package tavily is a client for the Tavily web search and extract API, the
// research provider behind venue enrichment.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/resilience"
)

const defaultBaseURL = "https://api.tavily.com"

// Client performs searches and page extractions against the Tavily API.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query          string `json:"query"`
	SearchDepth    string `json:"search_depth,omitempty"`
	MaxResults     int    `json:"max_results,omitempty"`
	IncludeAnswer  bool   `json:"include_answer,omitempty"`
	IncludeRawBody bool   `json:"include_raw_content,omitempty"`
}

// SearchResponse is the response from POST /search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []SearchResult `json:"results"`
}

// SearchResult is a single search hit.
type SearchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	RawContent string  `json:"raw_content,omitempty"`
}

// ExtractRequest is the request body for POST /extract.
type ExtractRequest struct {
	URLs []string `json:"urls"`
}

// ExtractResponse is the response from POST /extract.
type ExtractResponse struct {
	Results []ExtractResult `json:"results"`
	Failed  []FailedResult  `json:"failed_results,omitempty"`
}

// ExtractResult is the extracted content of one page.
type ExtractResult struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

// FailedResult identifies a URL that could not be extracted.
type FailedResult struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the request rate limit and burst.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithRetry overrides the default retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Tavily API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		retry:   resilience.RetryConfig{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var result SearchResponse
	if err := c.post(ctx, "/search", "tavily.search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	var result ExtractResponse
	if err := c.post(ctx, "/extract", "tavily.extract", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) post(ctx context.Context, path, op string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return eris.Wrap(err, "tavily: marshal request")
	}

	respBody, err := resilience.Retry(ctx, c.retry, op, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "tavily: rate limiter")
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "tavily: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, eris.Wrap(err, "tavily: send request")
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "tavily: read response")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("tavily: unexpected status %d: %s", resp.StatusCode, string(respBody))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}
		return respBody, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "tavily: unmarshal response")
	}
	return nil
}
