package playstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"playreviews/pkg/config"
	errs "playreviews/pkg/errors"
	"playreviews/pkg/logger"
	"playreviews/pkg/ratelimit"
	"playreviews/pkg/retrieval"
)

// DefaultBaseURL is the Google Play origin
const DefaultBaseURL = "https://" + StoreHost

// maxBodySize caps a single page response
const maxBodySize = 16 << 20

// Client fetches review pages from Google Play
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

var _ retrieval.ReviewSource = (*Client)(nil)

// NewClient creates a Google Play client from the store settings
func NewClient(cfg config.StoreConfig, limiter ratelimit.Limiter, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	headers := map[string]string{
		"Content-Type":    "application/x-www-form-urlencoded;charset=UTF-8",
		"Accept":          "*/*",
		"Accept-Language": "ru-RU,ru;q=0.9,en;q=0.8",
		"Origin":          DefaultBaseURL,
		"Referer":         DefaultBaseURL + "/",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
		baseURL:    baseURL,
		limiter:    limiter,
		logger:     log,
	}
}

// FetchPage requests one page of reviews.
//
// Failures carry an errors.Kind: 404 is not_found, 429 and 403 are
// rate_limited, other HTTP errors and network failures are transient, and a
// body that cannot be decoded is unknown.
func (c *Client) FetchPage(ctx context.Context, req retrieval.PageRequest) (retrieval.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return retrieval.Page{}, fmt.Errorf("rate limiter wait: %w", err)
	}

	freq, err := encodeReviewsRequest(req)
	if err != nil {
		return retrieval.Page{}, errs.Wrap(errs.KindUnknown, err, "encode request")
	}

	query := url.Values{}
	query.Set("hl", req.Language)
	query.Set("gl", req.Country)
	endpoint := c.baseURL + BatchExecutePath + "?" + query.Encode()

	form := url.Values{}
	form.Set("f.req", freq)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return retrieval.Page{}, errs.Wrap(errs.KindUnknown, err, "failed to create request")
	}

	body, err := c.do(ctx, httpReq)
	if err != nil {
		return retrieval.Page{}, err
	}

	page, err := decodeReviewsResponse(body)
	if err != nil {
		c.logger.ErrorWithFields("failed to parse reviews response", map[string]interface{}{
			"app_id":       req.AppID,
			"error":        err.Error(),
			"body_preview": preview(body),
		})
		return retrieval.Page{}, errs.Wrap(errs.KindUnknown, err, "parse reviews for %s", req.AppID)
	}

	c.logger.DebugWithFields("reviews page decoded", map[string]interface{}{
		"app_id":    req.AppID,
		"reviews":   len(page.Reviews),
		"has_token": page.NextToken != "",
	})

	return page, nil
}

// do sends the request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		// cancellation is the caller's decision, not a store failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request aborted: %w", ctxErr)
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.KindTransient, err, "network error")
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		return nil, &errs.Error{
			Kind:    errs.KindTransient,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return body, nil
}

// checkResponseStatus maps the HTTP status to an error kind
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	kind := errs.KindForStatus(resp.StatusCode)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}
	switch kind {
	case errs.KindNotFound:
		c.logger.WarnWithFields("app not found", fields)
	case errs.KindRateLimited:
		c.logger.WarnWithFields("rate limit exceeded", fields)
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
	}

	return &errs.Error{
		Kind:    kind,
		Message: fmt.Sprintf("store returned %s", resp.Status),
		Code:    resp.StatusCode,
	}
}

// preview shortens a body for logging
func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
