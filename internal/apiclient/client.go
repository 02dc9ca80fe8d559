// Package apiclient talks to the Beauty Bot backend on behalf of a session.
package apiclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.JSONMarshal = json.Marshal
	c.JSONUnmarshal = json.Unmarshal
	return &Client{http: c}
}

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Categories calls GET /api/categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/api/categories")
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	var categories []string
	if err := json.Unmarshal(resp.Body(), &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// Recommend calls POST /api/recommend. Missing top_products decodes to an
// empty slice, never nil.
func (c *Client) Recommend(ctx context.Context, category string) (domain.Recommendation, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(domain.RecommendRequest{Category: &category}).
		Post("/api/recommend")
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("post recommend: %w", err)
	}
	if resp.IsError() {
		return domain.Recommendation{}, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	var rec domain.Recommendation
	if err := json.Unmarshal(resp.Body(), &rec); err != nil {
		return domain.Recommendation{}, fmt.Errorf("decode recommendation: %w", err)
	}
	if rec.TopProducts == nil {
		rec.TopProducts = []domain.Product{}
	}
	return rec, nil
}
