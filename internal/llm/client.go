// Package llm writes the narrative half of a recommendation by asking an
// OpenAI-compatible chat-completions endpoint to compare the ranked products.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/actuallystonmai/beautybot/internal/logging"
	"github.com/actuallystonmai/beautybot/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

const systemPrompt = "You are a beauty expert specializing in makeup product analysis. " +
	"You help users find the best value makeup products based on price, ratings, and reviews."

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[string]
	cfg     Config
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}
	httpClient.JSONMarshal = json.Marshal
	httpClient.JSONUnmarshal = json.Unmarshal

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Client{http: httpClient, breaker: breaker, cfg: cfg}
}

func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// Generate asks the model which of the ranked products are the best value.
// Every failure is reported as domain.ErrModelUnavailable.
func (c *Client) Generate(ctx context.Context, category string, ranked []model.ScoredProduct) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("%w: api key not configured", domain.ErrModelUnavailable)
	}

	text, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, BuildPrompt(category, ranked))
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat completion returned status %d", resp.StatusCode())
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// BuildPrompt lists the ranked products with their value scores and asks for
// the 3-5 best-value picks.
func BuildPrompt(category string, ranked []model.ScoredProduct) string {
	var b strings.Builder
	fmt.Fprintf(&b, "These are the top-rated %s products from Sephora based on price, reviews, and rating:\n\n", category)

	for i, p := range ranked {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(&b, "   Price: $%.2f, Rating: %g/5, Reviews: %d\n", p.Price, p.Rating, p.Reviews)
		fmt.Fprintf(&b, "   Value Score: %.2f\n", p.Score)
		if p.URL != "" {
			fmt.Fprintf(&b, "   URL: %s\n", p.URL)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nBased on the above data, which 3-5 %s products provide the best value for money? ", category)
	b.WriteString("Consider the balance between price, rating, and number of reviews. ")
	b.WriteString("Explain why each product is a good value, and provide a brief summary of what makes these products stand out. ")
	b.WriteString("Format your response with clear headings and bullet points for each product's pros and cons.")
	return b.String()
}
