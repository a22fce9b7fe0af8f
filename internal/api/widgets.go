package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tally/internal/cache"
)

const widgetTTL = 10 * time.Minute

// Rate is one currency conversion rate.
type Rate struct {
	Base   string  `json:"base"`
	Target string  `json:"target"`
	Rate   float64 `json:"rate"`
}

// RateClient reads a single conversion rate from an exchange-rate
// endpoint shaped like api.exchangerate-api.com: {"rates": {"XYZ": n}}.
// Responses are cached; the endpoint is slow and the rate barely moves.
type RateClient struct {
	url    string
	base   string
	target string
	http   *http.Client
	cache  cache.Cache
}

func NewRateClient(url, base, target string, c cache.Cache) *RateClient {
	return &RateClient{
		url:    url,
		base:   base,
		target: target,
		http:   &http.Client{Timeout: 10 * time.Second},
		cache:  c,
	}
}

// Fetch returns the current rate, from cache when fresh.
func (c *RateClient) Fetch(ctx context.Context) (Rate, error) {
	key := "rate:" + c.base + ":" + c.target
	if cached, ok := c.cache.Get(ctx, key); ok {
		var r Rate
		if err := json.Unmarshal([]byte(cached), &r); err == nil {
			return r, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Rate{}, fmt.Errorf("build rate request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("fetch rate: status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Rate{}, fmt.Errorf("decode rate response: %w", err)
	}
	value, ok := payload.Rates[c.target]
	if !ok {
		return Rate{}, fmt.Errorf("rate response has no %s rate", c.target)
	}

	rate := Rate{Base: c.base, Target: c.target, Rate: value}
	if data, err := json.Marshal(rate); err == nil {
		c.cache.Set(ctx, key, string(data), widgetTTL)
	}
	return rate, nil
}

// NewsClient reads short headline strings for the dashboard ticker.
// It tolerates both {"headlines": ["..."]} and the newsapi-style
// {"articles": [{"title": "..."}]} response shapes.
type NewsClient struct {
	url   string
	limit int
	http  *http.Client
	cache cache.Cache
}

func NewNewsClient(url string, limit int, c cache.Cache) *NewsClient {
	return &NewsClient{
		url:   url,
		limit: limit,
		http:  &http.Client{Timeout: 10 * time.Second},
		cache: c,
	}
}

// Fetch returns up to limit headlines, from cache when fresh.
func (c *NewsClient) Fetch(ctx context.Context) ([]string, error) {
	const key = "news:headlines"
	if cached, ok := c.cache.Get(ctx, key); ok {
		var out []string
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch headlines: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch headlines: status %d", resp.StatusCode)
	}

	var payload struct {
		Headlines []string `json:"headlines"`
		Articles  []struct {
			Title string `json:"title"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}

	headlines := payload.Headlines
	for _, a := range payload.Articles {
		if a.Title != "" {
			headlines = append(headlines, a.Title)
		}
	}
	if c.limit > 0 && len(headlines) > c.limit {
		headlines = headlines[:c.limit]
	}

	if data, err := json.Marshal(headlines); err == nil {
		c.cache.Set(ctx, key, string(data), widgetTTL)
	} else {
		slog.DebugContext(ctx, "Failed to cache headlines", "error", err)
	}
	return headlines, nil
}
