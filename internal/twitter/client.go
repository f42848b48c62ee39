// Package twitter fetches records from the v1.1 statuses lookup endpoint.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/valpere/tweetreview/internal/record"
)

const DefaultBaseURL = "https://api.twitter.com"

// ErrUnavailable is returned when a record cannot be fetched: the API
// answered with a non-200 status or did not return the record.
var ErrUnavailable = errors.New("record unavailable")

type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	BearerToken string        `mapstructure:"bearer_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   cfg.BearerToken,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch looks up a single record with its extended text and entities.
func (c *Client) Fetch(ctx context.Context, id string) (*record.Record, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("tweet_mode", "extended")
	q.Set("include_entities", "true")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/1.1/statuses/lookup.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s: status %d", ErrUnavailable, id, resp.StatusCode)
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s: not returned", ErrUnavailable, id)
	}

	return record.Parse(items[0])
}
