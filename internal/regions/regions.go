// Package regions maps AWS region codes to display names and continent
// groups using the public AWS locations feed.
package regions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// locationsURL is the public feed of AWS locations.
const locationsURL = "https://b0.p.awsstatic.com/locations/1.0/aws/current/locations.json"

// Location is one entry of the AWS locations feed.
type Location struct {
	Type      string `json:"type"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Continent string `json:"continent"`
}

// Client fetches and caches region metadata.
type Client struct {
	http   *retryablehttp.Client
	url    string
	mu     sync.Mutex
	cached map[string]Location
}

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the locations feed URL (used by tests).
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// NewClient creates a region metadata client with retrying HTTP.
func NewClient(opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	c := &Client{http: rc, url: locationsURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetch downloads the locations feed once and caches the region entries.
func (c *Client) fetch(ctx context.Context) (map[string]Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return c.cached, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building locations request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching AWS locations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching AWS locations: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading AWS locations response: %w", err)
	}

	var raw map[string]Location
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing AWS locations response: %w", err)
	}

	regions := make(map[string]Location)
	for _, loc := range raw {
		if loc.Type == "AWS Region" && loc.Code != "" {
			regions[loc.Code] = loc
		}
	}
	c.cached = regions
	return regions, nil
}

// Names returns region code → display name, optionally filtered to the
// enabled list.
func (c *Client) Names(ctx context.Context, enabled []string) (map[string]string, error) {
	regions, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(regions))
	for code, loc := range regions {
		names[code] = loc.Name
	}

	if len(enabled) == 0 {
		return names, nil
	}

	filtered := make(map[string]string, len(enabled))
	for _, code := range enabled {
		if name, ok := names[code]; ok {
			filtered[code] = name
		}
	}
	return filtered, nil
}

// Continent returns the continent name for a region code, or "Other" when
// the region is not in the feed.
func (c *Client) Continent(ctx context.Context, code string) (string, error) {
	regions, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	if loc, ok := regions[code]; ok && loc.Continent != "" {
		return loc.Continent, nil
	}
	return "Other", nil
}
