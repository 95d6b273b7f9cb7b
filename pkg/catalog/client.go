// Package catalog talks to the external card-catalog API: card search
// for pricing and the set listing that feeds the set index.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a thin card-catalog API client.
type Client struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
}

// NewClient creates a client against baseURL. The API key is optional
// for low request volumes but strongly rate limited without it.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// SearchCards runs GET /cards?q=<query> where query is a space-joined
// list of field:value clauses (name, number, set.id).
func (c *Client) SearchCards(ctx context.Context, query string) ([]Card, error) {
	u := fmt.Sprintf("%s/cards?q=%s", c.BaseURL, url.QueryEscape(query))
	var resp struct {
		Data []Card `json:"data"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("search cards %q: %w", query, err)
	}
	return resp.Data, nil
}

// ListSets fetches the full set catalog.
func (c *Client) ListSets(ctx context.Context) ([]Set, error) {
	var resp struct {
		Data []Set `json:"data"`
	}
	if err := c.getJSON(ctx, c.BaseURL+"/sets", &resp); err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	return resp.Data, nil
}

// getJSON performs the request with one retry on transport failure;
// the catalog is the most transient-failure-prone collaborator.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
		lastErr = c.tryGetJSON(ctx, u, out)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (c *Client) tryGetJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
