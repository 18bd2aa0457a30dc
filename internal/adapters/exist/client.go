package exist

// Package exist fetches tracked habits from the Exist.io API. Habits are
// modelled there as manual custom attributes whose labels follow the
// "habit <flags> <name>" convention.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/twpol/personalmissioncontrol/internal/domain/model"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// DefaultBaseURL is the production Exist API endpoint.
const DefaultBaseURL = "https://exist.io/api/2"

// maxPages bounds pagination of attribute listings.
const maxPages = 20

// ClientOptions groups configuration for Client.
type ClientOptions struct {
	BaseURL    string       // Defaults to DefaultBaseURL
	HTTPClient *http.Client // Defaults to a 30s-timeout client
}

// Client is an Exist API client scoped to habit attributes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.HabitSource = (*Client)(nil)

// NewClient creates an Exist client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
	}
}

// attributePage is the Exist paginated list envelope.
type attributePage struct {
	Count   int             `json:"count"`
	Next    string          `json:"next"`
	Results []existAttribute `json:"results"`
}

// existAttribute is the subset of the attribute resource used here.
type existAttribute struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
	Manual bool   `json:"manual"`
}

// Habits fetches all attributes and keeps those whose labels follow the
// habit convention.
func (c *Client) Habits(ctx context.Context, creds ports.Credentials) ([]model.Habit, error) {
	url := c.baseURL + "/attributes/?limit=100"

	var habits []model.Habit
	for i := 0; url != "" && i < maxPages; i++ {
		var p attributePage
		if err := c.getJSON(ctx, creds, url, &p); err != nil {
			return nil, fmt.Errorf("fetch attributes: %w", err)
		}
		for _, attr := range p.Results {
			title, ok := model.ParseHabitLabel(attr.Label)
			if !ok {
				continue
			}
			habits = append(habits, model.Habit{
				AccountID: creds.AccountID,
				ItemID:    attr.Name,
				Title:     title,
			})
		}
		url = p.Next
	}
	return habits, nil
}

func (c *Client) getJSON(ctx context.Context, creds ports.Credentials, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", creds.TokenType+" "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("exist request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exist returned %d for %s", resp.StatusCode, url)
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return fmt.Errorf("decode exist response: %w", decodeErr)
	}
	return nil
}
