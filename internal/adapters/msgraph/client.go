package msgraph

// Package msgraph fetches To Do lists, tasks, and mail folder summaries from
// the Microsoft Graph API.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/twpol/personalmissioncontrol/internal/domain/model"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// DefaultBaseURL is the production Microsoft Graph endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// maxPages bounds pagination so a misbehaving nextLink cannot loop forever.
const maxPages = 50

// ClientOptions groups configuration for Client.
type ClientOptions struct {
	BaseURL    string       // Defaults to DefaultBaseURL
	HTTPClient *http.Client // Defaults to a 30s-timeout client
}

// Client is a Microsoft Graph API client scoped to the dashboard's needs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ ports.TaskSource  = (*Client)(nil)
	_ ports.EmailSource = (*Client)(nil)
)

// NewClient creates a Graph client.
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

// page is the envelope of every Graph collection response.
type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// collect fetches all pages of a Graph collection, following nextLink.
func collect[T any](ctx context.Context, c *Client, creds ports.Credentials, url string) ([]T, error) {
	var out []T
	for i := 0; url != "" && i < maxPages; i++ {
		var p page[T]
		if err := c.getJSON(ctx, creds, url, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Value...)
		url = p.NextLink
	}
	return out, nil
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
		return fmt.Errorf("graph request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graph returned %d for %s", resp.StatusCode, url)
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return fmt.Errorf("decode graph response: %w", decodeErr)
	}
	return nil
}

// graphTaskList is the Graph todoTaskList resource.
type graphTaskList struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	WellknownListName string `json:"wellknownListName"`
}

// TaskLists fetches all of the signed-in user's To Do lists.
func (c *Client) TaskLists(ctx context.Context, creds ports.Credentials) ([]model.TaskList, error) {
	raw, err := collect[graphTaskList](ctx, c, creds, c.baseURL+"/me/todo/lists")
	if err != nil {
		return nil, fmt.Errorf("fetch task lists: %w", err)
	}

	lists := make([]model.TaskList, 0, len(raw))
	for _, l := range raw {
		emoji, name := splitLeadingEmoji(l.DisplayName)
		lists = append(lists, model.TaskList{
			AccountID: creds.AccountID,
			ItemID:    l.ID,
			Emoji:     emoji,
			Name:      name,
			Special:   specialFromWellknown(l.WellknownListName),
		})
	}
	return lists, nil
}

// graphTask is the Graph todoTask resource.
type graphTask struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Importance        string         `json:"importance"`
	Status            string         `json:"status"`
	CreatedDateTime   string         `json:"createdDateTime"`
	CompletedDateTime *graphDateTime `json:"completedDateTime"`
}

// graphDateTime is the Graph dateTimeTimeZone shape.
type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Tasks fetches every task of one list.
func (c *Client) Tasks(ctx context.Context, creds ports.Credentials, listID string) ([]model.Task, error) {
	url := fmt.Sprintf("%s/me/todo/lists/%s/tasks", c.baseURL, listID)
	raw, err := collect[graphTask](ctx, c, creds, url)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks for list %s: %w", listID, err)
	}

	tasks := make([]model.Task, 0, len(raw))
	for _, t := range raw {
		task := model.Task{
			AccountID: creds.AccountID,
			ListID:    listID,
			ItemID:    t.ID,
			Title:     t.Title,
			Important: t.Importance == "high",
			Created:   parseGraphTime(t.CreatedDateTime),
		}
		if t.CompletedDateTime != nil {
			completed := t.CompletedDateTime.parse()
			if !completed.IsZero() {
				task.Completed = &completed
			}
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// graphMailFolder is the Graph mailFolder resource.
type graphMailFolder struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	TotalItemCount  int    `json:"totalItemCount"`
	UnreadItemCount int    `json:"unreadItemCount"`
}

// MailFolders fetches the top-level mail folders with their counts.
func (c *Client) MailFolders(ctx context.Context, creds ports.Credentials) ([]model.EmailFolder, error) {
	raw, err := collect[graphMailFolder](ctx, c, creds, c.baseURL+"/me/mailFolders")
	if err != nil {
		return nil, fmt.Errorf("fetch mail folders: %w", err)
	}

	folders := make([]model.EmailFolder, 0, len(raw))
	for _, f := range raw {
		folders = append(folders, model.EmailFolder{
			AccountID: creds.AccountID,
			ItemID:    f.ID,
			Name:      f.DisplayName,
			Total:     f.TotalItemCount,
			Unread:    f.UnreadItemCount,
		})
	}
	return folders, nil
}

func specialFromWellknown(name string) model.TaskListSpecial {
	switch name {
	case "defaultList":
		return model.TaskListSpecialDefault
	case "flaggedEmails":
		return model.TaskListSpecialEmails
	default:
		return model.TaskListSpecialNone
	}
}

// splitLeadingEmoji separates a decorative leading symbol from a list name,
// e.g. "\U0001F4E5 Inbox" becomes ("\U0001F4E5", "Inbox").
func splitLeadingEmoji(displayName string) (string, string) {
	first, rest, found := strings.Cut(displayName, " ")
	if !found || first == "" {
		return "", displayName
	}
	for _, r := range first {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) {
			return "", displayName
		}
	}
	return first, rest
}

// parseGraphTime handles the RFC 3339 timestamps Graph uses for plain
// datetime fields.
func parseGraphTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parse converts a dateTimeTimeZone value. Graph emits local wall-clock time
// with a named zone, almost always UTC, and up to seven fractional digits.
func (d graphDateTime) parse() time.Time {
	if d.DateTime == "" {
		return time.Time{}
	}
	loc := time.UTC
	if d.TimeZone != "" && d.TimeZone != "UTC" {
		if l, err := time.LoadLocation(d.TimeZone); err == nil {
			loc = l
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.9999999", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, d.DateTime, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}
