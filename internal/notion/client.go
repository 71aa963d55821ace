// Package notion wraps the Notion REST API: page reads, block content,
// mention checks, and status writes. It is pure I/O; all sync decisions live
// in the orchestrator.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/retry"
)

const (
	defaultBaseURL    = "https://api.notion.com"
	defaultAPIVersion = "2022-06-28"
)

// Config carries connection settings for the Notion client.
type Config struct {
	Token          string
	BaseURL        string
	APIVersion     string
	StatusProperty string // name of the status field, default "Status"
	HTTPClient     *http.Client
	Policy         retry.Policy
}

// Client is a thin, stateless wrapper around the Notion API.
type Client struct {
	token          string
	baseURL        string
	apiVersion     string
	statusProperty string
	httpClient     *http.Client
	policy         retry.Policy
}

// New constructs a Client. The token is required; everything else defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ferrors.ConfigError("notion token is required").Build()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	statusProperty := cfg.StatusProperty
	if statusProperty == "" {
		statusProperty = "Status"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	policy := cfg.Policy
	if policy.Validate() != nil {
		policy = retry.DefaultPolicy()
	}
	return &Client{
		token:          cfg.Token,
		baseURL:        baseURL,
		apiVersion:     apiVersion,
		statusProperty: statusProperty,
		httpClient:     httpClient,
		policy:         policy,
	}, nil
}

// GetPage reads a page and its block children into the flattened PageContent
// model the orchestrator consumes.
func (c *Client) GetPage(ctx context.Context, pageID string) (*PageContent, error) {
	var page pageObject
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+pageID, nil, &page); err != nil {
		return nil, err
	}

	content := &PageContent{ID: page.ID, URL: page.URL}
	var mentioned []string

	for name, prop := range page.Properties {
		switch prop.Type {
		case "title":
			content.Title = joinPlainText(prop.Title)
		case "status":
			if prop.Status != nil {
				content.Status = prop.Status.Name
			}
		case "select":
			if strings.EqualFold(name, "priority") && prop.Select != nil {
				content.Priority = parsePriority(prop.Select.Name)
			}
		case "multi_select":
			if strings.EqualFold(name, "tags") || strings.EqualFold(name, "labels") {
				for _, opt := range prop.MultiSelect {
					content.Tags = append(content.Tags, opt.Name)
				}
			}
		case "date":
			if prop.Date != nil && (strings.EqualFold(name, "due") || strings.EqualFold(name, "due date") || strings.EqualFold(name, "deadline")) {
				content.DueDate = prop.Date.Start
			}
		case "people":
			for _, u := range prop.People {
				mentioned = append(mentioned, u.ID)
			}
		}
	}

	body, blockMentions, err := c.pageBody(ctx, pageID)
	if err != nil {
		return nil, err
	}
	content.Body = body
	content.MentionedUserIDs = append(mentioned, blockMentions...)

	return content, nil
}

// GetPageStatus reads only the status property of a page.
func (c *Client) GetPageStatus(ctx context.Context, pageID string) (string, error) {
	var page pageObject
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+pageID, nil, &page); err != nil {
		return "", err
	}
	for _, prop := range page.Properties {
		if prop.Type == "status" && prop.Status != nil {
			return prop.Status.Name, nil
		}
	}
	return "", nil
}

// PageMentionsUser reports whether userID appears in the page's people
// properties or inline mentions.
func (c *Client) PageMentionsUser(ctx context.Context, pageID, userID string) (bool, error) {
	content, err := c.GetPage(ctx, pageID)
	if err != nil {
		return false, err
	}
	return content.MentionsUser(userID), nil
}

// pageBody walks the page's block children (first level only) and joins all
// text-bearing blocks with newlines.
func (c *Client) pageBody(ctx context.Context, pageID string) (string, []string, error) {
	var (
		lines    []string
		mentions []string
		cursor   string
	)
	for {
		path := "/v1/blocks/" + pageID + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}
		var list blockList
		if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
			return "", nil, err
		}
		for i := range list.Results {
			b := &list.Results[i]
			if txt := b.text(); txt != "" {
				lines = append(lines, txt)
			}
			mentions = append(mentions, b.mentionedUsers()...)
		}
		if !list.HasMore || list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}
	return strings.Join(lines, "\n"), mentions, nil
}

// StatusOptions lists the configured option names of the page's status
// property, read from the parent database schema. Pages without a database
// parent have no option list.
func (c *Client) StatusOptions(ctx context.Context, pageID string) ([]string, error) {
	var page pageObject
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+pageID, nil, &page); err != nil {
		return nil, err
	}
	if page.Parent.DatabaseID == "" {
		return nil, nil
	}
	var db databaseObject
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+page.Parent.DatabaseID, nil, &db); err != nil {
		return nil, err
	}
	prop, ok := db.Properties[c.statusProperty]
	if !ok || prop.Status == nil {
		return nil, nil
	}
	names := make([]string, 0, len(prop.Status.Options))
	for _, opt := range prop.Status.Options {
		names = append(names, opt.Name)
	}
	return names, nil
}

// UpdateStatus writes the status option that best matches the requested
// category, resolving against the database's actual option list (option lists
// are user-customized, never fixed strings).
func (c *Client) UpdateStatus(ctx context.Context, pageID string, category StatusCategory) error {
	options, err := c.StatusOptions(ctx, pageID)
	if err != nil {
		return err
	}
	name := ResolveStatusOption(options, category)
	if name == "" {
		return ferrors.NotionError("no status option available").
			WithContext("page_id", pageID).
			WithContext("category", string(category)).
			Build()
	}

	payload := map[string]any{
		"properties": map[string]any{
			c.statusProperty: map[string]any{
				"status": map[string]any{"name": name},
			},
		},
	}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, payload, nil)
}

// do issues one API call with auth headers and retry on 429/5xx, decoding the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal notion request").Build()
		}
	}

	url := c.baseURL + path
	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "build notion request").Build()
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", c.apiVersion)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.policy.MaxRetries {
				if werr := sleepContext(ctx, c.policy.Delay(attempt+1)); werr != nil {
					return werr
				}
				continue
			}
			return ferrors.WrapError(err, ferrors.CategoryNotion, "notion request failed").
				WithContext("path", path).
				Build()
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return ferrors.WrapError(readErr, ferrors.CategoryNotion, "read notion response").Build()
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryNotion, "decode notion response").
					WithContext("path", path).
					Build()
			}
			return nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < c.policy.MaxRetries {
			if werr := sleepContext(ctx, c.policy.Delay(attempt+1)); werr != nil {
				return werr
			}
			continue
		}

		return ferrors.NotionError("notion API error").
			WithContext("path", path).
			WithContext("status", resp.StatusCode).
			WithContext("body", truncate(string(respBody), 300)).
			Build()
	}
}

// parsePriority maps a priority select option onto the Todoist 1..4 scale
// (4 is most urgent).
func parsePriority(name string) int {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "urgent", "p1", "critical", "urgente":
		return 4
	case "high", "p2", "alta":
		return 3
	case "medium", "p3", "media":
		return 2
	default:
		return 1
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
