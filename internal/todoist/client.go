// Package todoist wraps the Todoist REST API: task create/update/close/delete
// and the back-reference lookup that makes syncs convergent.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/tasksync/internal/backref"
	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/retry"
)

const defaultBaseURL = "https://api.todoist.com"

// Config carries connection settings for the Todoist client.
type Config struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	Policy     retry.Policy
}

// Client is a thin, stateless wrapper around the Todoist REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
}

// New constructs a Client. The token is required; everything else defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ferrors.ConfigError("todoist token is required").Build()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	policy := cfg.Policy
	if policy.Validate() != nil {
		policy = retry.DefaultPolicy()
	}
	return &Client{token: cfg.Token, baseURL: baseURL, httpClient: httpClient, policy: policy}, nil
}

// CreateTask creates a task and returns it with its new id.
func (c *Client) CreateTask(ctx context.Context, t Task) (*Task, error) {
	var created taskResponse
	if err := c.do(ctx, http.MethodPost, "/rest/v2/tasks", t, &created); err != nil {
		return nil, err
	}
	return &created.Task, nil
}

// UpdateTask rewrites a task's content, description, labels, priority, and due date.
func (c *Client) UpdateTask(ctx context.Context, id string, t Task) error {
	t.ID = ""
	return c.do(ctx, http.MethodPost, "/rest/v2/tasks/"+id, t, nil)
}

// CloseTask marks a task complete.
func (c *Client) CloseTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/rest/v2/tasks/"+id+"/close", nil, nil)
}

// DeleteTask removes a task entirely.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/rest/v2/tasks/"+id, nil, nil)
}

// FindTaskByBackref scans active tasks for one whose description embeds a
// back-reference to the given page id, in any textual encoding. Returns
// (nil, nil) when no task matches; callers must branch on that explicitly.
func (c *Client) FindTaskByBackref(ctx context.Context, projectID, pageID string) (*Task, error) {
	path := "/rest/v2/tasks"
	if projectID != "" {
		path += "?project_id=" + projectID
	}
	var tasks []taskResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}

	encodings := backref.Encodings(pageID)
	for i := range tasks {
		haystack := tasks[i].Description + "\n" + tasks[i].Content
		for _, enc := range encodings {
			if strings.Contains(haystack, enc) {
				t := tasks[i].Task
				return &t, nil
			}
		}
	}
	return nil, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal todoist request").Build()
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
			return ferrors.WrapError(err, ferrors.CategoryInternal, "build todoist request").Build()
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
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
			return ferrors.WrapError(err, ferrors.CategoryTodoist, "todoist request failed").
				WithContext("path", path).
				Build()
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return ferrors.WrapError(readErr, ferrors.CategoryTodoist, "read todoist response").Build()
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryTodoist, "decode todoist response").
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

		return ferrors.TodoistError("todoist API error").
			WithContext("path", path).
			WithContext("status", resp.StatusCode).
			Build()
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
