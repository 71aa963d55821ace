package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tasksync/internal/retry"
)

const testPageJSON = `{
	"id": "abcd1234-abcd-1234-abcd-1234abcd1234",
	"url": "https://www.notion.so/Test-abcd1234abcd1234abcd1234abcd1234",
	"parent": {"type": "database_id", "database_id": "db-1"},
	"properties": {
		"Name": {"type": "title", "title": [{"plain_text": "Buy milk"}]},
		"Status": {"type": "status", "status": {"name": "En curso"}},
		"Priority": {"type": "select", "select": {"name": "High"}},
		"Tags": {"type": "multi_select", "multi_select": [{"name": "errand"}, {"name": "home"}]},
		"Due": {"type": "date", "date": {"start": "2025-06-10"}},
		"Assignee": {"type": "people", "people": [{"id": "user-1"}]}
	}
}`

const testBlocksJSON = `{
	"results": [
		{"id": "b1", "type": "paragraph", "paragraph": {"rich_text": [{"plain_text": "First line"}]}},
		{"id": "b2", "type": "heading_2", "heading_2": {"rich_text": [{"plain_text": "Details"}]}},
		{"id": "b3", "type": "divider", "divider": {}},
		{"id": "b4", "type": "paragraph", "paragraph": {"rich_text": [
			{"plain_text": "@Someone", "mention": {"type": "user", "user": {"id": "user-2"}}}
		]}}
	],
	"has_more": false
}`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Token:   "secret",
		BaseURL: srv.URL,
		Policy:  retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2),
	})
	require.NoError(t, err)
	return c
}

func TestGetPageFlattensProperties(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("Notion-Version"))
		switch r.URL.Path {
		case "/v1/pages/p1":
			_, _ = w.Write([]byte(testPageJSON))
		case "/v1/blocks/p1/children":
			_, _ = w.Write([]byte(testBlocksJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	content, err := c.GetPage(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Buy milk", content.Title)
	require.Equal(t, "En curso", content.Status)
	require.Equal(t, 3, content.Priority)
	require.Equal(t, []string{"errand", "home"}, content.Tags)
	require.Equal(t, "2025-06-10", content.DueDate)
	require.Equal(t, "First line\nDetails\n@Someone", content.Body)
	require.True(t, content.MentionsUser("user-1"), "people property")
	require.True(t, content.MentionsUser("user-2"), "inline mention")
	require.False(t, content.MentionsUser("user-3"))
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(testPageJSON))
	}))

	_, err := c.GetPageStatus(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetPageStatus(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestUpdateStatusResolvesAgainstOptionList(t *testing.T) {
	var patched map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPatch && r.URL.Path == "/v1/pages/p1":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			_, _ = w.Write([]byte(`{}`))
		case r.URL.Path == "/v1/pages/p1":
			_, _ = w.Write([]byte(testPageJSON))
		case r.URL.Path == "/v1/databases/db-1":
			_, _ = w.Write([]byte(`{
				"id": "db-1",
				"properties": {
					"Status": {"type": "status", "status": {"options": [
						{"name": "Pendiente"}, {"name": "En curso"}, {"name": "Terminada"}
					]}}
				}
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	require.NoError(t, c.UpdateStatus(context.Background(), "p1", StatusCompleted))

	props := patched["properties"].(map[string]any)
	status := props["Status"].(map[string]any)["status"].(map[string]any)
	require.Equal(t, "Terminada", status["name"])
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
