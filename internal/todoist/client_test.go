package todoist

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tasksync/internal/retry"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Token:   "secret",
		BaseURL: srv.URL,
		Policy:  retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 1),
	})
	require.NoError(t, err)
	return c
}

func TestCreateTaskReturnsNewID(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v2/tasks", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var got Task
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Equal(t, "Buy milk", got.Content)

		got.ID = "7001"
		_ = json.NewEncoder(w).Encode(got)
	}))

	created, err := c.CreateTask(context.Background(), Task{Content: "Buy milk", ProjectID: "42"})
	require.NoError(t, err)
	require.Equal(t, "7001", created.ID)
}

func TestFindTaskByBackrefMatchesEitherEncoding(t *testing.T) {
	tasks := []Task{
		{ID: "1", Content: "unrelated", Description: "nothing to see"},
		{ID: "2", Content: "synced", Description: "origin: https://www.notion.so/abcd1234abcd1234abcd1234abcd1234"},
		{ID: "3", Content: "other", Description: "ref abcd9999-abcd-9999-abcd-9999abcd9999"},
	}
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "42", r.URL.Query().Get("project_id"))
		_ = json.NewEncoder(w).Encode(tasks)
	}))

	// Hyphenated lookup hits the compact encoding embedded in the URL.
	found, err := c.FindTaskByBackref(context.Background(), "42", "abcd1234-abcd-1234-abcd-1234abcd1234")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "2", found.ID)

	// Compact lookup hits the hyphenated encoding.
	found, err = c.FindTaskByBackref(context.Background(), "42", "abcd9999abcd9999abcd9999abcd9999")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "3", found.ID)
}

func TestFindTaskByBackrefNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]Task{})
	}))

	found, err := c.FindTaskByBackref(context.Background(), "", "abcd1234-abcd-1234-abcd-1234abcd1234")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestCloseAndDeleteTask(t *testing.T) {
	var gotPath, gotMethod string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.CloseTask(context.Background(), "7001"))
	require.Equal(t, "/rest/v2/tasks/7001/close", gotPath)
	require.Equal(t, http.MethodPost, gotMethod)

	require.NoError(t, c.DeleteTask(context.Background(), "7001"))
	require.Equal(t, "/rest/v2/tasks/7001", gotPath)
	require.Equal(t, http.MethodDelete, gotMethod)
}

func TestValidateSignature(t *testing.T) {
	body := []byte(`{"event_name":"item:completed"}`)
	mac := hmac.New(sha256.New, []byte("shared-secret"))
	mac.Write(body)
	good := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	require.True(t, ValidateSignature("shared-secret", body, good))
	require.False(t, ValidateSignature("shared-secret", body, "bogus"))
	require.False(t, ValidateSignature("shared-secret", body, ""))

	// No configured secret: validation is off.
	require.True(t, ValidateSignature("", body, ""))
}

func TestWebhookPayloadDecodes(t *testing.T) {
	raw := []byte(`{
		"event_name": "item:completed",
		"user_id": "123",
		"event_data": {"id": "7001", "content": "synced", "description": "notion.so/abcd1234abcd1234abcd1234abcd1234", "priority": 3},
		"triggered_at": "2025-06-01T12:00:00.000000Z"
	}`)

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.Equal(t, "item:completed", payload.EventName)

	var data TaskEventData
	require.NoError(t, json.Unmarshal(payload.EventData, &data))
	require.Equal(t, "7001", data.ID)
	require.Equal(t, 3, data.Priority)
}
