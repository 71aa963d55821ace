package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tasksync/internal/notion"
)

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEnrichParsesSuggestion(t *testing.T) {
	srv := chatServer(t, `{"body":"cleaned up","tags":["refined"],"priority":3}`, http.StatusOK)
	e, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := e.Enrich(context.Background(), notion.PageContent{Body: "raw body", Tags: []string{"base"}})
	require.NoError(t, err)
	require.Equal(t, "cleaned up", got.Body)
	require.Equal(t, []string{"refined"}, got.Tags)
	require.Equal(t, 3, got.Priority)
}

func TestEnrichRejectsOutOfRangePriority(t *testing.T) {
	srv := chatServer(t, `{"priority":9}`, http.StatusOK)
	e, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := e.Enrich(context.Background(), notion.PageContent{Body: "raw"})
	require.NoError(t, err)
	require.Zero(t, got.Priority)
}

func TestEnrichErrorsAreAdvisory(t *testing.T) {
	t.Run("http failure", func(t *testing.T) {
		srv := chatServer(t, `{}`, http.StatusTooManyRequests)
		e, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = e.Enrich(context.Background(), notion.PageContent{Body: "raw"})
		require.Error(t, err)
	})

	t.Run("non-JSON content", func(t *testing.T) {
		srv := chatServer(t, "sorry, I cannot do that", http.StatusOK)
		e, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = e.Enrich(context.Background(), notion.PageContent{Body: "raw"})
		require.Error(t, err)
	})
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(Config{})
	require.Error(t, err)
}
