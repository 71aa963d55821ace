// Package enrich provides an optional chat-completion pass over page content
// before it is pushed to the destination. Enrichment is best effort: every
// failure degrades to the unenriched input, and the title is never touched.
package enrich

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
	"git.home.luguber.info/inful/tasksync/internal/notion"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"
)

// Suggestion is what an enrichment pass may change about a page. Absent
// fields keep the source value.
type Suggestion struct {
	Body     string   `json:"body,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Priority int      `json:"priority,omitempty"` // 1..4, 0 means unchanged
}

// Enricher transforms page content into a suggestion. Implementations must
// treat errors as advisory; callers fall back to the raw content.
type Enricher interface {
	Enrich(ctx context.Context, page notion.PageContent) (Suggestion, error)
}

// Config carries connection settings for the OpenAI-backed enricher.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAI implements Enricher with a single chat-completion call.
type OpenAI struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAI constructs the enricher. The key is required.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ferrors.ConfigError("openai api key is required").Build()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenAI{apiKey: cfg.APIKey, baseURL: baseURL, model: model, httpClient: httpClient}, nil
}

const systemPrompt = `You refine task descriptions for a task manager.
Given a page body and its tags, return JSON with optional fields:
"body" (a cleaned up description), "tags" (additional lowercase tags),
"priority" (1 normal to 4 urgent). Never invent facts. Respond with JSON only.`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Enrich asks the model for a suggestion. The returned error is classified as
// an enrichment warning so callers can log and continue.
func (o *OpenAI) Enrich(ctx context.Context, page notion.PageContent) (Suggestion, error) {
	userPrompt := fmt.Sprintf("Body:\n%s\n\nTags: %s", page.Body, strings.Join(page.Tags, ", "))
	reqBody, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return Suggestion{}, ferrors.WrapError(err, ferrors.CategoryEnrichment, "marshal chat request").Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return Suggestion{}, ferrors.WrapError(err, ferrors.CategoryEnrichment, "build chat request").Build()
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Suggestion{}, ferrors.WrapError(err, ferrors.CategoryEnrichment, "chat completion call").Build()
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Suggestion{}, ferrors.WrapError(err, ferrors.CategoryEnrichment, "read chat response").Build()
	}
	if resp.StatusCode != http.StatusOK {
		return Suggestion{}, ferrors.EnrichmentError(fmt.Sprintf("chat completion status %d", resp.StatusCode)).
			WithContext("body", truncate(string(data), 200)).Build()
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Suggestion{}, ferrors.WrapError(err, ferrors.CategoryEnrichment, "decode chat response").Build()
	}
	if len(parsed.Choices) == 0 {
		return Suggestion{}, ferrors.EnrichmentError("chat response has no choices").Build()
	}

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &suggestion); err != nil {
		return Suggestion{}, ferrors.WrapError(err, ferrors.CategoryEnrichment, "model returned non-JSON content").Build()
	}
	if suggestion.Priority < 0 || suggestion.Priority > 4 {
		suggestion.Priority = 0
	}
	return suggestion, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
