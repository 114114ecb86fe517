package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bible-chat/backend/internal/llm"
)

// geminiServer fakes the generative-language API. Streaming requests receive
// every body in order as SSE events, other requests receive the first body.
func geminiServer(t *testing.T, status int, bodies ...string) (*httptest.Server, *recordedRequests) {
	t.Helper()
	requests := &recordedRequests{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(raw, &decoded)
		requests.add(decoded)

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, bodies[0])
			return
		}

		if strings.Contains(r.URL.Path, "streamGenerateContent") {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, b := range bodies {
				_, _ = fmt.Fprintf(w, "data: %s\n\n", b)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, bodies[0])
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

type recordedRequests struct {
	mu   sync.Mutex
	list []map[string]any
}

func (r *recordedRequests) add(req map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, req)
}

func (r *recordedRequests) all() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.list...)
}

func newGemini(t *testing.T, url string) *llm.GeminiBackend {
	t.Helper()
	b, err := llm.NewGeminiBackend(context.Background(), llm.GeminiConfig{Name: "gemini-key-1", APIKey: "test-key", BaseURL: url})
	require.NoError(t, err)
	return b
}

func TestNewGeminiBackend_RequiresKey(t *testing.T) {
	_, err := llm.NewGeminiBackend(context.Background(), llm.GeminiConfig{})
	assert.Error(t, err)
}

func TestGeminiBackend_Generate(t *testing.T) {
	srv, requests := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Faith Over Fear"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":4}}`)
	backend := newGemini(t, srv.URL)
	assert.Equal(t, "gemini-key-1", backend.Name())

	resp, err := backend.Generate(context.Background(), &llm.Request{
		Model:    "gemini-2.5-flash",
		System:   "You will generate a short title",
		Messages: []llm.Message{llm.TextMessage(llm.RoleUser, "How do I stop being anxious?")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Faith Over Fear", resp.Text)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, llm.Usage{InputTokens: 12, OutputTokens: 4}, resp.Usage)

	sent := requests.all()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "systemInstruction")
	assert.Contains(t, sent[0], "contents")
}

func TestGeminiBackend_GenerateStream(t *testing.T) {
	srv, requests := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Let me recall Psalm 23.","thought":true}]}}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"The Lord is "}]}}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"my shepherd."}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":20,"candidatesTokenCount":6}}`,
	)
	backend := newGemini(t, srv.URL)

	stream, err := backend.GenerateStream(context.Background(), &llm.Request{
		Model:            "gemini-2.5-flash",
		Messages:         []llm.Message{llm.TextMessage(llm.RoleUser, "Psalm 23?")},
		IncludeReasoning: true,
		Tools: []llm.ToolSpec{{
			Name:        "getWeather",
			Description: "Get the current weather at a location",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"latitude": map[string]any{"type": "number"}},
				"required":   []string{"latitude"},
			},
		}},
	})
	require.NoError(t, err)

	var kinds []llm.ChunkKind
	var text strings.Builder
	var finish llm.Chunk
	for c := range stream {
		kinds = append(kinds, c.Kind)
		if c.Kind == llm.ChunkText {
			text.WriteString(c.Text)
		}
		if c.Kind == llm.ChunkFinish {
			finish = c
		}
	}

	assert.Equal(t, []llm.ChunkKind{llm.ChunkReasoning, llm.ChunkText, llm.ChunkText, llm.ChunkFinish}, kinds)
	assert.Equal(t, "The Lord is my shepherd.", text.String())
	assert.Equal(t, "STOP", finish.FinishReason)
	assert.Equal(t, 6, finish.Usage.OutputTokens)

	sent := requests.all()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "tools")
}

func TestGeminiBackend_ToolCall(t *testing.T) {
	srv, _ := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"getWeather","args":{"latitude":31.77,"longitude":35.21}}}]},"finishReason":"STOP"}]}`)
	backend := newGemini(t, srv.URL)

	stream, err := backend.GenerateStream(context.Background(), &llm.Request{
		Model:    "gemini-2.5-flash",
		Messages: []llm.Message{llm.TextMessage(llm.RoleUser, "Weather in Jerusalem?")},
	})
	require.NoError(t, err)

	resp, err := llm.Collect(context.Background(), stream)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "getWeather", resp.ToolCalls[0].Name)
	assert.NotEmpty(t, resp.ToolCalls[0].ID)
	assert.InDelta(t, 31.77, resp.ToolCalls[0].Args["latitude"], 0.001)
}

func TestGeminiBackend_Errors(t *testing.T) {
	t.Run("Bad request is not retryable", func(t *testing.T) {
		srv, _ := geminiServer(t, http.StatusBadRequest,
			`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
		backend := newGemini(t, srv.URL)

		_, err := backend.GenerateStream(context.Background(), &llm.Request{
			Model:    "gemini-2.5-flash",
			Messages: []llm.Message{llm.TextMessage(llm.RoleUser, "hi")},
		})
		require.Error(t, err)

		var apiErr *llm.APICallError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.False(t, llm.IsRetryable(err))
	})

	t.Run("Rate limit is retryable", func(t *testing.T) {
		srv, _ := geminiServer(t, http.StatusTooManyRequests,
			`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`)
		backend := newGemini(t, srv.URL)

		_, err := backend.Generate(context.Background(), &llm.Request{
			Model:    "gemini-2.5-flash",
			Messages: []llm.Message{llm.TextMessage(llm.RoleUser, "hi")},
		})
		require.Error(t, err)
		assert.True(t, llm.IsRetryable(err))
		assert.True(t, llm.IsQuotaExceeded(err))
	})
}
