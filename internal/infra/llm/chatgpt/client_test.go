package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateChatCompletionSendsPayload(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer gsk_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3-70b-8192","choices":[{"message":{"role":"assistant","content":"- Ship Friday"}}],"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`))
	}))
	defer srv.Close()

	client := NewClient("gsk_key", srv.URL+"/openai/v1/")
	topP := float32(1)
	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:       "llama3-70b-8192",
		Messages:    []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}},
		Temperature: 0.5,
		MaxTokens:   4000,
		TopP:        &topP,
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "- Ship Friday", resp.Choices[0].Message.Content)
	require.Equal(t, 16, resp.Usage.TotalTokens)

	require.Equal(t, "llama3-70b-8192", captured["model"])
	require.Equal(t, 0.5, captured["temperature"])
	require.Equal(t, float64(4000), captured["max_tokens"])
	require.Equal(t, float64(1), captured["top_p"])
	require.Equal(t, false, captured["stream"])
	require.Len(t, captured["messages"], 2)
}

func TestCreateChatCompletionOmitsTopPWhenUnset(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	resp, err := NewClient("sk", srv.URL).CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	require.Empty(t, resp.Choices)
	_, present := captured["top_p"]
	require.False(t, present)
}

func TestCreateChatCompletionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "error message field", status: http.StatusTooManyRequests, body: `{"error":{"message":"Rate limit reached for model"}}`, wantMsg: "Rate limit reached for model"},
		{name: "falls back to status text", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMsg: "Bad Gateway"},
		{name: "empty message", status: http.StatusUnauthorized, body: `{"error":{"message":""}}`, wantMsg: "Unauthorized"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient("key", srv.URL).CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestHasAPIKey(t *testing.T) {
	t.Parallel()
	require.False(t, NewClient(" ", "").HasAPIKey())
	require.True(t, NewClient("k", "").HasAPIKey())
	require.Equal(t, defaultBaseURL, NewClient("k", "").baseURL)
}
