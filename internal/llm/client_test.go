package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(url string) *Config {
	return &Config{
		APIKey:      "test-key",
		APIURL:      url,
		Model:       "gpt-4o-2024-08-06",
		MaxTokens:   1000,
		Temperature: 0.0,
		Timeout:     10,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing api key", func(c *Config) { c.APIKey = "" }, "API key is required"},
		{"missing api url", func(c *Config) { c.APIURL = "" }, "API URL is required"},
		{"missing model", func(c *Config) { c.Model = "" }, "model is required"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "max tokens must be greater than 0"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "temperature must be between 0 and 2"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig("https://api.openai.com/v1")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfigGetHeaders(t *testing.T) {
	cfg := validConfig("https://api.openai.com/v1")
	headers := cfg.GetHeaders()

	assert.Equal(t, "Bearer test-key", headers["Authorization"])
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestNewClientInvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSimpleChat(t *testing.T) {
	var gotRequest ChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		response := ChatResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o-2024-08-06",
			Choices: []Choice{
				{Index: 0, Message: Message{Role: "assistant", Content: "Yes"}, FinishReason: "stop"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client, err := NewClient(validConfig(server.URL))
	require.NoError(t, err)

	content, err := client.SimpleChat(context.Background(), "Is the sky blue?", "Answer with Yes or No.")
	require.NoError(t, err)
	assert.Equal(t, "Yes", content)

	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, "system", gotRequest.Messages[0].Role)
	assert.Equal(t, "user", gotRequest.Messages[1].Role)
	assert.Equal(t, 1000, gotRequest.MaxTokens)
}

func TestChatCompletionOptionsOverride(t *testing.T) {
	var gotRequest ChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer server.Close()

	client, err := NewClient(validConfig(server.URL))
	require.NoError(t, err)

	opts := NewChatCompletionOptions().
		WithMaxTokens(50).
		WithTemperature(0.7)

	_, err = client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}}, opts)
	require.NoError(t, err)

	assert.Equal(t, 50, gotRequest.MaxTokens)
	assert.InDelta(t, 0.7, gotRequest.Temperature, 1e-9)
}

func TestChatCompletionAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ChatResponse{
			Error: &Error{Message: "Invalid API key", Type: "invalid_request_error"},
		})
	}))
	defer server.Close()

	client, err := NewClient(validConfig(server.URL))
	require.NoError(t, err)

	_, err = client.SimpleChat(context.Background(), "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestSimpleChatNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{ID: "chatcmpl-2"})
	}))
	defer server.Close()

	client, err := NewClient(validConfig(server.URL))
	require.NoError(t, err)

	_, err = client.SimpleChat(context.Background(), "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
