package perception

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req OpenAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 0.1, req.Temperature)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "be brief", req.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hello there \n"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(ClientConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini", Temperature: 0.1})
	out, err := c.CompleteWithSystem(context.Background(), "be brief", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
}

func TestOpenAIClient_MissingKey(t *testing.T) {
	c := NewOpenAIClient(ClientConfig{Model: "gpt-4o-mini"})
	_, err := c.Complete(context.Background(), "hi")
	assert.Error(t, err)
}

func TestOpenAIClient_ProbeDoesNotRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(ClientConfig{APIKey: "k", BaseURL: srv.URL, MaxRetries: 3, Timeout: 5 * time.Second})
	err := c.Probe(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestOpenAIClient_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(ClientConfig{APIKey: "k", BaseURL: srv.URL, MaxRetries: 3})
	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestOllamaClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, 0.2, req.Options.Temperature)
		assert.Equal(t, defaultSystemPrompt, req.Messages[0].Content)

		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"local reply"}}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(ClientConfig{BaseURL: srv.URL + "/", Model: "llama3:8b", Temperature: 0.2})
	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "local reply", out)
}

func TestOllamaClient_ModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3:8b' not found"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(ClientConfig{BaseURL: srv.URL, Model: "llama3:8b"})
	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAnthropicClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ant-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req AnthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "persona system", req.System)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"bridged"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(ClientConfig{APIKey: "ant-key", BaseURL: srv.URL, Model: "claude-3-haiku-20240307"})
	out, err := c.CompleteWithSystem(context.Background(), "persona system", "hi")
	require.NoError(t, err)
	assert.Equal(t, "bridged", out)
}

func TestWithDefaultTimeout(t *testing.T) {
	ctx, cancel := withDefaultTimeout(context.Background(), time.Minute)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.True(t, ok)

	parent, pcancel := context.WithTimeout(context.Background(), time.Second)
	defer pcancel()
	ctx2, cancel2 := withDefaultTimeout(parent, time.Minute)
	defer cancel2()
	d1, _ := parent.Deadline()
	d2, _ := ctx2.Deadline()
	assert.Equal(t, d1, d2)
}
