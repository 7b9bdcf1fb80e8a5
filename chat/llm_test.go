package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLLMClientValidation(t *testing.T) {
	_, err := NewLLMClient("", "qwen2.5", "", zap.NewNop())
	assert.Error(t, err)
	_, err = NewLLMClient("http://localhost:11434/v1", "", "", zap.NewNop())
	assert.Error(t, err)
	c, err := NewLLMClient("http://localhost:11434/v1/", "qwen2.5", "", zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestGenerate(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "qwen2.5",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Khanh works mainly with Go and React."}, "finish_reason": "stop"}],
			"usage": {"total_tokens": 42}
		}`))
	}))
	defer srv.Close()

	c, err := NewLLMClient(srv.URL, "qwen2.5", "test-key", zap.NewNop())
	require.NoError(t, err)

	reply, err := c.Generate(context.Background(), "what does Khanh use?", testContext(), []KnowledgeEntry{
		{Question: "Stack?", Answer: "Go and React."},
	})
	require.NoError(t, err)
	assert.Equal(t, "Khanh works mainly with Go and React.", reply)

	assert.Equal(t, "qwen2.5", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Contains(t, gotBody.Messages[0].Content, "Khanh")
	assert.Contains(t, gotBody.Messages[0].Content, "Stack?")
	assert.Equal(t, "what does Khanh use?", gotBody.Messages[1].Content)
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "model not loaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewLLMClient(srv.URL, "qwen2.5", "", zap.NewNop())
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hi", Context{}, nil)
	assert.Error(t, err)
}

func TestRespondFallsBackWhenLLMFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := setupTestStore(t)
	llm, err := NewLLMClient(srv.URL, "qwen2.5", "", zap.NewNop())
	require.NoError(t, err)
	svc := NewService(s, llm, zap.NewNop())

	// Generation fails, so the rule-based path answers instead.
	reply := svc.Respond(context.Background(), "sess", "kỹ năng", testContext())
	assert.Contains(t, reply, "React")
}
