package openaiLLM

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestComplete_SendsPromptAndReturnsContent(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "Paris."},
			}},
		})
	}))
	defer srv.Close()

	p := NewOpenAIClient("sk-test", srv.URL+"/v1/", "gpt-4o-mini", nil)
	answer, err := p.Complete(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "Paris." {
		t.Errorf("answer got %q, want Paris.", answer)
	}
	if gotPrompt != "What is the capital of France?" {
		t.Errorf("prompt got %q", gotPrompt)
	}
}

func TestComplete_PropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIClient("sk-test", srv.URL+"/v1/", "gpt-4o-mini", nil)
	if _, err := p.Complete(context.Background(), "q"); err == nil {
		t.Error("expected error from a failing chat model")
	}
}
