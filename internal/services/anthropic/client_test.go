package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tubedigest/internal/services"
)

func TestGenerateSendsMessagesRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("missing anthropic-version header")
		}
		var payload struct {
			Model       string  `json:"model"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
			System      string  `json:"system"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Model != "claude-3-sonnet-20240229" || payload.MaxTokens != 4096 || payload.Temperature != 0.7 {
			t.Errorf("request = %+v", payload)
		}
		if payload.System != "be concise" {
			t.Errorf("system = %q", payload.System)
		}
		if len(payload.Messages) != 1 || payload.Messages[0].Role != "user" || payload.Messages[0].Content != "summarize this" {
			t.Errorf("messages = %+v", payload.Messages)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"a tidy summary"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	text, err := client.Generate(context.Background(), "be concise", "summarize this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "a tidy summary" {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateSkipsNonTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"thinking","text":""},{"type":"text","text":"answer"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	text, err := client.Generate(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "answer" {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateAPIErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.Generate(context.Background(), "", "prompt")
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("err = %v, want external api", err)
	}
}

func TestGenerateHTTPErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.Generate(context.Background(), "", "prompt")
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("err = %v, want external api", err)
	}
}

func TestGenerateRequiresPromptAndKey(t *testing.T) {
	client := NewClient("test-key")
	if _, err := client.Generate(context.Background(), "", "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("blank prompt err = %v, want validation", err)
	}

	client = NewClient("")
	if _, err := client.Generate(context.Background(), "", "prompt"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing key err = %v, want configuration", err)
	}
}
