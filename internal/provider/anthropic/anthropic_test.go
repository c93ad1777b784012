package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/copywriting24/genapi/internal/provider"
)

func TestComplete_Mock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("Expected api key header, got %q", got)
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.MaxTokens != 1668 {
			t.Errorf("Expected max_tokens 1668, got %d", req.MaxTokens)
		}
		if req.Temperature != 0.7 {
			t.Errorf("Expected default temperature 0.7, got %v", req.Temperature)
		}

		resp := anthropicResponse{
			ID: "msg_123",
			Content: []anthropicContent{
				{Type: "text", Text: "<h1>Tytuł</h1><p>Treść.</p>"},
			},
			Model:      "claude-haiku-4-5-20251001",
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 1200, OutputTokens: 800},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := &AnthropicProvider{
		apiKey:  "test-key",
		model:   "claude-haiku-4-5-20251001",
		baseURL: server.URL,
	}

	resp, err := p.Complete(context.Background(), &provider.Request{
		Prompt:    "Napisz tekst",
		MaxTokens: 1668,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Content != "<h1>Tytuł</h1><p>Treść.</p>" {
		t.Errorf("Unexpected content: %q", resp.Content)
	}
	if resp.InputTokens != 1200 || resp.OutputTokens != 800 {
		t.Errorf("Unexpected usage: %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("Expected stop reason end_turn, got %q", resp.StopReason)
	}
}

func TestComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	p := &AnthropicProvider{apiKey: "test-key", model: "m", baseURL: server.URL}

	_, err := p.Complete(context.Background(), &provider.Request{Prompt: "x", MaxTokens: 1000})
	if err == nil {
		t.Fatal("Expected error on 429")
	}
}

func TestCompleteStream_Mock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		events := []string{
			"event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"model\":\"claude-haiku-4-5-20251001\",\"usage\":{\"input_tokens\":1200,\"output_tokens\":1}}}\n\n",
			"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"<h1>Tytuł\"}}\n\n",
			"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"</h1>\"}}\n\n",
			"event: message_delta\ndata: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"output_tokens\":800}}\n\n",
			"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n",
		}
		for _, e := range events {
			fmt.Fprint(w, e)
			flusher.Flush()
		}
	}))
	defer server.Close()

	p := &AnthropicProvider{apiKey: "test-key", model: "claude-haiku-4-5-20251001", baseURL: server.URL}

	ch, err := p.CompleteStream(context.Background(), &provider.Request{Prompt: "x", MaxTokens: 1000})
	if err != nil {
		t.Fatalf("CompleteStream failed: %v", err)
	}

	var text string
	var final *provider.Chunk
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("Unexpected chunk error: %v", chunk.Err)
		}
		if chunk.Done {
			final = chunk
			break
		}
		text += chunk.Delta
	}

	if text != "<h1>Tytuł</h1>" {
		t.Errorf("Unexpected streamed text: %q", text)
	}
	if final == nil {
		t.Fatal("Missing final chunk")
	}
	if final.InputTokens != 1200 || final.OutputTokens != 800 {
		t.Errorf("Unexpected final usage: %d/%d", final.InputTokens, final.OutputTokens)
	}
	if final.StopReason != "end_turn" {
		t.Errorf("Expected stop reason end_turn, got %q", final.StopReason)
	}
}

func TestCompleteStream_ErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	}))
	defer server.Close()

	p := &AnthropicProvider{apiKey: "test-key", model: "m", baseURL: server.URL}

	ch, err := p.CompleteStream(context.Background(), &provider.Request{Prompt: "x", MaxTokens: 1000})
	if err != nil {
		t.Fatalf("CompleteStream failed: %v", err)
	}

	var sawErr bool
	for chunk := range ch {
		if chunk.Err != nil {
			sawErr = true
		}
	}
	if !sawErr {
		t.Error("Expected error chunk from error event")
	}
}
