package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/copywriting24/genapi/internal/provider"
)

const defaultTemperature = 0.7

type AnthropicProvider struct {
	apiKey  string
	model   string
	baseURL string
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      anthropicUsage     `json:"usage"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicStreamEvent struct {
	Type    string          `json:"type"`
	Message *anthropicStart `json:"message,omitempty"`
	Delta   anthropicDelta  `json:"delta,omitempty"`
	Usage   *anthropicUsage `json:"usage,omitempty"`
	Error   *anthropicError `json:"error,omitempty"`
}

type anthropicStart struct {
	Model string         `json:"model"`
	Usage anthropicUsage `json:"usage"`
}

type anthropicDelta struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func New(apiKey, model string) provider.Provider {
	return &AnthropicProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.anthropic.com/v1",
	}
}

func (p *AnthropicProvider) newRequest(ctx context.Context, req *provider.Request, stream bool) (*http.Request, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       p.model,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	return httpReq, nil
}

func (p *AnthropicProvider) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	httpReq, err := p.newRequest(ctx, req, false)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("anthropic api returned no content")
	}

	return &provider.Response{
		Content:      apiResp.Content[0].Text,
		Model:        apiResp.Model,
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
		StopReason:   apiResp.StopReason,
	}, nil
}

func (p *AnthropicProvider) CompleteStream(ctx context.Context, req *provider.Request) (<-chan *provider.Chunk, error) {
	httpReq, err := p.newRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan *provider.Chunk)

	// Terminal chunks (Err, or the final Done) are sent unconditionally;
	// consumers read until they see one. Only delta sends are ctx-guarded.
	go func() {
		defer close(ch)

		resp, err := http.DefaultClient.Do(httpReq)
		if err != nil {
			ch <- &provider.Chunk{Err: err}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			ch <- &provider.Chunk{Err: fmt.Errorf("anthropic api error (status %d): %s", resp.StatusCode, string(respBody))}
			return
		}

		// Usage arrives split across the stream: input tokens on
		// message_start, output tokens and stop reason on message_delta.
		final := &provider.Chunk{Done: true, Model: p.model}

		reader := bufio.NewReader(resp.Body)
		var currentEvent string

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					ch <- final
					return
				}
				ch <- &provider.Chunk{Err: err}
				return
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "event: ") {
				currentEvent = strings.TrimPrefix(line, "event: ")
				continue
			}

			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			switch currentEvent {
			case "message_start":
				var event anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &event); err == nil && event.Message != nil {
					final.InputTokens = event.Message.Usage.InputTokens
					if event.Message.Model != "" {
						final.Model = event.Message.Model
					}
				}
			case "content_block_delta":
				var event anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &event); err != nil {
					continue
				}
				if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
					select {
					case ch <- &provider.Chunk{Delta: event.Delta.Text}:
					case <-ctx.Done():
						return
					}
				}
			case "message_delta":
				var event anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &event); err == nil {
					if event.Delta.StopReason != "" {
						final.StopReason = event.Delta.StopReason
					}
					if event.Usage != nil {
						final.OutputTokens = event.Usage.OutputTokens
					}
				}
			case "message_stop":
				ch <- final
				return
			case "error":
				var event anthropicStreamEvent
				if err := json.Unmarshal([]byte(data), &event); err == nil && event.Error != nil {
					ch <- &provider.Chunk{Err: fmt.Errorf("anthropic stream error: %s", event.Error.Message)}
					return
				}
			}
		}
	}()

	return ch, nil
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Model() string {
	return p.model
}
