// Package provider abstracts the external text-generation capability:
// a black box with a blocking request/response contract and a streaming
// chunk contract.
package provider

import (
	"context"
)

type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// Chunk is one streaming event. Delta chunks carry text; the final chunk
// has Done set and carries the usage totals and stop reason, which only
// become known at the end of the stream.
type Chunk struct {
	Delta string
	Done  bool
	Err   error

	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	CompleteStream(ctx context.Context, req *Request) (<-chan *Chunk, error)
	Name() string
	Model() string
}
