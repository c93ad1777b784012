package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/copywriting24/genapi/internal/provider"
)

// Engine guards the generation capability with a circuit breaker so a
// struggling upstream sheds load quickly instead of queueing requests
// against its timeout.
type Engine struct {
	provider provider.Provider
	breaker  *gobreaker.CircuitBreaker
}

func NewEngine(p provider.Provider) *Engine {
	settings := gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Engine{
		provider: p,
		breaker:  gobreaker.NewCircuitBreaker(settings),
	}
}

func (e *Engine) Model() string {
	return e.provider.Model()
}

func (e *Engine) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.provider.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*provider.Response), nil
}

func (e *Engine) CompleteStream(ctx context.Context, req *provider.Request) (<-chan *provider.Chunk, error) {
	if e.breaker.State() == gobreaker.StateOpen {
		return nil, fmt.Errorf("circuit breaker is open for provider: %s", e.provider.Name())
	}

	origCh, err := e.provider.CompleteStream(ctx, req)
	if err != nil {
		_, _ = e.breaker.Execute(func() (interface{}, error) {
			return nil, err
		})
		return nil, err
	}

	wrappedCh := make(chan *provider.Chunk)
	go func() {
		defer close(wrappedCh)
		for chunk := range origCh {
			if chunk.Err != nil {
				_, _ = e.breaker.Execute(func() (interface{}, error) {
					return nil, chunk.Err
				})
			}
			// Terminal chunks are delivered unconditionally; the consumer
			// reads until it sees one, so a timeout never surfaces as a
			// silent close.
			if chunk.Err != nil || chunk.Done {
				wrappedCh <- chunk
				continue
			}
			select {
			case wrappedCh <- chunk:
			case <-ctx.Done():
				// Drain so the provider goroutine can deliver its terminal
				// chunk and exit.
				for range origCh {
				}
				return
			}
		}
	}()

	return wrappedCh, nil
}
