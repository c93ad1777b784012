package generate

import (
	"context"
	"time"

	extratelimit "github.com/vnmchuo/ratelimiter"

	"github.com/copywriting24/genapi/internal/provider"
	"github.com/copywriting24/genapi/internal/record"
)

// Mock record store
type mockStore struct {
	createFunc   func(ctx context.Context, g *record.Generation) error
	completeFunc func(ctx context.Context, id string, c *record.Completion) error
	failFunc     func(ctx context.Context, id string, message string) error
	fpCountFunc  func(ctx context.Context, fingerprint string, since time.Time) (int, error)
	ipCountFunc  func(ctx context.Context, ip string, since time.Time) (int, error)
}

func (m *mockStore) Create(ctx context.Context, g *record.Generation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, g)
	}
	g.ID = "test-record-id"
	g.Status = record.StatusGenerating
	g.CreatedAt = time.Now()
	return nil
}

func (m *mockStore) Complete(ctx context.Context, id string, c *record.Completion) error {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, id, c)
	}
	return nil
}

func (m *mockStore) Fail(ctx context.Context, id string, message string) error {
	if m.failFunc != nil {
		return m.failFunc(ctx, id, message)
	}
	return nil
}

func (m *mockStore) CountByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	if m.fpCountFunc != nil {
		return m.fpCountFunc(ctx, fingerprint, since)
	}
	return 0, nil
}

func (m *mockStore) CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	if m.ipCountFunc != nil {
		return m.ipCountFunc(ctx, ip, since)
	}
	return 0, nil
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*record.Generation, error) {
	return nil, record.ErrNotFound
}

func (m *mockStore) List(ctx context.Context, f record.ListFilter) ([]*record.Generation, int, error) {
	return nil, 0, nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error { return nil }

func (m *mockStore) DeleteByStatus(ctx context.Context, status record.Status) (int64, error) {
	return 0, nil
}

func (m *mockStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) { return 0, nil }

// Mock override store
type mockOverrideStore struct {
	getFunc func(ctx context.Context, ip string) (*record.Override, error)
}

func (m *mockOverrideStore) Get(ctx context.Context, ip string) (*record.Override, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, ip)
	}
	return nil, record.ErrOverrideNotFound
}

func (m *mockOverrideStore) Upsert(ctx context.Context, o *record.Override) error { return nil }
func (m *mockOverrideStore) Delete(ctx context.Context, ip string) error          { return nil }
func (m *mockOverrideStore) List(ctx context.Context) ([]*record.Override, error) {
	return nil, nil
}

// Mock provider
type mockProvider struct {
	completeFunc func(ctx context.Context, req *provider.Request) (*provider.Response, error)
	chunks       []*provider.Chunk
	streamErr    error
}

func (m *mockProvider) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, req)
	}
	return &provider.Response{
		Content:      "<h1>Tytuł</h1><p>Treść artykułu.</p>",
		Model:        "test-model",
		InputTokens:  100,
		OutputTokens: 200,
		StopReason:   "end_turn",
	}, nil
}

func (m *mockProvider) CompleteStream(ctx context.Context, req *provider.Request) (<-chan *provider.Chunk, error) {
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	ch := make(chan *provider.Chunk)
	go func() {
		defer close(ch)
		for _, c := range m.chunks {
			select {
			case ch <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (m *mockProvider) Name() string  { return "mock" }
func (m *mockProvider) Model() string { return "test-model" }

// Mock burst limiter store
type mockLimiterStore struct {
	allowed bool
	err     error
}

func (m *mockLimiterStore) AllowN(ctx context.Context, key string, n int) (*extratelimit.Result, error) {
	return &extratelimit.Result{Allowed: m.allowed}, m.err
}

func (m *mockLimiterStore) Allow(ctx context.Context, key string) (*extratelimit.Result, error) {
	return &extratelimit.Result{Allowed: m.allowed}, m.err
}

func (m *mockLimiterStore) Status(ctx context.Context, key string) (*extratelimit.Result, error) {
	return &extratelimit.Result{Allowed: m.allowed}, m.err
}
