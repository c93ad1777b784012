package record

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("generation not found")
	ErrOverrideNotFound = errors.New("limit override not found")
)

// Status is the lifecycle state of a generation attempt. A record is
// created as StatusGenerating and moves exactly once to StatusCompleted
// or StatusError; the transition is never reversed.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

func (s Status) Valid() bool {
	switch s {
	case StatusGenerating, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Generation is the durable audit row for one generation attempt.
type Generation struct {
	ID          string   `json:"id"`
	Fingerprint string   `json:"fingerprint"`
	IP          string   `json:"ip"`
	Topic       string   `json:"topic"`
	Length      int      `json:"length"`
	Keywords    []string `json:"keywords"`
	Status      Status   `json:"status"`

	Result       string  `json:"result,omitempty"`
	ResultLength int     `json:"resultLength"`
	PlainLength  int     `json:"plainLength"`
	Model        string  `json:"model,omitempty"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	TotalTokens  int     `json:"totalTokens"`
	CostUSD      float64 `json:"costUsd"`
	LatencyMs    int64   `json:"latencyMs"`
	StopReason   string  `json:"stopReason,omitempty"`
	PromptLength int     `json:"promptLength"`

	UserAgent    string `json:"userAgent,omitempty"`
	Referer      string `json:"referer,omitempty"`
	AcceptLang   string `json:"acceptLang,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Completion carries the terminal metrics written when a generation
// succeeds.
type Completion struct {
	Result       string
	ResultLength int
	PlainLength  int
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
	LatencyMs    int64
	StopReason   string
	PromptLength int
}

// ListFilter narrows and pages the admin listing.
type ListFilter struct {
	Status      Status
	IP          string
	Fingerprint string
	Search      string // case-insensitive topic substring
	DateFrom    *time.Time
	DateTo      *time.Time
	SortBy      string // createdAt, latencyMs, costUsd, resultLength, length, totalTokens
	SortDesc    bool
	Page        int
	Limit       int
}

type Store interface {
	// Create inserts a new generating-status record and fills ID/CreatedAt.
	Create(ctx context.Context, g *Generation) error
	// Complete moves a record to completed with its final metrics.
	Complete(ctx context.Context, id string, c *Completion) error
	// Fail moves a record to error with a bounded message.
	Fail(ctx context.Context, id string, message string) error

	// Daily usage counts consumed by the quota ledger.
	CountByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (int, error)
	CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error)

	GetByID(ctx context.Context, id string) (*Generation, error)
	List(ctx context.Context, f ListFilter) ([]*Generation, int, error)

	Delete(ctx context.Context, id string) error
	DeleteByStatus(ctx context.Context, status Status) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// Override is a per-IP adjustment to the base daily quota. A missing row
// means bonus 0.
type Override struct {
	IP        string    `json:"ip"`
	Bonus     int       `json:"bonus"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalBinary implements encoding.BinaryMarshaler for Redis
func (o *Override) MarshalBinary() ([]byte, error) {
	return json.Marshal(o)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Redis
func (o *Override) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, o)
}

type OverrideStore interface {
	Get(ctx context.Context, ip string) (*Override, error)
	Upsert(ctx context.Context, o *Override) error
	Delete(ctx context.Context, ip string) error
	List(ctx context.Context) ([]*Override, error)
}
