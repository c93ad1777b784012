package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/copywriting24/genapi/internal/postproc"
	"github.com/copywriting24/genapi/internal/prompt"
	"github.com/copywriting24/genapi/internal/provider"
	"github.com/copywriting24/genapi/internal/quota"
	"github.com/copywriting24/genapi/internal/record"
)

const (
	maxErrorMessageLen = 1000
	finalizeTimeout    = 10 * time.Second
)

type Request struct {
	Topic       string   `json:"topic" validate:"required,min=3,max=500"`
	Length      int      `json:"length" validate:"required,oneof=1000 2000 3000"`
	Keywords    []string `json:"keywords" validate:"omitempty,max=5,dive,max=60"`
	Fingerprint string   `json:"fingerprint" validate:"required,min=8,max=128"`
}

// RequestMeta is the transport context captured on the audit record.
type RequestMeta struct {
	UserAgent  string
	Referer    string
	AcceptLang string
}

type Result struct {
	Text      string
	Length    int
	Remaining int
	ResetAt   time.Time
}

// Service is the generation orchestrator: it admits a request against the
// quota ledger, persists the lifecycle record, invokes the provider and
// finalizes the record. Every admitted request creates exactly one record
// and updates it exactly once, success or failure.
type Service struct {
	store    record.Store
	ledger   *quota.Ledger
	engine   *Engine
	validate *validator.Validate

	priceInputUSD  float64
	priceOutputUSD float64
	timeout        time.Duration
}

func NewService(store record.Store, ledger *quota.Ledger, engine *Engine, priceInputUSD, priceOutputUSD float64, timeout time.Duration) *Service {
	return &Service{
		store:          store,
		ledger:         ledger,
		engine:         engine,
		validate:       validator.New(),
		priceInputUSD:  priceInputUSD,
		priceOutputUSD: priceOutputUSD,
		timeout:        timeout,
	}
}

func (s *Service) Validate(req *Request) *ValidationError {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Details: []string{err.Error()}}
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Details: details}
}

// admit runs validation and the quota check; no side effects on rejection.
func (s *Service) admit(ctx context.Context, req *Request, ip string) (*quota.Status, error) {
	if verr := s.Validate(req); verr != nil {
		return nil, verr
	}

	status, err := s.ledger.Check(ctx, req.Fingerprint, ip)
	if err != nil {
		return nil, err
	}
	if !status.Allowed {
		return nil, &QuotaExceededError{ResetAt: status.ResetAt}
	}
	return status, nil
}

// createRecord persists the pending record before the provider call so a
// crash mid-generation still leaves an auditable row. A failed write is
// fatal to the request: generation never runs without a record.
func (s *Service) createRecord(ctx context.Context, req *Request, ip string, meta RequestMeta) (*record.Generation, error) {
	rec := &record.Generation{
		Fingerprint: req.Fingerprint,
		IP:          ip,
		Topic:       req.Topic,
		Length:      req.Length,
		Keywords:    req.Keywords,
		UserAgent:   meta.UserAgent,
		Referer:     meta.Referer,
		AcceptLang:  meta.AcceptLang,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create generation record: %w", err)
	}
	return rec, nil
}

func (s *Service) failRecord(ctx context.Context, id string, cause error) {
	finCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	if err := s.store.Fail(finCtx, id, truncate(cause.Error(), maxErrorMessageLen)); err != nil {
		logrus.WithError(err).WithField("record_id", id).Error("failed to mark generation record as error")
	}
}

func (s *Service) completeRecord(ctx context.Context, id string, m *postproc.Metrics) error {
	finCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	return s.store.Complete(finCtx, id, &record.Completion{
		Result:       m.Result,
		ResultLength: m.ResultLength,
		PlainLength:  m.PlainLength,
		Model:        m.Model,
		InputTokens:  m.InputTokens,
		OutputTokens: m.OutputTokens,
		TotalTokens:  m.TotalTokens,
		CostUSD:      m.CostUSD,
		LatencyMs:    m.LatencyMs,
		StopReason:   m.StopReason,
		PromptLength: m.PromptLength,
	})
}

func (s *Service) finish(ctx context.Context, req *Request, ip string, rec *record.Generation, m *postproc.Metrics) (*Result, error) {
	if err := s.completeRecord(ctx, rec.ID, m); err != nil {
		s.failRecord(ctx, rec.ID, err)
		return nil, err
	}

	fresh, err := s.ledger.Check(ctx, req.Fingerprint, ip)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"record_id":     rec.ID,
		"result_length": m.ResultLength,
		"plain_length":  m.PlainLength,
		"latency_ms":    m.LatencyMs,
		"cost_usd":      m.CostUSD,
		"stop_reason":   m.StopReason,
	}).Info("generation completed")

	return &Result{
		Text:      m.Result,
		Length:    m.ResultLength,
		Remaining: fresh.Remaining,
		ResetAt:   fresh.ResetAt,
	}, nil
}

func (s *Service) metrics(instruction, content, model string, inputTokens, outputTokens int, latency time.Duration, stopReason string) *postproc.Metrics {
	finalText := postproc.Normalize(content)
	if model == "" {
		model = s.engine.Model()
	}
	if stopReason == "" {
		stopReason = "unknown"
	}
	return postproc.ComputeMetrics(
		finalText, model, inputTokens, outputTokens,
		utf8.RuneCountInString(instruction), latency.Milliseconds(), stopReason,
		s.priceInputUSD, s.priceOutputUSD,
	)
}

// Generate runs the blocking lifecycle: admit, persist a pending record,
// invoke the provider, post-process, finalize, re-read the quota for the
// fresh remaining count.
func (s *Service) Generate(ctx context.Context, req *Request, ip string, meta RequestMeta) (*Result, error) {
	if _, err := s.admit(ctx, req, ip); err != nil {
		return nil, err
	}

	rec, err := s.createRecord(ctx, req, ip, meta)
	if err != nil {
		return nil, err
	}

	instruction := prompt.Build(prompt.Params{Topic: req.Topic, TargetLength: req.Length, Keywords: req.Keywords})
	maxTokens := postproc.MaxTokens(req.Length)

	logrus.WithFields(logrus.Fields{
		"record_id":  rec.ID,
		"topic":      req.Topic,
		"target":     req.Length,
		"max_tokens": maxTokens,
	}).Info("generation started")

	// Detached from the caller: a client disconnect must not abort the
	// provider call or the record finalization.
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.engine.Complete(genCtx, &provider.Request{Prompt: instruction, MaxTokens: maxTokens})
	latency := time.Since(start)
	if err != nil {
		s.failRecord(ctx, rec.ID, err)
		return nil, &ProviderError{Err: err}
	}

	m := s.metrics(instruction, resp.Content, resp.Model, resp.InputTokens, resp.OutputTokens, latency, resp.StopReason)
	return s.finish(ctx, req, ip, rec, m)
}

// GenerateStream runs the same lifecycle but forwards provider deltas to
// onChunk as they arrive. Admission errors are returned before the first
// onChunk call, so the transport can still answer with a plain status.
func (s *Service) GenerateStream(ctx context.Context, req *Request, ip string, meta RequestMeta, onChunk func(text string)) (*Result, error) {
	if _, err := s.admit(ctx, req, ip); err != nil {
		return nil, err
	}

	rec, err := s.createRecord(ctx, req, ip, meta)
	if err != nil {
		return nil, err
	}

	instruction := prompt.Build(prompt.Params{Topic: req.Topic, TargetLength: req.Length, Keywords: req.Keywords})
	maxTokens := postproc.MaxTokens(req.Length)

	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := time.Now()
	ch, err := s.engine.CompleteStream(genCtx, &provider.Request{Prompt: instruction, MaxTokens: maxTokens})
	if err != nil {
		s.failRecord(ctx, rec.ID, err)
		return nil, &ProviderError{Err: err}
	}

	var full strings.Builder
	final := &provider.Chunk{}
	for chunk := range ch {
		if chunk.Err != nil {
			s.failRecord(ctx, rec.ID, chunk.Err)
			return nil, &ProviderError{Err: chunk.Err}
		}
		if chunk.Done {
			final = chunk
			break
		}
		full.WriteString(chunk.Delta)
		onChunk(chunk.Delta)
	}
	latency := time.Since(start)

	// A stream that closes without a terminal chunk never carried real
	// usage; it must not finalize as completed.
	if !final.Done {
		cause := genCtx.Err()
		if cause == nil {
			cause = errors.New("stream closed before completion")
		}
		s.failRecord(ctx, rec.ID, cause)
		return nil, &ProviderError{Err: cause}
	}

	m := s.metrics(instruction, full.String(), final.Model, final.InputTokens, final.OutputTokens, latency, final.StopReason)
	return s.finish(ctx, req, ip, rec, m)
}

// LimitStatus answers the read-only quota endpoint.
func (s *Service) LimitStatus(ctx context.Context, fingerprint, ip string) (*quota.Status, error) {
	return s.ledger.Check(ctx, fingerprint, ip)
}
