package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const generationColumns = `
	id, fingerprint, ip, topic, length, keywords, status,
	result, result_length, plain_length, model,
	input_tokens, output_tokens, total_tokens, cost_usd, latency_ms,
	stop_reason, prompt_length, user_agent, referer, accept_lang,
	error_message, created_at, completed_at
`

func encodeKeywords(keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("failed to encode keywords: %w", err)
	}
	return string(raw), nil
}

func decodeKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		return nil
	}
	return keywords
}

func (s *PostgresStore) Create(ctx context.Context, g *Generation) error {
	kw, err := encodeKeywords(g.Keywords)
	if err != nil {
		return err
	}

	g.ID = uuid.New().String()
	g.Status = StatusGenerating

	query := `
		INSERT INTO generations (id, fingerprint, ip, topic, length, keywords, status, user_agent, referer, accept_lang)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err = s.db.QueryRow(ctx, query,
		g.ID, g.Fingerprint, g.IP, g.Topic, g.Length, kw, g.Status,
		g.UserAgent, g.Referer, g.AcceptLang,
	).Scan(&g.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return nil
}

func (s *PostgresStore) Complete(ctx context.Context, id string, c *Completion) error {
	query := `
		UPDATE generations SET
			status = $2, result = $3, result_length = $4, plain_length = $5,
			model = $6, input_tokens = $7, output_tokens = $8, total_tokens = $9,
			cost_usd = $10, latency_ms = $11, stop_reason = $12, prompt_length = $13,
			completed_at = now()
		WHERE id = $1 AND status = $14
	`
	tag, err := s.db.Exec(ctx, query,
		id, StatusCompleted, c.Result, c.ResultLength, c.PlainLength,
		c.Model, c.InputTokens, c.OutputTokens, c.TotalTokens,
		c.CostUSD, c.LatencyMs, c.StopReason, c.PromptLength,
		StatusGenerating,
	)
	if err != nil {
		return fmt.Errorf("failed to complete generation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, id string, message string) error {
	query := `
		UPDATE generations SET status = $2, error_message = $3, completed_at = now()
		WHERE id = $1 AND status = $4
	`
	tag, err := s.db.Exec(ctx, query, id, StatusError, message, StatusGenerating)
	if err != nil {
		return fmt.Errorf("failed to mark generation as error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM generations WHERE fingerprint = $1 AND created_at >= $2`
	if err := s.db.QueryRow(ctx, query, fingerprint, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count by fingerprint: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM generations WHERE ip = $1 AND created_at >= $2`
	if err := s.db.QueryRow(ctx, query, ip, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count by ip: %w", err)
	}
	return count, nil
}

func scanGeneration(row pgx.Row) (*Generation, error) {
	var g Generation
	var kw string
	err := row.Scan(
		&g.ID, &g.Fingerprint, &g.IP, &g.Topic, &g.Length, &kw, &g.Status,
		&g.Result, &g.ResultLength, &g.PlainLength, &g.Model,
		&g.InputTokens, &g.OutputTokens, &g.TotalTokens, &g.CostUSD, &g.LatencyMs,
		&g.StopReason, &g.PromptLength, &g.UserAgent, &g.Referer, &g.AcceptLang,
		&g.ErrorMessage, &g.CreatedAt, &g.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Keywords = decodeKeywords(kw)
	return &g, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1`
	g, err := scanGeneration(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return g, nil
}

var sortColumns = map[string]string{
	"createdAt":    "created_at",
	"latencyMs":    "latency_ms",
	"costUsd":      "cost_usd",
	"resultLength": "result_length",
	"length":       "length",
	"totalTokens":  "total_tokens",
}

func (f ListFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.IP != "" {
		add("ip = $%d", f.IP)
	}
	if f.Fingerprint != "" {
		add("fingerprint = $%d", f.Fingerprint)
	}
	if f.Search != "" {
		add("topic ILIKE '%%' || $%d || '%%'", f.Search)
	}
	if f.DateFrom != nil {
		add("created_at >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("created_at <= $%d", *f.DateTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]*Generation, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 25
	}

	orderCol, ok := sortColumns[f.SortBy]
	if !ok {
		orderCol = "created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	where, args := f.whereClause()

	var total int
	countQuery := `SELECT COUNT(*) FROM generations` + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count generations: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM generations%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		generationColumns, where, orderCol, dir, len(args)+1, len(args)+2,
	)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var generations []*Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating generations: %w", err)
	}

	return generations, total, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM generations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete generation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByStatus(ctx context.Context, status Status) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM generations WHERE status = $1`, status)
	if err != nil {
		return 0, fmt.Errorf("failed to delete generations by status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM generations WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete generations by ids: %w", err)
	}
	return tag.RowsAffected(), nil
}
