package record

import (
	"context"
	"fmt"
	"time"
)

// DashboardStats is the aggregate view behind the admin dashboard.
type DashboardStats struct {
	TotalGenerations int `json:"totalGenerations"`
	TodayGenerations int `json:"todayGenerations"`
	WeekGenerations  int `json:"weekGenerations"`
	MonthGenerations int `json:"monthGenerations"`
	TotalErrors      int `json:"totalErrors"`
	TodayErrors      int `json:"todayErrors"`

	TodayUniqueIPs          int `json:"todayUniqueIps"`
	TodayUniqueFingerprints int `json:"todayUniqueFingerprints"`
	TotalUniqueIPs          int `json:"totalUniqueIps"`

	TotalCostUSD float64 `json:"totalCostUsd"`
	TodayCostUSD float64 `json:"todayCostUsd"`
	WeekCostUSD  float64 `json:"weekCostUsd"`
	MonthCostUSD float64 `json:"monthCostUsd"`

	AvgLatencyMs      int64 `json:"avgLatencyMs"`
	TodayAvgLatencyMs int64 `json:"todayAvgLatencyMs"`

	TotalInputTokens  int64 `json:"totalInputTokens"`
	TotalOutputTokens int64 `json:"totalOutputTokens"`
	TotalTokens       int64 `json:"totalTokens"`

	LengthDistribution []LengthBucket `json:"lengthDistribution"`
	RecentGenerations  []*Generation  `json:"recentGenerations"`
}

type LengthBucket struct {
	Length int `json:"length"`
	Count  int `json:"count"`
}

// UserSummary groups records by (ip, fingerprint) for the admin user list.
type UserSummary struct {
	IP               string    `json:"ip"`
	Fingerprint      string    `json:"fingerprint"`
	TotalGenerations int       `json:"totalGenerations"`
	Completed        int       `json:"completed"`
	Errors           int       `json:"errors"`
	TotalCostUSD     float64   `json:"totalCost"`
	TotalTokens      int64     `json:"totalTokens"`
	AvgLatencyMs     int64     `json:"avgLatency"`
	FirstSeen        time.Time `json:"firstSeen"`
	LastSeen         time.Time `json:"lastSeen"`
	TodayCount       int       `json:"todayCount"`
}

// IPStats aggregates all records of a single IP.
type IPStats struct {
	Count        int     `json:"count"`
	TotalCostUSD float64 `json:"totalCostUsd"`
	TotalTokens  int64   `json:"totalTokens"`
	AvgLatencyMs int64   `json:"avgLatencyMs"`
	AvgCostUSD   float64 `json:"avgCostUsd"`
}

type HourlyBucket struct {
	Hour         int     `json:"hour"`
	Count        int     `json:"count"`
	Completed    int     `json:"completed"`
	Errors       int     `json:"errors"`
	CostUSD      float64 `json:"cost"`
	AvgLatencyMs int64   `json:"avgLatency"`
}

type DailyBucket struct {
	Date         string  `json:"date"`
	Count        int     `json:"count"`
	UniqueIPs    int     `json:"uniqueIps"`
	CostUSD      float64 `json:"cost"`
	AvgLatencyMs int64   `json:"avgLatency"`
	Tokens       int64   `json:"tokens"`
}

// Reporter exposes the read-only aggregation queries consumed by the
// admin reporting layer.
type Reporter interface {
	Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error)
	UserSummaries(ctx context.Context, page, limit int, search string) ([]*UserSummary, int, error)
	GenerationsByIP(ctx context.Context, ip string, limit int) ([]*Generation, *IPStats, error)
	HourlyStats(ctx context.Context, since time.Time) ([]HourlyBucket, error)
	DailyStats(ctx context.Context, since time.Time) ([]DailyBucket, error)
}

func (s *PostgresStore) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := now.AddDate(0, 0, -7)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var d DashboardStats

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE created_at >= $3),
			COUNT(*) FILTER (WHERE status = 'error'),
			COUNT(*) FILTER (WHERE status = 'error' AND created_at >= $1),
			COUNT(DISTINCT ip) FILTER (WHERE created_at >= $1),
			COUNT(DISTINCT fingerprint) FILTER (WHERE created_at >= $1),
			COUNT(DISTINCT ip),
			COALESCE(SUM(cost_usd), 0),
			COALESCE(SUM(cost_usd) FILTER (WHERE created_at >= $1), 0),
			COALESCE(SUM(cost_usd) FILTER (WHERE created_at >= $2), 0),
			COALESCE(SUM(cost_usd) FILTER (WHERE created_at >= $3), 0),
			COALESCE(AVG(latency_ms) FILTER (WHERE status = 'completed'), 0)::bigint,
			COALESCE(AVG(latency_ms) FILTER (WHERE status = 'completed' AND created_at >= $1), 0)::bigint,
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(total_tokens), 0)
		FROM generations
	`
	err := s.db.QueryRow(ctx, query, startOfDay, startOfWeek, startOfMonth).Scan(
		&d.TotalGenerations, &d.TodayGenerations, &d.WeekGenerations, &d.MonthGenerations,
		&d.TotalErrors, &d.TodayErrors,
		&d.TodayUniqueIPs, &d.TodayUniqueFingerprints, &d.TotalUniqueIPs,
		&d.TotalCostUSD, &d.TodayCostUSD, &d.WeekCostUSD, &d.MonthCostUSD,
		&d.AvgLatencyMs, &d.TodayAvgLatencyMs,
		&d.TotalInputTokens, &d.TotalOutputTokens, &d.TotalTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard stats: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT length, COUNT(*) FROM generations GROUP BY length ORDER BY length ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query length distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b LengthBucket
		if err := rows.Scan(&b.Length, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan length bucket: %w", err)
		}
		d.LengthDistribution = append(d.LengthDistribution, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating length distribution: %w", err)
	}

	recent, _, err := s.List(ctx, ListFilter{SortBy: "createdAt", SortDesc: true, Page: 1, Limit: 10})
	if err != nil {
		return nil, err
	}
	d.RecentGenerations = recent

	return &d, nil
}

func (s *PostgresStore) UserSummaries(ctx context.Context, page, limit int, search string) ([]*UserSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	where := ""
	args := []any{limit, (page - 1) * limit}
	if search != "" {
		where = ` WHERE ip LIKE '%' || $3 || '%' OR topic ILIKE '%' || $3 || '%'`
		args = append(args, search)
	}

	query := `
		SELECT
			ip,
			fingerprint,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'error'),
			COALESCE(SUM(cost_usd), 0),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(AVG(latency_ms), 0)::bigint,
			MIN(created_at),
			MAX(created_at),
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE)
		FROM generations` + where + `
		GROUP BY ip, fingerprint
		ORDER BY MAX(created_at) DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query user summaries: %w", err)
	}
	defer rows.Close()

	var users []*UserSummary
	for rows.Next() {
		var u UserSummary
		err := rows.Scan(
			&u.IP, &u.Fingerprint, &u.TotalGenerations, &u.Completed, &u.Errors,
			&u.TotalCostUSD, &u.TotalTokens, &u.AvgLatencyMs,
			&u.FirstSeen, &u.LastSeen, &u.TodayCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user summary: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user summaries: %w", err)
	}

	countWhere := ""
	var countArgs []any
	if search != "" {
		countWhere = ` WHERE ip LIKE '%' || $1 || '%' OR topic ILIKE '%' || $1 || '%'`
		countArgs = append(countArgs, search)
	}
	// Rows are grouped by (ip, fingerprint), so the total counts the same
	// pairs or the page math drifts.
	var total int
	countQuery := `SELECT COUNT(*) FROM (SELECT 1 FROM generations` + countWhere + ` GROUP BY ip, fingerprint) AS identities`
	err = s.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	return users, total, nil
}

func (s *PostgresStore) GenerationsByIP(ctx context.Context, ip string, limit int) ([]*Generation, *IPStats, error) {
	if limit < 1 || limit > 100 {
		limit = 100
	}

	generations, _, err := s.List(ctx, ListFilter{IP: ip, SortBy: "createdAt", SortDesc: true, Page: 1, Limit: limit})
	if err != nil {
		return nil, nil, err
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(cost_usd), 0),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(AVG(latency_ms), 0)::bigint,
			COALESCE(AVG(cost_usd), 0)
		FROM generations
		WHERE ip = $1
	`
	var stats IPStats
	err = s.db.QueryRow(ctx, query, ip).Scan(
		&stats.Count, &stats.TotalCostUSD, &stats.TotalTokens,
		&stats.AvgLatencyMs, &stats.AvgCostUSD,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query ip stats: %w", err)
	}

	return generations, &stats, nil
}

func (s *PostgresStore) HourlyStats(ctx context.Context, since time.Time) ([]HourlyBucket, error) {
	query := `
		SELECT
			EXTRACT(HOUR FROM created_at)::int,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'error'),
			COALESCE(SUM(cost_usd), 0),
			COALESCE(AVG(latency_ms), 0)::bigint
		FROM generations
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1
	`
	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly stats: %w", err)
	}
	defer rows.Close()

	var buckets []HourlyBucket
	for rows.Next() {
		var b HourlyBucket
		if err := rows.Scan(&b.Hour, &b.Count, &b.Completed, &b.Errors, &b.CostUSD, &b.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan hourly bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hourly stats: %w", err)
	}

	return buckets, nil
}

func (s *PostgresStore) DailyStats(ctx context.Context, since time.Time) ([]DailyBucket, error) {
	query := `
		SELECT
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD'),
			COUNT(*),
			COUNT(DISTINCT ip),
			COALESCE(SUM(cost_usd), 0),
			COALESCE(AVG(latency_ms), 0)::bigint,
			COALESCE(SUM(total_tokens), 0)
		FROM generations
		WHERE created_at >= $1
		GROUP BY DATE(created_at)
		ORDER BY 1
	`
	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var buckets []DailyBucket
	for rows.Next() {
		var b DailyBucket
		if err := rows.Scan(&b.Date, &b.Count, &b.UniqueIPs, &b.CostUSD, &b.AvgLatencyMs, &b.Tokens); err != nil {
			return nil, fmt.Errorf("failed to scan daily bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stats: %w", err)
	}

	return buckets, nil
}
