package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type PostgresOverrideStore struct {
	db DB
}

func NewPostgresOverrideStore(db DB) *PostgresOverrideStore {
	return &PostgresOverrideStore{db: db}
}

func (s *PostgresOverrideStore) Get(ctx context.Context, ip string) (*Override, error) {
	query := `SELECT ip, bonus, note, updated_at FROM limit_overrides WHERE ip = $1`

	var o Override
	err := s.db.QueryRow(ctx, query, ip).Scan(&o.IP, &o.Bonus, &o.Note, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOverrideNotFound
		}
		return nil, fmt.Errorf("failed to get limit override: %w", err)
	}

	return &o, nil
}

func (s *PostgresOverrideStore) Upsert(ctx context.Context, o *Override) error {
	query := `
		INSERT INTO limit_overrides (ip, bonus, note, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (ip) DO UPDATE SET bonus = EXCLUDED.bonus, note = EXCLUDED.note, updated_at = now()
		RETURNING updated_at
	`
	err := s.db.QueryRow(ctx, query, o.IP, o.Bonus, o.Note).Scan(&o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert limit override: %w", err)
	}
	return nil
}

func (s *PostgresOverrideStore) Delete(ctx context.Context, ip string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM limit_overrides WHERE ip = $1`, ip)
	if err != nil {
		return fmt.Errorf("failed to delete limit override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOverrideNotFound
	}
	return nil
}

func (s *PostgresOverrideStore) List(ctx context.Context) ([]*Override, error) {
	query := `SELECT ip, bonus, note, updated_at FROM limit_overrides ORDER BY updated_at DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list limit overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*Override
	for rows.Next() {
		var o Override
		if err := rows.Scan(&o.IP, &o.Bonus, &o.Note, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan limit override: %w", err)
		}
		overrides = append(overrides, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating limit overrides: %w", err)
	}

	return overrides, nil
}
