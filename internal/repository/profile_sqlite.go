package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mythic_prison/internal/domain"
)

// SQLiteProfileStore is the single-node document store.
type SQLiteProfileStore struct {
	db *sql.DB
}

// NewSQLiteProfileStore creates the schema if needed.
func NewSQLiteProfileStore(db *sql.DB) (*SQLiteProfileStore, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS player_profiles (
		uuid TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		doc TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`)
	if err != nil {
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteProfileStore{db: db}, nil
}

func (r *SQLiteProfileStore) Load(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM player_profiles WHERE uuid = ?`, string(id)).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}
	p, err := domain.UnmarshalProfile([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteProfileStore) Save(ctx context.Context, p *domain.Profile) error {
	doc, err := domain.MarshalProfile(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.UUID, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO player_profiles (uuid, username, doc, updated_at)
		VALUES (?, ?, ?, strftime('%s','now'))
		ON CONFLICT(uuid) DO UPDATE
		SET username = excluded.username, doc = excluded.doc, updated_at = excluded.updated_at
	`, string(p.UUID), p.Username, string(doc))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UUID, err)
	}
	return nil
}

func (r *SQLiteProfileStore) TopBy(ctx context.Context, currency domain.Currency, limit int) ([]domain.LeaderboardEntry, error) {
	if !currency.Valid() {
		return nil, domain.ErrInvalidCurrency
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT uuid, username, COALESCE(CAST(json_extract(doc, '$.currencies.' || ?) AS REAL), 0) AS v
		FROM player_profiles
		ORDER BY v DESC, uuid ASC
		LIMIT ?
	`, string(currency), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		var id string
		if err := rows.Scan(&id, &e.Username, &e.Value); err != nil {
			return nil, err
		}
		e.UUID = domain.Identity(id)
		out = append(out, e)
	}
	return out, rows.Err()
}
