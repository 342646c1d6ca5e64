package repository

import (
	"context"
	"errors"
	"fmt"

	"mythic_prison/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProfileStore keeps documents in player_profiles.doc (jsonb).
type PostgresProfileStore struct {
	db *pgxpool.Pool
}

// NewPostgresProfileStore creates a new profile repository
func NewPostgresProfileStore(db *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

func (r *PostgresProfileStore) Load(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	var doc []byte
	err := r.db.QueryRow(ctx, `SELECT doc FROM player_profiles WHERE uuid = $1`, string(id)).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}
	p, err := domain.UnmarshalProfile(doc)
	if err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return p, nil
}

// Save upserts the whole document in one statement so balances and ladder
// state always land together.
func (r *PostgresProfileStore) Save(ctx context.Context, p *domain.Profile) error {
	doc, err := domain.MarshalProfile(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.UUID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO player_profiles (uuid, username, doc, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (uuid) DO UPDATE
		SET username = EXCLUDED.username, doc = EXCLUDED.doc, updated_at = NOW()
	`, string(p.UUID), p.Username, doc)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UUID, err)
	}
	return nil
}

// TopBy ranks stored profiles by one balance.
func (r *PostgresProfileStore) TopBy(ctx context.Context, currency domain.Currency, limit int) ([]domain.LeaderboardEntry, error) {
	if !currency.Valid() {
		return nil, domain.ErrInvalidCurrency
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, `
		SELECT uuid, COALESCE(username, ''), COALESCE((doc->'currencies'->>$1)::float8, 0) AS v
		FROM player_profiles
		ORDER BY v DESC, uuid ASC
		LIMIT $2
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
