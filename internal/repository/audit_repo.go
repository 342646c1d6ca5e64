package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"mythic_prison/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository stores audit entries in audit_logs.
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts one entry. Unencodable details are stored as {}.
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil || entry.Details == nil {
		details = []byte("{}")
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (player_id, action, category, details, actor)
		VALUES ($1, $2, $3, $4, $5)
	`, string(entry.PlayerID), entry.Action, entry.Category, details, entry.Actor)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// GetByPlayer returns the newest entries for one player.
func (r *AuditRepository) GetByPlayer(ctx context.Context, id domain.Identity, limit int) ([]*domain.AuditLog, error) {
	return r.list(ctx, "player_id", string(id), limit)
}

// GetByCategory returns the newest entries of one category across players.
func (r *AuditRepository) GetByCategory(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	return r.list(ctx, "category", category, limit)
}

// list filters on column, which is always one of the indexed constants above.
func (r *AuditRepository) list(ctx context.Context, column, value string, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, action, category, details, actor, created_at
		FROM audit_logs
		WHERE `+column+` = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, value, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit logs by %s: %w", column, err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.AuditLog, error) {
		var (
			entry    domain.AuditLog
			playerID string
			details  []byte
		)
		if err := row.Scan(&entry.ID, &playerID, &entry.Action, &entry.Category, &details, &entry.Actor, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.PlayerID = domain.Identity(playerID)
		if err := json.Unmarshal(details, &entry.Details); err != nil || entry.Details == nil {
			entry.Details = map[string]interface{}{}
		}
		return &entry, nil
	})
}
