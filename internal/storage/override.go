package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

type OverrideRepo struct {
	db *PostgresDB
}

func NewOverrideRepo(db *PostgresDB) *OverrideRepo {
	return &OverrideRepo{db: db}
}

// Record inserts an override decision. Any earlier latest override for the
// same generated item is superseded in the same transaction, so the
// "superseded_by IS NULL means latest" invariant holds at all times.
func (r *OverrideRepo) Record(ctx context.Context, rec *domain.OverrideRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	scoresJSON, err := json.Marshal(rec.CheckScores)
	if err != nil {
		return fmt.Errorf("marshal check scores: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE quality_overrides
		SET superseded_by = $1
		WHERE generated_item_id = $2 AND superseded_by IS NULL
	`, rec.ID, rec.GeneratedItemID)
	if err != nil {
		return fmt.Errorf("supersede previous override: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO quality_overrides (
			id, generated_item_id, scope, override_action, automated_status,
			per_check_scores, superseded_by, reviewer_id, notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $8, $9)
	`, rec.ID, rec.GeneratedItemID, rec.Scope, rec.Action, rec.AutomatedStatus,
		scoresJSON, rec.ReviewerID, rec.Notes, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert override: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListLatest returns non-superseded overrides created within [since, until),
// optionally restricted to a scope.
func (r *OverrideRepo) ListLatest(ctx context.Context, scope *string, since, until time.Time) ([]*domain.OverrideRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, generated_item_id, scope, override_action, automated_status,
			per_check_scores, superseded_by, reviewer_id, notes, created_at
		FROM quality_overrides
		WHERE superseded_by IS NULL
			AND created_at >= $1 AND created_at < $2
			AND ($3::text IS NULL OR scope IS NOT DISTINCT FROM $3)
		ORDER BY created_at ASC
	`, since, until, scope)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	return scanOverrides(rows)
}

func scanOverrides(rows pgx.Rows) ([]*domain.OverrideRecord, error) {
	var records []*domain.OverrideRecord

	for rows.Next() {
		var rec domain.OverrideRecord
		var scoresJSON []byte

		if err := rows.Scan(
			&rec.ID, &rec.GeneratedItemID, &rec.Scope, &rec.Action, &rec.AutomatedStatus,
			&scoresJSON, &rec.SupersededBy, &rec.ReviewerID, &rec.Notes, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		if scoresJSON != nil {
			if err := json.Unmarshal(scoresJSON, &rec.CheckScores); err != nil {
				return nil, fmt.Errorf("unmarshal check scores: %w", err)
			}
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}
