package storage

import (
	"context"
	"fmt"
)

// Schema bootstrap is intentionally small and boring: idempotent DDL applied
// at startup. The partial unique index on (scope, is_active) is what makes
// "exactly one active configuration per scope" a storage-level guarantee
// rather than an application-level hope.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS quality_overrides (
		id TEXT PRIMARY KEY,
		generated_item_id TEXT NOT NULL,
		scope TEXT,
		override_action TEXT NOT NULL,
		automated_status TEXT NOT NULL,
		per_check_scores JSONB,
		superseded_by TEXT REFERENCES quality_overrides(id),
		reviewer_id TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS quality_overrides_latest_idx
		ON quality_overrides (created_at)
		WHERE superseded_by IS NULL`,
	`CREATE INDEX IF NOT EXISTS quality_overrides_item_idx
		ON quality_overrides (generated_item_id)`,

	`CREATE TABLE IF NOT EXISTS scoring_configs (
		id TEXT PRIMARY KEY,
		scope TEXT,
		version INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		pass_threshold DOUBLE PRECISION NOT NULL,
		check_weights JSONB NOT NULL,
		borderline_range JSONB NOT NULL,
		auto_reject_checks JSONB NOT NULL,
		source_proposal_id TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS scoring_configs_one_active_idx
		ON scoring_configs (COALESCE(scope, ''))
		WHERE is_active`,
	`CREATE UNIQUE INDEX IF NOT EXISTS scoring_configs_scope_version_idx
		ON scoring_configs (COALESCE(scope, ''), version)`,

	`CREATE TABLE IF NOT EXISTS calibration_proposals (
		id TEXT PRIMARY KEY,
		scope TEXT,
		status TEXT NOT NULL,
		current_config_id TEXT NOT NULL,
		proposed_pass_threshold DOUBLE PRECISION NOT NULL,
		proposed_check_weights JSONB NOT NULL,
		proposed_borderline_range JSONB NOT NULL,
		proposed_auto_reject_checks JSONB NOT NULL,
		analysis_window_start TIMESTAMPTZ NOT NULL,
		analysis_window_end TIMESTAMPTZ NOT NULL,
		total_overrides_analyzed INTEGER NOT NULL,
		false_positive_rate DOUBLE PRECISION,
		false_negative_rate DOUBLE PRECISION,
		meets_min_sample_size BOOLEAN NOT NULL,
		within_delta_bounds BOOLEAN NOT NULL,
		expected_approval_rate_change DOUBLE PRECISION NOT NULL DEFAULT 0,
		reason TEXT,
		triggered_by TEXT,
		activated_config_id TEXT,
		activated_by TEXT,
		activated_at TIMESTAMPTZ,
		dismissed_by TEXT,
		dismissed_at TIMESTAMPTZ,
		dismissed_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS calibration_proposals_status_idx
		ON calibration_proposals (status, created_at)`,
}

// EnsureSchema creates the calibration tables and indexes if they do not
// exist.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
