package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

type ScoringConfigRepo struct {
	db *PostgresDB
}

func NewScoringConfigRepo(db *PostgresDB) *ScoringConfigRepo {
	return &ScoringConfigRepo{db: db}
}

const scoringConfigColumns = `id, scope, version, is_active, pass_threshold,
	check_weights, borderline_range, auto_reject_checks, source_proposal_id, created_at`

// Active returns the scope's active configuration, seeding the default
// version-1 configuration when the scope has none yet.
func (r *ScoringConfigRepo) Active(ctx context.Context, scope *string) (*domain.ScoringConfig, error) {
	cfg, err := r.active(ctx, scope)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	seed := domain.DefaultScoringConfig(scope)
	seed.ID = uuid.New().String()
	seed.CreatedAt = time.Now()
	if err := r.insert(ctx, r.db.Pool, seed); err != nil {
		// Another caller may have seeded concurrently; the partial unique
		// index makes the insert fail, so fall back to reading theirs.
		if cfg, readErr := r.active(ctx, scope); readErr == nil {
			return cfg, nil
		}
		return nil, fmt.Errorf("seed default config: %w", err)
	}
	return seed, nil
}

func (r *ScoringConfigRepo) active(ctx context.Context, scope *string) (*domain.ScoringConfig, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+scoringConfigColumns+`
		FROM scoring_configs
		WHERE scope IS NOT DISTINCT FROM $1 AND is_active
	`, scope)
	return scanScoringConfig(row)
}

// ActivateFromProposal promotes a proposal into the scope's new active
// configuration. The old version's deactivation, the new insert, and the
// proposal status update are one transaction: there is never a window with
// zero or two active configurations.
func (r *ScoringConfigRepo) ActivateFromProposal(ctx context.Context, p *domain.CalibrationProposal, actorID string, now time.Time) (*domain.ScoringConfig, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE scoring_configs SET is_active = FALSE
		WHERE scope IS NOT DISTINCT FROM $1 AND is_active
	`, p.Scope); err != nil {
		return nil, fmt.Errorf("deactivate current config: %w", err)
	}

	var maxVersion int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM scoring_configs
		WHERE scope IS NOT DISTINCT FROM $1
	`, p.Scope).Scan(&maxVersion); err != nil {
		return nil, fmt.Errorf("next version: %w", err)
	}

	cfg := &domain.ScoringConfig{
		ID:               uuid.New().String(),
		Scope:            p.Scope,
		Version:          maxVersion + 1,
		IsActive:         true,
		PassThreshold:    p.ProposedPassThreshold,
		CheckWeights:     p.ProposedCheckWeights,
		Borderline:       p.ProposedBorderline,
		AutoRejectChecks: p.ProposedAutoRejectChecks,
		SourceProposalID: &p.ID,
		CreatedAt:        now,
	}
	if err := r.insert(ctx, tx, cfg); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE calibration_proposals
		SET status = $1, activated_by = $2, activated_at = $3, activated_config_id = $4
		WHERE id = $5 AND status = $6
	`, domain.ProposalStatusActivated, actorID, now, cfg.ID, p.ID, domain.ProposalStatusProposed)
	if err != nil {
		return nil, fmt.Errorf("mark proposal activated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("proposal %s no longer in %s status", p.ID, domain.ProposalStatusProposed)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return cfg, nil
}

// History returns configuration versions for a scope, newest first.
func (r *ScoringConfigRepo) History(ctx context.Context, scope *string, limit int) ([]*domain.ScoringConfig, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+scoringConfigColumns+`
		FROM scoring_configs
		WHERE scope IS NOT DISTINCT FROM $1
		ORDER BY version DESC
		LIMIT $2
	`, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("query configs: %w", err)
	}
	defer rows.Close()

	var configs []*domain.ScoringConfig
	for rows.Next() {
		cfg, err := scanScoringConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// pgExecer is satisfied by both *pgxpool.Pool and pgx.Tx so seeding and
// transactional activation share one insert path.
type pgExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *ScoringConfigRepo) insert(ctx context.Context, q pgExecer, cfg *domain.ScoringConfig) error {
	weightsJSON, err := json.Marshal(cfg.CheckWeights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	borderlineJSON, err := json.Marshal(cfg.Borderline)
	if err != nil {
		return fmt.Errorf("marshal borderline: %w", err)
	}
	autoRejectJSON, err := json.Marshal(cfg.AutoRejectChecks)
	if err != nil {
		return fmt.Errorf("marshal auto-reject checks: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO scoring_configs (
			id, scope, version, is_active, pass_threshold,
			check_weights, borderline_range, auto_reject_checks, source_proposal_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, cfg.ID, cfg.Scope, cfg.Version, cfg.IsActive, cfg.PassThreshold,
		weightsJSON, borderlineJSON, autoRejectJSON, cfg.SourceProposalID, cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert config: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScoringConfig(row rowScanner) (*domain.ScoringConfig, error) {
	var cfg domain.ScoringConfig
	var weightsJSON, borderlineJSON, autoRejectJSON []byte

	if err := row.Scan(
		&cfg.ID, &cfg.Scope, &cfg.Version, &cfg.IsActive, &cfg.PassThreshold,
		&weightsJSON, &borderlineJSON, &autoRejectJSON, &cfg.SourceProposalID, &cfg.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan config: %w", err)
	}

	if err := json.Unmarshal(weightsJSON, &cfg.CheckWeights); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}
	if err := json.Unmarshal(borderlineJSON, &cfg.Borderline); err != nil {
		return nil, fmt.Errorf("unmarshal borderline: %w", err)
	}
	if err := json.Unmarshal(autoRejectJSON, &cfg.AutoRejectChecks); err != nil {
		return nil, fmt.Errorf("unmarshal auto-reject checks: %w", err)
	}

	return &cfg, nil
}
