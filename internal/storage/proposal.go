package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/calibration"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

type ProposalRepo struct {
	db *PostgresDB
}

func NewProposalRepo(db *PostgresDB) *ProposalRepo {
	return &ProposalRepo{db: db}
}

const proposalColumns = `id, scope, status, current_config_id,
	proposed_pass_threshold, proposed_check_weights, proposed_borderline_range, proposed_auto_reject_checks,
	analysis_window_start, analysis_window_end, total_overrides_analyzed,
	false_positive_rate, false_negative_rate, meets_min_sample_size, within_delta_bounds,
	expected_approval_rate_change, reason, triggered_by,
	activated_config_id, activated_by, activated_at, dismissed_by, dismissed_at, dismissed_reason, created_at`

func (r *ProposalRepo) Insert(ctx context.Context, p *domain.CalibrationProposal) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	weightsJSON, err := json.Marshal(p.ProposedCheckWeights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	borderlineJSON, err := json.Marshal(p.ProposedBorderline)
	if err != nil {
		return fmt.Errorf("marshal borderline: %w", err)
	}
	autoRejectJSON, err := json.Marshal(p.ProposedAutoRejectChecks)
	if err != nil {
		return fmt.Errorf("marshal auto-reject checks: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO calibration_proposals (
			id, scope, status, current_config_id,
			proposed_pass_threshold, proposed_check_weights, proposed_borderline_range, proposed_auto_reject_checks,
			analysis_window_start, analysis_window_end, total_overrides_analyzed,
			false_positive_rate, false_negative_rate, meets_min_sample_size, within_delta_bounds,
			expected_approval_rate_change, reason, triggered_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, p.ID, p.Scope, p.Status, p.CurrentConfigID,
		p.ProposedPassThreshold, weightsJSON, borderlineJSON, autoRejectJSON,
		p.WindowStart, p.WindowEnd, p.TotalOverrides,
		p.FalsePositiveRate, p.FalseNegativeRate, p.MeetsMinSampleSize, p.WithinDeltaBounds,
		p.ExpectedApprovalRateChange, p.Reason, p.TriggeredBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (r *ProposalRepo) Get(ctx context.Context, id string) (*domain.CalibrationProposal, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+proposalColumns+`
		FROM calibration_proposals
		WHERE id = $1
	`, id)

	p, err := scanProposal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, calibration.ErrProposalNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProposalRepo) ListPending(ctx context.Context, scope *string) ([]*domain.CalibrationProposal, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+proposalColumns+`
		FROM calibration_proposals
		WHERE status = $1 AND ($2::text IS NULL OR scope IS NOT DISTINCT FROM $2)
		ORDER BY created_at DESC
	`, domain.ProposalStatusProposed, scope)
	if err != nil {
		return nil, fmt.Errorf("query pending proposals: %w", err)
	}
	defer rows.Close()

	return scanProposals(rows)
}

func (r *ProposalRepo) ListHistory(ctx context.Context, scope *string, limit int) ([]*domain.CalibrationProposal, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+proposalColumns+`
		FROM calibration_proposals
		WHERE $1::text IS NULL OR scope IS NOT DISTINCT FROM $1
		ORDER BY created_at DESC
		LIMIT $2
	`, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("query proposal history: %w", err)
	}
	defer rows.Close()

	return scanProposals(rows)
}

func (r *ProposalRepo) MarkDismissed(ctx context.Context, id, actorID, reason string, now time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE calibration_proposals
		SET status = $1, dismissed_by = $2, dismissed_at = $3, dismissed_reason = $4
		WHERE id = $5 AND status = $6
	`, domain.ProposalStatusDismissed, actorID, now, reason, id, domain.ProposalStatusProposed)
	if err != nil {
		return fmt.Errorf("dismiss proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("proposal %s no longer in %s status", id, domain.ProposalStatusProposed)
	}
	return nil
}

func scanProposals(rows pgx.Rows) ([]*domain.CalibrationProposal, error) {
	var proposals []*domain.CalibrationProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func scanProposal(row rowScanner) (*domain.CalibrationProposal, error) {
	var p domain.CalibrationProposal
	var weightsJSON, borderlineJSON, autoRejectJSON []byte
	var reason *string

	if err := row.Scan(
		&p.ID, &p.Scope, &p.Status, &p.CurrentConfigID,
		&p.ProposedPassThreshold, &weightsJSON, &borderlineJSON, &autoRejectJSON,
		&p.WindowStart, &p.WindowEnd, &p.TotalOverrides,
		&p.FalsePositiveRate, &p.FalseNegativeRate, &p.MeetsMinSampleSize, &p.WithinDeltaBounds,
		&p.ExpectedApprovalRateChange, &reason, &p.TriggeredBy,
		&p.ActivatedConfigID, &p.ActivatedBy, &p.ActivatedAt,
		&p.DismissedBy, &p.DismissedAt, &p.DismissedReason, &p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan proposal: %w", err)
	}

	if reason != nil {
		p.Reason = *reason
	}
	if err := json.Unmarshal(weightsJSON, &p.ProposedCheckWeights); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}
	if err := json.Unmarshal(borderlineJSON, &p.ProposedBorderline); err != nil {
		return nil, fmt.Errorf("unmarshal borderline: %w", err)
	}
	if err := json.Unmarshal(autoRejectJSON, &p.ProposedAutoRejectChecks); err != nil {
		return nil, fmt.Errorf("unmarshal auto-reject checks: %w", err)
	}

	return &p, nil
}
