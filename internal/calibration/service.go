package calibration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// Service closes the feedback loop between automated ad-quality scoring and
// human override decisions: it analyzes override windows, generates bounded
// calibration proposals, and carries out operator activation/dismissal.
type Service struct {
	analyzer  *Analyzer
	configs   ConfigStore
	proposals ProposalStore
	now       func() time.Time
}

func NewService(overrides OverrideSource, configs ConfigStore, proposals ProposalStore) *Service {
	return &Service{
		analyzer:  NewAnalyzer(overrides),
		configs:   configs,
		proposals: proposals,
		now:       time.Now,
	}
}

// AnalyzeOverrides runs the override analyzer without persisting anything.
func (s *Service) AnalyzeOverrides(ctx context.Context, scope *string, windowDays int) (*domain.AnalysisResult, error) {
	return s.analyzer.Analyze(ctx, scope, windowDays)
}

// ProposeCalibration analyzes the override window and persists a calibration
// proposal. Every attempt is persisted for auditability: attempts that fail
// the minimum-sample rail or candidate validation land as
// insufficient_evidence with no change proposed in the former case and the
// rejected candidate plus reasons in the latter.
func (s *Service) ProposeCalibration(ctx context.Context, scope *string, windowDays int, triggeredBy *string) (*domain.CalibrationProposal, error) {
	analysis, err := s.analyzer.Analyze(ctx, scope, windowDays)
	if err != nil {
		return nil, fmt.Errorf("analyze overrides: %w", err)
	}

	current, err := s.configs.Active(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load active config: %w", err)
	}

	p := &domain.CalibrationProposal{
		ID:                uuid.New().String(),
		Scope:             scope,
		CurrentConfigID:   current.ID,
		WindowStart:       analysis.WindowStart,
		WindowEnd:         analysis.WindowEnd,
		TotalOverrides:    analysis.TotalOverrides,
		FalsePositiveRate: analysis.FalsePositiveRate,
		FalseNegativeRate: analysis.FalseNegativeRate,
		TriggeredBy:       triggeredBy,
		CreatedAt:         s.now(),
	}

	if analysis.TotalOverrides < MinSampleSize {
		p.Status = domain.ProposalStatusInsufficientEvidence
		p.MeetsMinSampleSize = false
		p.WithinDeltaBounds = true
		p.Reason = fmt.Sprintf("only %d overrides in window, need at least %d", analysis.TotalOverrides, MinSampleSize)
		// No change proposed: carry the current configuration verbatim.
		p.ProposedPassThreshold = current.PassThreshold
		p.ProposedCheckWeights = current.CloneWeights()
		p.ProposedBorderline = current.Borderline
		p.ProposedAutoRejectChecks = append([]domain.Check(nil), current.AutoRejectChecks...)
		if err := s.proposals.Insert(ctx, p); err != nil {
			return nil, fmt.Errorf("persist proposal: %w", err)
		}
		return p, nil
	}

	cand := applyPolicy(analysis, current)
	p.MeetsMinSampleSize = true
	p.WithinDeltaBounds = cand.rawWithinBounds
	p.ProposedPassThreshold = cand.passThreshold
	p.ProposedCheckWeights = cand.checkWeights
	p.ProposedBorderline = cand.borderline
	p.ProposedAutoRejectChecks = cand.autoRejectChecks
	p.ExpectedApprovalRateChange = cand.expectedApprovalRateChange()

	// A policy output is never coerced into a valid shape: it is either
	// valid or rejected with every reason recorded.
	if errs := ValidateCandidate(cand.passThreshold, cand.checkWeights, cand.borderline, cand.autoRejectChecks); len(errs) > 0 {
		p.Status = domain.ProposalStatusInsufficientEvidence
		p.Reason = "candidate failed validation: " + strings.Join(errs, "; ")
	} else {
		p.Status = domain.ProposalStatusProposed
	}

	if err := s.proposals.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("persist proposal: %w", err)
	}
	return p, nil
}

// ActivateProposal promotes a proposed calibration into the scope's new
// active scoring configuration. The deactivate-old/insert-new pair and the
// proposal status update run in a single store transaction.
func (s *Service) ActivateProposal(ctx context.Context, proposalID, actorID string) (*domain.ScoringConfig, error) {
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}

	p, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProposalStatusProposed {
		return nil, &StatusError{ProposalID: proposalID, Expected: domain.ProposalStatusProposed, Actual: p.Status}
	}

	cfg, err := s.configs.ActivateFromProposal(ctx, p, actorID, s.now())
	if err != nil {
		return nil, fmt.Errorf("activate proposal %s: %w", proposalID, err)
	}
	return cfg, nil
}

// DismissProposal discards a proposed calibration with an operator-supplied
// reason. No configuration is touched.
func (s *Service) DismissProposal(ctx context.Context, proposalID, actorID, reason string) error {
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}
	if reason == "" {
		return fmt.Errorf("dismissal reason is required")
	}

	p, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		return err
	}
	if p.Status != domain.ProposalStatusProposed {
		return &StatusError{ProposalID: proposalID, Expected: domain.ProposalStatusProposed, Actual: p.Status}
	}

	if err := s.proposals.MarkDismissed(ctx, proposalID, actorID, reason, s.now()); err != nil {
		return fmt.Errorf("dismiss proposal %s: %w", proposalID, err)
	}
	return nil
}

// PendingProposals lists proposals awaiting an operator decision.
func (s *Service) PendingProposals(ctx context.Context, scope *string) ([]*domain.CalibrationProposal, error) {
	return s.proposals.ListPending(ctx, scope)
}

// ProposalHistory lists proposals for a scope, newest first.
func (s *Service) ProposalHistory(ctx context.Context, scope *string, limit int) ([]*domain.CalibrationProposal, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.proposals.ListHistory(ctx, scope, limit)
}

// ActiveConfig returns the scope's active scoring configuration, seeding the
// default when the scope has none yet.
func (s *Service) ActiveConfig(ctx context.Context, scope *string) (*domain.ScoringConfig, error) {
	return s.configs.Active(ctx, scope)
}

// ConfigHistory lists configuration versions for a scope, newest first.
func (s *Service) ConfigHistory(ctx context.Context, scope *string, limit int) ([]*domain.ScoringConfig, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.configs.History(ctx, scope, limit)
}
