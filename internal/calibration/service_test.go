package calibration_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/calibration"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/storage"
)

func newTestService(t *testing.T) (*calibration.Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return calibration.NewService(store, store, store), store
}

func seedOverrides(t *testing.T, store *storage.MemoryStore, n int, status domain.AutomatedStatus, action domain.OverrideAction) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		err := store.Record(ctx, &domain.OverrideRecord{
			GeneratedItemID: fmt.Sprintf("item-%s-%s-%d", status, action, i),
			AutomatedStatus: status,
			Action:          action,
			CreatedAt:       time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)
	}
}

func TestProposeBelowMinimumSample(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedOverrides(t, store, 10, domain.AutomatedStatusApproved, domain.OverrideActionConfirm)

	p, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ProposalStatusInsufficientEvidence, p.Status)
	assert.False(t, p.MeetsMinSampleSize)
	assert.Contains(t, p.Reason, "10")
	assert.Contains(t, p.Reason, "30")

	// No change proposed: candidate equals the active configuration.
	current, err := svc.ActiveConfig(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, current.PassThreshold, p.ProposedPassThreshold)
	assert.Equal(t, current.CheckWeights, p.ProposedCheckWeights)
	assert.Equal(t, current.Borderline, p.ProposedBorderline)

	// The attempt is persisted for audit even though it proposes nothing.
	history, err := svc.ProposalHistory(ctx, nil, 50)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, p.ID, history[0].ID)
}

func TestProposeFalseNegativeSkew(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// 40 records, all rejected by automation, 10 overturned by humans:
	// fn rate 0.25, no false positives.
	seedOverrides(t, store, 10, domain.AutomatedStatusRejected, domain.OverrideActionApprove)
	seedOverrides(t, store, 30, domain.AutomatedStatusRejected, domain.OverrideActionConfirm)

	p, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ProposalStatusProposed, p.Status)
	assert.True(t, p.MeetsMinSampleSize)
	assert.True(t, p.WithinDeltaBounds)
	assert.Equal(t, 40, p.TotalOverrides)

	require.NotNil(t, p.FalseNegativeRate)
	assert.InDelta(t, 0.25, *p.FalseNegativeRate, 1e-9)
	assert.Nil(t, p.FalsePositiveRate)

	assert.InDelta(t, domain.DefaultPassThreshold-0.5, p.ProposedPassThreshold, 1e-9)
	assert.InDelta(t, domain.DefaultBorderlineLow-0.5, p.ProposedBorderline.Low, 1e-9)
}

func TestProposeExtremeFalsePositiveClampsToRail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// fp rate 0.9: delta clamps to exactly +1.0, not +1.8.
	seedOverrides(t, store, 36, domain.AutomatedStatusApproved, domain.OverrideActionReject)
	seedOverrides(t, store, 4, domain.AutomatedStatusApproved, domain.OverrideActionConfirm)

	p, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ProposalStatusProposed, p.Status)
	assert.InDelta(t, domain.DefaultPassThreshold+1.0, p.ProposedPassThreshold, 1e-9)
	assert.False(t, p.WithinDeltaBounds)
}

func TestProposeDeterministicForSameData(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedOverrides(t, store, 10, domain.AutomatedStatusRejected, domain.OverrideActionApprove)
	seedOverrides(t, store, 30, domain.AutomatedStatusRejected, domain.OverrideActionConfirm)

	first, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)
	second, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.ProposedPassThreshold, second.ProposedPassThreshold)
	assert.Equal(t, first.ProposedCheckWeights, second.ProposedCheckWeights)
	assert.Equal(t, first.ProposedBorderline, second.ProposedBorderline)
	assert.Equal(t, first.ProposedAutoRejectChecks, second.ProposedAutoRejectChecks)
}

func TestProposeRecordsProvenance(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedOverrides(t, store, 5, domain.AutomatedStatusApproved, domain.OverrideActionConfirm)

	jobID := "job-42"
	p, err := svc.ProposeCalibration(ctx, nil, 30, &jobID)
	require.NoError(t, err)

	require.NotNil(t, p.TriggeredBy)
	assert.Equal(t, "job-42", *p.TriggeredBy)

	current, err := svc.ActiveConfig(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, current.ID, p.CurrentConfigID)
}

func TestActivateProposal(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedOverrides(t, store, 36, domain.AutomatedStatusApproved, domain.OverrideActionReject)
	seedOverrides(t, store, 4, domain.AutomatedStatusApproved, domain.OverrideActionConfirm)

	p, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ProposalStatusProposed, p.Status)

	cfg, err := svc.ActivateProposal(ctx, p.ID, "alice")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Version)
	assert.True(t, cfg.IsActive)
	assert.Equal(t, p.ProposedPassThreshold, cfg.PassThreshold)
	require.NotNil(t, cfg.SourceProposalID)
	assert.Equal(t, p.ID, *cfg.SourceProposalID)

	// The active config is the new one; exactly one config is active.
	active, err := svc.ActiveConfig(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, active.ID)

	history, err := svc.ConfigHistory(ctx, nil, 50)
	require.NoError(t, err)
	require.Len(t, history, 2)
	activeCount := 0
	for _, c := range history {
		if c.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	// Proposal carries the activation provenance.
	activated, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusActivated, activated.Status)
	require.NotNil(t, activated.ActivatedBy)
	assert.Equal(t, "alice", *activated.ActivatedBy)
	require.NotNil(t, activated.ActivatedConfigID)
	assert.Equal(t, cfg.ID, *activated.ActivatedConfigID)
}

func TestActivateTwiceFailsSecondTime(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedOverrides(t, store, 36, domain.AutomatedStatusApproved, domain.OverrideActionReject)
	seedOverrides(t, store, 4, domain.AutomatedStatusApproved, domain.OverrideActionConfirm)

	p, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)

	_, err = svc.ActivateProposal(ctx, p.ID, "alice")
	require.NoError(t, err)

	_, err = svc.ActivateProposal(ctx, p.ID, "alice")
	require.Error(t, err)
	assert.True(t, calibration.IsStatusError(err))
	assert.Contains(t, err.Error(), string(domain.ProposalStatusActivated))
}

func TestActivateUnknownProposal(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ActivateProposal(context.Background(), "missing", "alice")
	assert.ErrorIs(t, err, calibration.ErrProposalNotFound)
}

func TestActivateRequiresActor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ActivateProposal(context.Background(), "whatever", "")
	assert.Error(t, err)
}

func TestActivateInsufficientEvidenceProposalFails(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedOverrides(t, store, 3, domain.AutomatedStatusApproved, domain.OverrideActionConfirm)

	p, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ProposalStatusInsufficientEvidence, p.Status)

	_, err = svc.ActivateProposal(ctx, p.ID, "alice")
	require.Error(t, err)
	assert.True(t, calibration.IsStatusError(err))
	assert.Contains(t, err.Error(), string(domain.ProposalStatusInsufficientEvidence))
}

func TestDismissRecordsReasonVerbatim(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedOverrides(t, store, 36, domain.AutomatedStatusApproved, domain.OverrideActionReject)
	seedOverrides(t, store, 4, domain.AutomatedStatusApproved, domain.OverrideActionConfirm)

	p, err := svc.ProposeCalibration(ctx, nil, 30, nil)
	require.NoError(t, err)

	err = svc.DismissProposal(ctx, p.ID, "bob", "Too aggressive for Q4")
	require.NoError(t, err)

	history, err := svc.ProposalHistory(ctx, nil, 50)
	require.NoError(t, err)

	var dismissed *domain.CalibrationProposal
	for _, row := range history {
		if row.ID == p.ID {
			dismissed = row
		}
	}
	require.NotNil(t, dismissed)
	assert.Equal(t, domain.ProposalStatusDismissed, dismissed.Status)
	require.NotNil(t, dismissed.DismissedReason)
	assert.Equal(t, "Too aggressive for Q4", *dismissed.DismissedReason)
	require.NotNil(t, dismissed.DismissedBy)
	assert.Equal(t, "bob", *dismissed.DismissedBy)

	// Dismissal never touches configuration versions.
	configs, err := svc.ConfigHistory(ctx, nil, 50)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, 1, configs[0].Version)

	// And a dismissed proposal cannot be dismissed again.
	err = svc.DismissProposal(ctx, p.ID, "bob", "again")
	assert.True(t, calibration.IsStatusError(err))
}

func TestDismissRequiresReason(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.DismissProposal(context.Background(), "whatever", "bob", "")
	assert.Error(t, err)
}

func TestVersionSequenceContiguous(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for cycle := 0; cycle < 3; cycle++ {
		seedOverrides(t, store, 36, domain.AutomatedStatusApproved, domain.OverrideActionReject)
		seedOverrides(t, store, 4, domain.AutomatedStatusApproved, domain.OverrideActionConfirm)

		p, err := svc.ProposeCalibration(ctx, nil, 30, nil)
		require.NoError(t, err)
		require.Equal(t, domain.ProposalStatusProposed, p.Status)

		_, err = svc.ActivateProposal(ctx, p.ID, "alice")
		require.NoError(t, err)
	}

	history, err := svc.ConfigHistory(ctx, nil, 50)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, cfg := range history {
		assert.Equal(t, 4-i, cfg.Version, "history is newest first with no gaps")
	}
	assert.True(t, history[0].IsActive)
	for _, cfg := range history[1:] {
		assert.False(t, cfg.IsActive)
	}
}

func TestScopesAreIsolated(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	org := "org-123"

	// Scoped overrides feed the scoped analysis only.
	for i := 0; i < 40; i++ {
		err := store.Record(ctx, &domain.OverrideRecord{
			GeneratedItemID: fmt.Sprintf("scoped-%d", i),
			Scope:           &org,
			AutomatedStatus: domain.AutomatedStatusRejected,
			Action:          domain.OverrideActionApprove,
			CreatedAt:       time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)
	}

	scoped, err := svc.AnalyzeOverrides(ctx, &org, 30)
	require.NoError(t, err)
	assert.Equal(t, 40, scoped.TotalOverrides)

	other := "org-456"
	empty, err := svc.AnalyzeOverrides(ctx, &other, 30)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOverrides)

	// Activating in one scope leaves the other scope's config untouched.
	p, err := svc.ProposeCalibration(ctx, &org, 30, nil)
	require.NoError(t, err)
	_, err = svc.ActivateProposal(ctx, p.ID, "alice")
	require.NoError(t, err)

	scopedCfg, err := svc.ActiveConfig(ctx, &org)
	require.NoError(t, err)
	assert.Equal(t, 2, scopedCfg.Version)

	globalCfg, err := svc.ActiveConfig(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, globalCfg.Version)
}

func TestSupersededOverridesExcluded(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Two decisions on the same item: only the latest counts.
	err := store.Record(ctx, &domain.OverrideRecord{
		GeneratedItemID: "item-1",
		AutomatedStatus: domain.AutomatedStatusApproved,
		Action:          domain.OverrideActionReject,
		CreatedAt:       time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	err = store.Record(ctx, &domain.OverrideRecord{
		GeneratedItemID: "item-1",
		AutomatedStatus: domain.AutomatedStatusApproved,
		Action:          domain.OverrideActionConfirm,
		CreatedAt:       time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	result, err := svc.AnalyzeOverrides(ctx, nil, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalOverrides)
	assert.Zero(t, result.FalsePositives)
}
