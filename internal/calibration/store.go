package calibration

import (
	"context"
	"time"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// OverrideSource reads human override decisions. The calibration loop only
// ever reads the latest override per generated item.
type OverrideSource interface {
	// ListLatest returns overrides with superseded_by unset created within
	// [since, until), optionally restricted to a scope (nil = global).
	ListLatest(ctx context.Context, scope *string, since, until time.Time) ([]*domain.OverrideRecord, error)
}

// ConfigStore reads and writes versioned scoring configurations.
type ConfigStore interface {
	// Active returns the active configuration for a scope, seeding the
	// default version-1 configuration if the scope has none.
	Active(ctx context.Context, scope *string) (*domain.ScoringConfig, error)

	// ActivateFromProposal atomically deactivates the scope's active
	// configuration, inserts a new active version built from the proposal's
	// proposed fields (version = 1 + max existing in scope), and marks the
	// proposal activated. Returns the new configuration.
	ActivateFromProposal(ctx context.Context, p *domain.CalibrationProposal, actorID string, now time.Time) (*domain.ScoringConfig, error)

	// History returns configurations for a scope, newest version first.
	History(ctx context.Context, scope *string, limit int) ([]*domain.ScoringConfig, error)
}

// ProposalStore persists calibration proposals.
type ProposalStore interface {
	Insert(ctx context.Context, p *domain.CalibrationProposal) error
	Get(ctx context.Context, id string) (*domain.CalibrationProposal, error)
	ListPending(ctx context.Context, scope *string) ([]*domain.CalibrationProposal, error)
	ListHistory(ctx context.Context, scope *string, limit int) ([]*domain.CalibrationProposal, error)
	MarkDismissed(ctx context.Context, id, actorID, reason string, now time.Time) error
}
