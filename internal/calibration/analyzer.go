package calibration

import (
	"context"
	"fmt"
	"time"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// checkAttributionCutoff decides whether an individual check shares blame for
// an aggregate miss. A false positive attributes to a check only when the
// check itself scored "good" (>= cutoff) despite the human rejection; a false
// negative only when the check scored below the cutoff.
const checkAttributionCutoff = 7.0

// Analyzer computes aggregate and per-check false-positive/false-negative
// rates from a window of human override decisions.
type Analyzer struct {
	overrides OverrideSource
	now       func() time.Time
}

func NewAnalyzer(overrides OverrideSource) *Analyzer {
	return &Analyzer{overrides: overrides, now: time.Now}
}

// Analyze reads the latest overrides in the lookback window and classifies
// each against the automated verdict it overrode. A window with no records
// yields a zero-count result with nil rates, never an error.
func (a *Analyzer) Analyze(ctx context.Context, scope *string, windowDays int) (*domain.AnalysisResult, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	end := a.now()
	start := end.AddDate(0, 0, -windowDays)

	records, err := a.overrides.ListLatest(ctx, scope, start, end)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}

	result := &domain.AnalysisResult{
		Scope:       scope,
		WindowStart: start,
		WindowEnd:   end,
		CheckStats:  make(map[domain.Check]*domain.CheckStat),
	}

	for _, rec := range records {
		result.TotalOverrides++

		var fp, fn bool
		switch rec.AutomatedStatus {
		case domain.AutomatedStatusApproved:
			result.TotalApprovedByAI++
			fp = rec.IsFalsePositive()
		case domain.AutomatedStatusRejected, domain.AutomatedStatusFlagged:
			result.TotalRejectedByAI++
			fn = rec.IsFalseNegative()
		}

		if fp {
			result.FalsePositives++
		}
		if fn {
			result.FalseNegatives++
		}

		for check, score := range rec.CheckScores {
			if !check.Valid() {
				continue
			}
			stat := result.CheckStats[check]
			if stat == nil {
				stat = &domain.CheckStat{}
				result.CheckStats[check] = stat
			}
			stat.Total++
			if fp && score >= checkAttributionCutoff {
				stat.FalsePositives++
			}
			if fn && score < checkAttributionCutoff {
				stat.FalseNegatives++
			}
		}
	}

	if result.TotalApprovedByAI > 0 {
		rate := float64(result.FalsePositives) / float64(result.TotalApprovedByAI)
		result.FalsePositiveRate = &rate
	}
	if result.TotalRejectedByAI > 0 {
		rate := float64(result.FalseNegatives) / float64(result.TotalRejectedByAI)
		result.FalseNegativeRate = &rate
	}

	return result, nil
}
