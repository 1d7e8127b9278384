package domain

import "time"

// BorderlineRange is the score band treated as ambiguous: items landing
// inside it are routed to human review instead of a clear pass/fail.
type BorderlineRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (b BorderlineRange) Contains(score float64) bool {
	return score >= b.Low && score < b.High
}

// ScoringConfig is one version of the ad-quality scoring configuration for a
// scope. Exactly one version per scope is active at any time; new versions
// are only created by activating a calibration proposal or by seeding.
type ScoringConfig struct {
	ID               string            `json:"id"`
	Scope            *string           `json:"scope,omitempty"`
	Version          int               `json:"version"`
	IsActive         bool              `json:"is_active"`
	PassThreshold    float64           `json:"pass_threshold"`
	CheckWeights     map[Check]float64 `json:"check_weights"`
	Borderline       BorderlineRange   `json:"borderline_range"`
	AutoRejectChecks []Check           `json:"auto_reject_checks"`
	SourceProposalID *string           `json:"source_proposal_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Default scoring configuration seeded for a scope that has none yet.
const (
	DefaultPassThreshold  = 7.0
	DefaultBorderlineLow  = 5.5
	DefaultBorderlineHigh = 7.0
)

// DefaultScoringConfig returns the version-1 configuration for a fresh scope:
// pass at 7.0, unit weights on every check, borderline band 5.5-7.0, no
// auto-reject checks.
func DefaultScoringConfig(scope *string) *ScoringConfig {
	weights := make(map[Check]float64, len(AllChecks))
	for _, c := range AllChecks {
		weights[c] = 1.0
	}
	return &ScoringConfig{
		Scope:         scope,
		Version:       1,
		IsActive:      true,
		PassThreshold: DefaultPassThreshold,
		CheckWeights:  weights,
		Borderline: BorderlineRange{
			Low:  DefaultBorderlineLow,
			High: DefaultBorderlineHigh,
		},
		AutoRejectChecks: []Check{},
	}
}

// CloneWeights returns a copy of the config's weight map so callers can
// derive candidates without mutating the active configuration.
func (c *ScoringConfig) CloneWeights() map[Check]float64 {
	weights := make(map[Check]float64, len(c.CheckWeights))
	for check, w := range c.CheckWeights {
		weights[check] = w
	}
	return weights
}

func (c *ScoringConfig) IsAutoReject(check Check) bool {
	for _, ar := range c.AutoRejectChecks {
		if ar == check {
			return true
		}
	}
	return false
}
