package calibration

import (
	"math"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// Policy constants. These are hand-tuned operational knobs, kept named and in
// one place so they can be reviewed and unit-tested independently of the
// storage and orchestration code.
const (
	// DefaultWindowDays is the lookback window when the caller does not
	// provide one.
	DefaultWindowDays = 30

	// MinSampleSize is the minimum number of overrides in the window before
	// any calibration is proposed.
	MinSampleSize = 30

	// rateTrigger is the aggregate FP/FN rate above which the pass threshold
	// moves.
	rateTrigger = 0.15

	// thresholdGain converts an aggregate error rate into a threshold delta.
	thresholdGain = 2.0

	// maxThresholdDelta caps how far the operating point may move in one
	// calibration cycle, no matter how extreme the observed rates.
	maxThresholdDelta = 1.0

	// weightGain converts a per-check FP/FN rate imbalance into a weight
	// delta, itself capped at maxWeightDelta in either direction.
	weightGain     = 0.5
	maxWeightDelta = 0.5

	// borderlineTrigger is the rate above which the borderline band shifts,
	// and borderlineStep is how far it shifts.
	borderlineTrigger = 0.1
	borderlineStep    = 0.5

	// approvalRateFactor feeds the expected_approval_rate_change hint.
	approvalRateFactor = 0.05
)

// candidate is the raw output of the adjustment policy before validation.
type candidate struct {
	passThreshold    float64
	checkWeights     map[domain.Check]float64
	borderline       domain.BorderlineRange
	autoRejectChecks []domain.Check

	// thresholdDelta is the applied (post-cap) threshold movement;
	// rawWithinBounds records whether the cap had to engage.
	thresholdDelta  float64
	rawWithinBounds bool
}

// applyPolicy derives a candidate configuration from an analysis result and
// the configuration currently active. It is a pure function: all persistence
// and validation happens in the caller.
func applyPolicy(analysis *domain.AnalysisResult, current *domain.ScoringConfig) candidate {
	fp, fn := 0.0, 0.0
	if analysis.FalsePositiveRate != nil {
		fp = *analysis.FalsePositiveRate
	}
	if analysis.FalseNegativeRate != nil {
		fn = *analysis.FalseNegativeRate
	}

	cand := candidate{
		passThreshold:    current.PassThreshold,
		checkWeights:     current.CloneWeights(),
		borderline:       current.Borderline,
		autoRejectChecks: append([]domain.Check(nil), current.AutoRejectChecks...),
		rawWithinBounds:  true,
	}

	// Threshold: too many false negatives means the bar is too strict, so
	// loosen; too many false positives means it is too lenient, so tighten.
	switch {
	case fn > rateTrigger:
		raw := fn * thresholdGain
		cand.rawWithinBounds = raw <= maxThresholdDelta
		cand.thresholdDelta = -math.Min(raw, maxThresholdDelta)
	case fp > rateTrigger:
		raw := fp * thresholdGain
		cand.rawWithinBounds = raw <= maxThresholdDelta
		cand.thresholdDelta = math.Min(raw, maxThresholdDelta)
	}
	cand.passThreshold = current.PassThreshold + cand.thresholdDelta

	// Per-check weights: a check producing disproportionately more false
	// positives gets stricter, more false negatives gets more lenient.
	// Weights never go negative.
	for check, stat := range analysis.CheckStats {
		w, ok := cand.checkWeights[check]
		if !ok {
			continue
		}
		delta := clamp((stat.FalsePositiveRate()-stat.FalseNegativeRate())*weightGain, -maxWeightDelta, maxWeightDelta)
		cand.checkWeights[check] = round2(math.Max(0, w+delta))
	}

	// Borderline band: under false-negative skew, widen downward to catch
	// borderline-but-acceptable items; under false-positive skew, raise the
	// upper bound to demand more scrutiny at the margin.
	if fn > fp && fn > borderlineTrigger {
		cand.borderline.Low = math.Max(0, cand.borderline.Low-borderlineStep)
	} else if fp > fn && fp > borderlineTrigger {
		cand.borderline.High = math.Min(10, cand.borderline.High+borderlineStep)
	}

	return cand
}

func (c candidate) expectedApprovalRateChange() float64 {
	return -c.thresholdDelta * approvalRateFactor
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
