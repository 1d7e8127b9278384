package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func analysisWithRates(fp, fn *float64) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		FalsePositiveRate: fp,
		FalseNegativeRate: fn,
		CheckStats:        map[domain.Check]*domain.CheckStat{},
	}
}

func TestPolicyNoChangeUnderTrigger(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	cand := applyPolicy(analysisWithRates(ptr(0.1), ptr(0.1)), current)

	assert.Equal(t, current.PassThreshold, cand.passThreshold)
	assert.Zero(t, cand.thresholdDelta)
	assert.True(t, cand.rawWithinBounds)
	assert.Equal(t, current.Borderline, cand.borderline)
}

func TestPolicyNilRatesTreatedAsZero(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	cand := applyPolicy(analysisWithRates(nil, nil), current)

	assert.Equal(t, current.PassThreshold, cand.passThreshold)
	assert.Equal(t, current.Borderline, cand.borderline)
}

func TestPolicyFalseNegativeSkewLoosens(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	cand := applyPolicy(analysisWithRates(nil, ptr(0.25)), current)

	// 0.25 * 2.0 = 0.5, under the cap.
	assert.InDelta(t, current.PassThreshold-0.5, cand.passThreshold, 1e-9)
	assert.InDelta(t, -0.5, cand.thresholdDelta, 1e-9)
	assert.True(t, cand.rawWithinBounds)

	// fn > fp and fn > 0.1: band widens downward.
	assert.InDelta(t, current.Borderline.Low-0.5, cand.borderline.Low, 1e-9)
	assert.Equal(t, current.Borderline.High, cand.borderline.High)
}

func TestPolicyFalsePositiveSkewTightens(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	cand := applyPolicy(analysisWithRates(ptr(0.2), nil), current)

	assert.InDelta(t, current.PassThreshold+0.4, cand.passThreshold, 1e-9)
	assert.InDelta(t, current.Borderline.High+0.5, cand.borderline.High, 1e-9)
	assert.Equal(t, current.Borderline.Low, cand.borderline.Low)
}

func TestPolicyExtremeRateClampsToMaxDelta(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	cand := applyPolicy(analysisWithRates(ptr(0.9), nil), current)

	// 0.9 * 2.0 = 1.8 clamps to exactly +1.0.
	assert.InDelta(t, current.PassThreshold+1.0, cand.passThreshold, 1e-9)
	assert.InDelta(t, 1.0, cand.thresholdDelta, 1e-9)
	assert.False(t, cand.rawWithinBounds)
}

func TestPolicyFalseNegativeWinsTie(t *testing.T) {
	// fn checked first: both above trigger means the threshold loosens.
	current := domain.DefaultScoringConfig(nil)
	cand := applyPolicy(analysisWithRates(ptr(0.2), ptr(0.3)), current)

	assert.InDelta(t, current.PassThreshold-0.6, cand.passThreshold, 1e-9)
}

func TestPolicyWeightAdjustments(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	current.CheckWeights[domain.CheckC3] = 0.2

	analysis := analysisWithRates(nil, nil)
	analysis.CheckStats = map[domain.Check]*domain.CheckStat{
		// All false positives: weight goes up by the full 0.5 cap.
		domain.CheckV1: {FalsePositives: 4, Total: 4},
		// All false negatives: weight would drop 0.5 but floors at 0.
		domain.CheckC3: {FalseNegatives: 3, Total: 3},
		// Mixed: (0.5 - 0.25) * 0.5 = 0.125, rounded to 0.13.
		domain.CheckG1: {FalsePositives: 2, FalseNegatives: 1, Total: 4},
	}

	cand := applyPolicy(analysis, current)

	assert.InDelta(t, 1.5, cand.checkWeights[domain.CheckV1], 1e-9)
	assert.InDelta(t, 0.0, cand.checkWeights[domain.CheckC3], 1e-9)
	assert.InDelta(t, 1.13, cand.checkWeights[domain.CheckG1], 1e-9)
	// Untouched checks keep their weight.
	assert.InDelta(t, 1.0, cand.checkWeights[domain.CheckV9], 1e-9)
}

func TestPolicyWeightDeltaNeverExceedsCap(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	analysis := analysisWithRates(nil, nil)
	analysis.CheckStats = map[domain.Check]*domain.CheckStat{}
	for _, c := range domain.AllChecks {
		analysis.CheckStats[c] = &domain.CheckStat{FalsePositives: 10, Total: 10}
	}

	cand := applyPolicy(analysis, current)
	for _, c := range domain.AllChecks {
		delta := cand.checkWeights[c] - current.CheckWeights[c]
		assert.LessOrEqual(t, delta, maxWeightDelta+1e-9)
		assert.GreaterOrEqual(t, delta, -maxWeightDelta-1e-9)
	}
}

func TestPolicyBorderlineFloorsAndCaps(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	current.Borderline = domain.BorderlineRange{Low: 0.2, High: 9.8}

	low := applyPolicy(analysisWithRates(nil, ptr(0.5)), current)
	assert.InDelta(t, 0.0, low.borderline.Low, 1e-9)

	high := applyPolicy(analysisWithRates(ptr(0.5), nil), current)
	assert.InDelta(t, 10.0, high.borderline.High, 1e-9)
}

func TestPolicyNeverTouchesAutoReject(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)
	current.AutoRejectChecks = []domain.Check{domain.CheckG1, domain.CheckG2}

	cand := applyPolicy(analysisWithRates(ptr(0.9), ptr(0.9)), current)
	assert.Equal(t, current.AutoRejectChecks, cand.autoRejectChecks)
}

func TestExpectedApprovalRateChange(t *testing.T) {
	current := domain.DefaultScoringConfig(nil)

	tighten := applyPolicy(analysisWithRates(ptr(0.2), nil), current)
	assert.InDelta(t, -0.4*approvalRateFactor, tighten.expectedApprovalRateChange(), 1e-9)

	loosen := applyPolicy(analysisWithRates(nil, ptr(0.25)), current)
	assert.InDelta(t, 0.5*approvalRateFactor, loosen.expectedApprovalRateChange(), 1e-9)
}
