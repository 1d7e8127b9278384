package calibration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

func fullWeights() map[domain.Check]float64 {
	weights := make(map[domain.Check]float64, len(domain.AllChecks))
	for _, c := range domain.AllChecks {
		weights[c] = 1.0
	}
	return weights
}

func TestValidateCandidateValid(t *testing.T) {
	errs := ValidateCandidate(7.0, fullWeights(), domain.BorderlineRange{Low: 5.5, High: 7.0}, []domain.Check{domain.CheckG1})
	assert.Empty(t, errs)
}

func TestValidateCandidateThresholdRange(t *testing.T) {
	for _, threshold := range []float64{0.5, 10.5, -1} {
		errs := ValidateCandidate(threshold, fullWeights(), domain.BorderlineRange{Low: 5.5, High: 7.0}, nil)
		assert.NotEmpty(t, errs, "threshold %.1f should be rejected", threshold)
		assert.Contains(t, errs[0], "pass_threshold")
	}
}

func TestValidateCandidateMissingCheck(t *testing.T) {
	weights := fullWeights()
	delete(weights, domain.CheckV3)

	errs := ValidateCandidate(7.0, weights, domain.BorderlineRange{Low: 5.5, High: 7.0}, nil)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "V3")
}

func TestValidateCandidateNegativeWeight(t *testing.T) {
	weights := fullWeights()
	weights[domain.CheckC2] = -0.1

	errs := ValidateCandidate(7.0, weights, domain.BorderlineRange{Low: 5.5, High: 7.0}, nil)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "C2")
	assert.Contains(t, errs[0], "negative")
}

func TestValidateCandidateBorderline(t *testing.T) {
	errs := ValidateCandidate(7.0, fullWeights(), domain.BorderlineRange{Low: 7.0, High: 5.0}, nil)
	assert.NotEmpty(t, errs)

	errs = ValidateCandidate(7.0, fullWeights(), domain.BorderlineRange{Low: -1, High: 11}, nil)
	assert.Len(t, errs, 2)
}

func TestValidateCandidateUnknownAutoReject(t *testing.T) {
	errs := ValidateCandidate(7.0, fullWeights(), domain.BorderlineRange{Low: 5.5, High: 7.0}, []domain.Check{"X9"})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "X9")
}

func TestValidateCandidateAccumulatesAllViolations(t *testing.T) {
	weights := fullWeights()
	delete(weights, domain.CheckV3)
	weights[domain.CheckC1] = -2

	errs := ValidateCandidate(0.0, weights, domain.BorderlineRange{Low: 6, High: 6}, []domain.Check{"nope"})
	assert.GreaterOrEqual(t, len(errs), 4)

	joined := strings.Join(errs, "; ")
	assert.Contains(t, joined, "pass_threshold")
	assert.Contains(t, joined, "V3")
	assert.Contains(t, joined, "C1")
	assert.Contains(t, joined, "nope")
}
