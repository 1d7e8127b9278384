package scoring

import (
	"fmt"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// Verdict is the routing outcome for a scored ad.
type Verdict string

const (
	VerdictApproved    Verdict = "approved"
	VerdictRejected    Verdict = "rejected"
	VerdictHumanReview Verdict = "human_review"
)

type RoutingResult struct {
	Verdict Verdict `json:"verdict"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

// Router classifies scored items against an active scoring configuration.
type Router struct {
	cfg *domain.ScoringConfig
}

func NewRouter(cfg *domain.ScoringConfig) *Router {
	return &Router{cfg: cfg}
}

// Route decides what happens to an item given its aggregate score and
// per-check scores. An auto-reject check scoring below the pass threshold
// forces rejection regardless of the aggregate; otherwise the aggregate is
// compared against the threshold with the borderline band routed to human
// review.
func (r *Router) Route(overall float64, checkScores map[domain.Check]float64) *RoutingResult {
	for _, check := range r.cfg.AutoRejectChecks {
		score, ok := checkScores[check]
		if ok && score < r.cfg.PassThreshold {
			return &RoutingResult{
				Verdict: VerdictRejected,
				Score:   overall,
				Reason:  fmt.Sprintf("auto-reject check %s scored %.1f, below %.1f", check, score, r.cfg.PassThreshold),
			}
		}
	}

	switch {
	case overall >= r.cfg.PassThreshold:
		return &RoutingResult{
			Verdict: VerdictApproved,
			Score:   overall,
			Reason:  "aggregate score at or above pass threshold",
		}
	case r.cfg.Borderline.Contains(overall):
		return &RoutingResult{
			Verdict: VerdictHumanReview,
			Score:   overall,
			Reason:  fmt.Sprintf("score %.1f in borderline band [%.1f, %.1f)", overall, r.cfg.Borderline.Low, r.cfg.Borderline.High),
		}
	default:
		return &RoutingResult{
			Verdict: VerdictRejected,
			Score:   overall,
			Reason:  "aggregate score below borderline band",
		}
	}
}

// WeightedOverall collapses per-check scores into a weighted aggregate using
// the configuration's check weights. Checks without a score are skipped.
func (r *Router) WeightedOverall(checkScores map[domain.Check]float64) float64 {
	var sum, weightSum float64
	for _, check := range domain.AllChecks {
		score, ok := checkScores[check]
		if !ok {
			continue
		}
		w := r.cfg.CheckWeights[check]
		sum += score * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}
