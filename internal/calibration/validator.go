package calibration

import (
	"fmt"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// ValidateCandidate checks the structural invariants of a candidate scoring
// configuration. All checks run independently; every violation is reported.
// An empty slice means the candidate is valid.
func ValidateCandidate(threshold float64, weights map[domain.Check]float64, borderline domain.BorderlineRange, autoReject []domain.Check) []string {
	var errs []string

	if threshold < 1.0 || threshold > 10.0 {
		errs = append(errs, fmt.Sprintf("pass_threshold %.2f outside [1.0, 10.0]", threshold))
	}

	for _, check := range domain.AllChecks {
		w, ok := weights[check]
		if !ok {
			errs = append(errs, fmt.Sprintf("check_weights missing check %s", check))
			continue
		}
		if w < 0 {
			errs = append(errs, fmt.Sprintf("check_weights[%s] = %.2f is negative", check, w))
		}
	}

	if borderline.Low >= borderline.High {
		errs = append(errs, fmt.Sprintf("borderline_range low %.2f must be below high %.2f", borderline.Low, borderline.High))
	}
	if borderline.Low < 0 || borderline.Low > 10 {
		errs = append(errs, fmt.Sprintf("borderline_range low %.2f outside [0, 10]", borderline.Low))
	}
	if borderline.High < 0 || borderline.High > 10 {
		errs = append(errs, fmt.Sprintf("borderline_range high %.2f outside [0, 10]", borderline.High))
	}

	for _, check := range autoReject {
		if !check.Valid() {
			errs = append(errs, fmt.Sprintf("auto_reject_checks contains unknown check %s", check))
		}
	}

	return errs
}
