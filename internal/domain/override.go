package domain

import "time"

// OverrideAction is the human decision taken on an automated verdict.
type OverrideAction string

const (
	OverrideActionConfirm OverrideAction = "confirm"
	OverrideActionApprove OverrideAction = "override_approve"
	OverrideActionReject  OverrideAction = "override_reject"
)

func (a OverrideAction) Valid() bool {
	switch a {
	case OverrideActionConfirm, OverrideActionApprove, OverrideActionReject:
		return true
	}
	return false
}

// AutomatedStatus is the verdict automation had reached at decision time.
type AutomatedStatus string

const (
	AutomatedStatusApproved AutomatedStatus = "approved"
	AutomatedStatusRejected AutomatedStatus = "rejected"
	AutomatedStatusFlagged  AutomatedStatus = "flagged"
)

func (s AutomatedStatus) Valid() bool {
	switch s {
	case AutomatedStatusApproved, AutomatedStatusRejected, AutomatedStatusFlagged:
		return true
	}
	return false
}

// OverrideRecord is one human decision on a generated ad. Only the latest
// record per generated item (SupersededBy == nil) feeds calibration.
type OverrideRecord struct {
	ID              string            `json:"id"`
	GeneratedItemID string            `json:"generated_item_id"`
	Scope           *string           `json:"scope,omitempty"`
	Action          OverrideAction    `json:"override_action"`
	AutomatedStatus AutomatedStatus   `json:"automated_status"`
	CheckScores     map[Check]float64 `json:"per_check_scores,omitempty"`
	SupersededBy    *string           `json:"superseded_by,omitempty"`
	ReviewerID      string            `json:"reviewer_id,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// IsFalsePositive reports whether automation approved and a human later
// rejected.
func (r *OverrideRecord) IsFalsePositive() bool {
	return r.AutomatedStatus == AutomatedStatusApproved && r.Action == OverrideActionReject
}

// IsFalseNegative reports whether automation rejected or flagged and a human
// later approved.
func (r *OverrideRecord) IsFalseNegative() bool {
	return (r.AutomatedStatus == AutomatedStatusRejected || r.AutomatedStatus == AutomatedStatusFlagged) &&
		r.Action == OverrideActionApprove
}

// CheckStat accumulates per-check miscalibration counts across a window.
type CheckStat struct {
	FalsePositives int `json:"fp"`
	FalseNegatives int `json:"fn"`
	Total          int `json:"total"`
}

func (s *CheckStat) FalsePositiveRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.FalsePositives) / float64(s.Total)
}

func (s *CheckStat) FalseNegativeRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.FalseNegatives) / float64(s.Total)
}

// AnalysisResult is the output of an override-window analysis. Aggregate
// rates are nil when their denominator is zero.
type AnalysisResult struct {
	Scope             *string              `json:"scope,omitempty"`
	WindowStart       time.Time            `json:"window_start"`
	WindowEnd         time.Time            `json:"window_end"`
	TotalOverrides    int                  `json:"total_overrides"`
	TotalApprovedByAI int                  `json:"total_approved_by_ai"`
	TotalRejectedByAI int                  `json:"total_rejected_by_ai"`
	FalsePositives    int                  `json:"false_positives"`
	FalseNegatives    int                  `json:"false_negatives"`
	FalsePositiveRate *float64             `json:"false_positive_rate"`
	FalseNegativeRate *float64             `json:"false_negative_rate"`
	CheckStats        map[Check]*CheckStat `json:"per_check_rates"`
}
