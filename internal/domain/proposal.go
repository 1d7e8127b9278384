package domain

import "time"

// ProposalStatus is the lifecycle state of a calibration proposal.
//
// proposed is the only non-terminal state: an operator either activates or
// dismisses it. insufficient_evidence is terminal from the start and exists
// so that every calibration attempt is auditable, including the ones the
// safety rails rejected.
type ProposalStatus string

const (
	ProposalStatusProposed             ProposalStatus = "proposed"
	ProposalStatusInsufficientEvidence ProposalStatus = "insufficient_evidence"
	ProposalStatusActivated            ProposalStatus = "activated"
	ProposalStatusDismissed            ProposalStatus = "dismissed"
)

func (s ProposalStatus) Terminal() bool {
	return s != ProposalStatusProposed
}

// CalibrationProposal is one calibration attempt: the candidate configuration
// derived from an override-window analysis, plus the evidence it was derived
// from. Rows are append-only except for the status-transition fields.
type CalibrationProposal struct {
	ID     string         `json:"id"`
	Scope  *string        `json:"scope,omitempty"`
	Status ProposalStatus `json:"status"`

	CurrentConfigID string `json:"current_config_id"`

	ProposedPassThreshold    float64           `json:"proposed_pass_threshold"`
	ProposedCheckWeights     map[Check]float64 `json:"proposed_check_weights"`
	ProposedBorderline       BorderlineRange   `json:"proposed_borderline_range"`
	ProposedAutoRejectChecks []Check           `json:"proposed_auto_reject_checks"`

	WindowStart       time.Time `json:"analysis_window_start"`
	WindowEnd         time.Time `json:"analysis_window_end"`
	TotalOverrides    int       `json:"total_overrides_analyzed"`
	FalsePositiveRate *float64  `json:"false_positive_rate"`
	FalseNegativeRate *float64  `json:"false_negative_rate"`

	MeetsMinSampleSize bool `json:"meets_min_sample_size"`
	WithinDeltaBounds  bool `json:"within_delta_bounds"`

	// ExpectedApprovalRateChange is a rough operator-facing hint, not a
	// guaranteed property.
	ExpectedApprovalRateChange float64 `json:"expected_approval_rate_change"`

	Reason      string  `json:"reason,omitempty"`
	TriggeredBy *string `json:"triggered_by,omitempty"`

	ActivatedConfigID *string    `json:"activated_config_id,omitempty"`
	ActivatedBy       *string    `json:"activated_by,omitempty"`
	ActivatedAt       *time.Time `json:"activated_at,omitempty"`
	DismissedBy       *string    `json:"dismissed_by,omitempty"`
	DismissedAt       *time.Time `json:"dismissed_at,omitempty"`
	DismissedReason   *string    `json:"dismissed_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
