package calibration

import (
	"errors"
	"fmt"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// ErrProposalNotFound is returned when an operator acts on a proposal id
// that does not exist.
var ErrProposalNotFound = errors.New("calibration proposal not found")

// StatusError reports an operator action attempted on a proposal that is not
// in the required lifecycle state.
type StatusError struct {
	ProposalID string
	Expected   domain.ProposalStatus
	Actual     domain.ProposalStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("proposal %s is %s, not %s", e.ProposalID, e.Actual, e.Expected)
}

// IsStatusError reports whether err carries a proposal lifecycle precondition
// violation.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
