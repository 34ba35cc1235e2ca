package domain

import (
	"fmt"

	"github.com/videticket/videticket/internal/verr"
)

// invariantErrf builds a *verr.Error of kind InvalidTicketState, so callers
// switching on verr.KindOf/verr.Is see a kind for Validate's timestamp and
// status-coupling checks, the same as every other Validate failure.
func invariantErrf(format string, args ...any) error {
	return verr.New(verr.InvalidTicketState, fmt.Sprintf(format, args...))
}
