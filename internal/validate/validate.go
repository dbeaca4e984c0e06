// Package validate checks ledger invariants on the final account snapshot
// before the report is written.
package validate

import (
	"fmt"
	"math"

	"github.com/rumor-ml/commons.systems/payengine/internal/ledger"
)

// Tolerance is the allowed floating-point drift between total and
// available + held.
const Tolerance = 1e-9

// ValidationResult contains all errors and warnings found in a snapshot.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError is a broken invariant; the run must not emit a report.
type ValidationError struct {
	Client  uint16
	Field   string
	Message string
}

// ValidationWarning is a suspicious but legal state, such as a negative
// available balance left behind by a dispute against withdrawn funds.
type ValidationWarning struct {
	Client  uint16
	Field   string
	Message string
}

// Accounts validates the final account snapshot.
//
// total == available + held (within Tolerance) is the hard invariant; every
// applied transaction preserves it, so a violation here means ledger
// corruption. Negative available or total values can legally arise from the
// dispute workflow and are reported as warnings only.
func Accounts(accounts []ledger.Account) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	for _, acct := range accounts {
		drift := math.Abs(acct.Total - (acct.Available + acct.Held))
		if drift > Tolerance {
			result.Errors = append(result.Errors, ValidationError{
				Client: acct.ID,
				Field:  "total",
				Message: fmt.Sprintf("total %v does not equal available %v + held %v (drift %g)",
					acct.Total, acct.Available, acct.Held, drift),
			})
		}

		if acct.Available < -Tolerance {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Client:  acct.ID,
				Field:   "available",
				Message: fmt.Sprintf("available balance is negative (%v)", acct.Available),
			})
		}

		if acct.Total < -Tolerance {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Client:  acct.ID,
				Field:   "total",
				Message: fmt.Sprintf("total balance is negative (%v)", acct.Total),
			})
		}

		if acct.Held < -Tolerance {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Client:  acct.ID,
				Field:   "held",
				Message: fmt.Sprintf("held balance is negative (%v)", acct.Held),
			})
		}
	}

	return result
}
