package main

import (
	"fmt"
	"os"

	"github.com/rumor-ml/commons.systems/payengine/internal/ledger"
	"github.com/rumor-ml/commons.systems/payengine/internal/ui"
	"github.com/rumor-ml/commons.systems/payengine/internal/validate"
)

// checkInvariants validates the final snapshot before any report output.
// Broken balance invariants abort the run; suspicious but legal states
// (negative balances from the dispute workflow) only warn.
func checkInvariants(accounts []ledger.Account) error {
	result := validate.Accounts(accounts)

	if len(result.Errors) > 0 {
		ui.Error(fmt.Sprintf("Validation failed with %d error(s)", len(result.Errors)))
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - client %d [%s]: %s\n", e.Client, e.Field, e.Message)
		}
		return fmt.Errorf("final state validation failed with %d error(s)", len(result.Errors))
	}

	for _, w := range result.Warnings {
		ui.Warning(fmt.Sprintf("client %d [%s]: %s", w.Client, w.Field, w.Message))
	}
	return nil
}
