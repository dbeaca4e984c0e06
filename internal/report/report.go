// Package report serializes final account states to the CSV balance report.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rumor-ml/commons.systems/payengine/internal/ledger"
)

// Header is the first row of every balance report.
var Header = []string{"client", "available", "held", "total", "locked"}

// Write emits the balance report for the given accounts: one header row
// followed by one row per account, amounts formatted to 4 fractional digits
// and locked as a boolean literal. Rows are written in the order given;
// callers wanting deterministic output should pass a sorted snapshot.
func Write(w io.Writer, accounts []ledger.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, acct := range accounts {
		row := []string{
			strconv.FormatUint(uint64(acct.ID), 10),
			formatAmount(acct.Available),
			formatAmount(acct.Held),
			formatAmount(acct.Total),
			strconv.FormatBool(acct.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write report row for client %d: %w", acct.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
