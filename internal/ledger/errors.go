package ledger

import (
	"errors"
	"fmt"
)

// ErrMalformedRequest reports a deposit or withdrawal that arrived without
// an amount. The parser accepts such records syntactically; the ledger
// rejects them here.
var ErrMalformedRequest = errors.New("malformed transaction request: amount is required")

// ClientNotFoundError reports a dispute-workflow operation referencing a
// client that has never been seen.
type ClientNotFoundError struct {
	Client uint16
}

func (e *ClientNotFoundError) Error() string {
	return fmt.Sprintf("client %d not found", e.Client)
}

// InsufficientFundsError reports a withdrawal exceeding the client's
// available balance. The requested and available amounts are preserved
// exactly as seen at apply time.
type InsufficientFundsError struct {
	Client    uint16
	Requested float64
	Available float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("client %d: insufficient funds (requested %v, available %v)",
		e.Client, e.Requested, e.Available)
}

// InvalidDisputeError reports a dispute, resolve, or chargeback referencing
// a transaction id with no stored entry, or an entry in the wrong dispute
// state for the operation.
type InvalidDisputeError struct {
	Tx uint32
}

func (e *InvalidDisputeError) Error() string {
	return fmt.Sprintf("invalid dispute reference for tx %d", e.Tx)
}

// AccountLockedError reports a transaction rejected because its account was
// locked by an earlier chargeback. Only returned when lock enforcement is
// enabled.
type AccountLockedError struct {
	Client uint16
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account %d is locked", e.Client)
}
