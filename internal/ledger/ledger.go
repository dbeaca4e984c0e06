// Package ledger implements the payments ledger state machine: per-client
// account balances plus the dispute workflow over stored transaction entries.
package ledger

import (
	"sync"

	"github.com/rumor-ml/commons.systems/payengine/internal/record"
)

// Status is the dispute state of a stored ledger entry.
type Status string

const (
	StatusUndisputed Status = "undisputed"
	StatusDisputed   Status = "disputed"
)

// Entry is the stored record of an accepted deposit or withdrawal, keyed by
// transaction id. The amount is immutable once stored; only Status changes,
// driven by the dispute workflow (dispute → resolve | chargeback).
type Entry struct {
	Client uint16
	Type   record.Type
	Amount float64
	Status Status
}

// Options control the optional guards on the state machine. The zero value
// reproduces the permissive upstream behavior: re-disputes are allowed to
// double-count holds, and locked accounts remain writable.
type Options struct {
	// StrictDisputes rejects a dispute against an entry that is already
	// disputed instead of double-counting the hold.
	StrictDisputes bool
	// EnforceLocks rejects every transaction touching an account that was
	// locked by a chargeback.
	EnforceLocks bool
}

// Ledger owns the client registry and the entry map and applies transactions
// one at a time. All state is private and reached only through Apply and
// Accounts, both of which take the internal lock, so a single Ledger can be
// shared by concurrent ingestion streams.
type Ledger struct {
	mu      sync.Mutex
	clients *Registry
	entries map[uint32]*Entry
	opts    Options
}

// New creates an empty ledger with the given options.
func New(opts Options) *Ledger {
	return &Ledger{
		clients: NewRegistry(),
		entries: make(map[uint32]*Entry),
		opts:    opts,
	}
}

// Apply validates and applies one transaction. Each call is a mutually
// exclusive critical section and is atomic: on error, no account or entry
// state has changed.
func (l *Ledger) Apply(tx *record.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch tx.Type {
	case record.TypeDeposit:
		return l.deposit(tx)
	case record.TypeWithdrawal:
		return l.withdraw(tx)
	case record.TypeDispute:
		return l.dispute(tx)
	case record.TypeResolve:
		return l.resolve(tx)
	case record.TypeChargeback:
		return l.chargeback(tx)
	default:
		// Parse guarantees one of the five kinds; unreachable for parsed input.
		return ErrMalformedRequest
	}
}

// Accounts returns a snapshot of all accounts sorted by client id.
func (l *Ledger) Accounts() []Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clients.Snapshot()
}

// EntryCount returns the number of stored ledger entries.
func (l *Ledger) EntryCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Ledger) checkLock(acct *Account) error {
	if l.opts.EnforceLocks && acct.Locked {
		return &AccountLockedError{Client: acct.ID}
	}
	return nil
}

func (l *Ledger) deposit(tx *record.Transaction) error {
	acct := l.clients.GetOrCreate(tx.Client)
	if err := l.checkLock(acct); err != nil {
		return err
	}
	if tx.Amount == nil {
		return ErrMalformedRequest
	}

	acct.Available += *tx.Amount
	acct.Total += *tx.Amount
	// Duplicate tx ids overwrite silently; uniqueness is the producer's problem.
	l.entries[tx.Tx] = &Entry{
		Client: tx.Client,
		Type:   tx.Type,
		Amount: *tx.Amount,
		Status: StatusUndisputed,
	}
	return nil
}

func (l *Ledger) withdraw(tx *record.Transaction) error {
	acct := l.clients.GetOrCreate(tx.Client)
	if err := l.checkLock(acct); err != nil {
		return err
	}
	if tx.Amount == nil {
		return ErrMalformedRequest
	}

	if acct.Available < *tx.Amount {
		return &InsufficientFundsError{
			Client:    tx.Client,
			Requested: *tx.Amount,
			Available: acct.Available,
		}
	}

	acct.Available -= *tx.Amount
	acct.Total -= *tx.Amount
	l.entries[tx.Tx] = &Entry{
		Client: tx.Client,
		Type:   tx.Type,
		Amount: *tx.Amount,
		Status: StatusUndisputed,
	}
	return nil
}

// findDisputeTarget resolves the account and entry referenced by a
// dispute-workflow transaction. Unlike deposits and withdrawals, these
// operations never create accounts.
func (l *Ledger) findDisputeTarget(tx *record.Transaction) (*Account, *Entry, error) {
	acct := l.clients.Find(tx.Client)
	if acct == nil {
		return nil, nil, &ClientNotFoundError{Client: tx.Client}
	}
	entry, ok := l.entries[tx.Tx]
	if !ok {
		return nil, nil, &InvalidDisputeError{Tx: tx.Tx}
	}
	if err := l.checkLock(acct); err != nil {
		return nil, nil, err
	}
	return acct, entry, nil
}

func (l *Ledger) dispute(tx *record.Transaction) error {
	acct, entry, err := l.findDisputeTarget(tx)
	if err != nil {
		return err
	}
	if l.opts.StrictDisputes && entry.Status == StatusDisputed {
		return &InvalidDisputeError{Tx: tx.Tx}
	}

	acct.Held += entry.Amount
	acct.Available -= entry.Amount
	entry.Status = StatusDisputed
	return nil
}

func (l *Ledger) resolve(tx *record.Transaction) error {
	acct, entry, err := l.findDisputeTarget(tx)
	if err != nil {
		return err
	}
	if entry.Status != StatusDisputed {
		return &InvalidDisputeError{Tx: tx.Tx}
	}

	acct.Held -= entry.Amount
	acct.Available += entry.Amount
	entry.Status = StatusUndisputed
	return nil
}

func (l *Ledger) chargeback(tx *record.Transaction) error {
	acct, entry, err := l.findDisputeTarget(tx)
	if err != nil {
		return err
	}
	if entry.Status != StatusDisputed {
		return &InvalidDisputeError{Tx: tx.Tx}
	}

	acct.Held -= entry.Amount
	acct.Total -= entry.Amount
	acct.Locked = true
	// The entry stays disputed: a charged-back transaction is terminal and
	// cannot be re-resolved.
	return nil
}

// Entry returns a copy of the stored entry for tx, if any. Intended for
// tests and diagnostics.
func (l *Ledger) Entry(tx uint32) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[tx]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}
