package ledger

import "sort"

// Account holds the mutable balance state for one client.
//
// The invariant Total == Available + Held holds after every applied
// transaction. Available may legally go negative through disputes when
// upstream data does not match expectations; only withdrawals enforce a
// non-negative result.
type Account struct {
	ID        uint16
	Available float64
	Held      float64
	Total     float64
	Locked    bool
}

// Registry maps client ids to accounts, creating them lazily on first
// reference. Accounts are never deleted.
type Registry struct {
	accounts map[uint16]*Account
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{accounts: make(map[uint16]*Account)}
}

// GetOrCreate returns the account for id, creating it with zeroed,
// unlocked defaults if absent. Idempotent and never fails.
func (r *Registry) GetOrCreate(id uint16) *Account {
	if acct, ok := r.accounts[id]; ok {
		return acct
	}
	acct := &Account{ID: id}
	r.accounts[id] = acct
	return acct
}

// Find returns the account for id, or nil when the client has never been
// referenced. Dispute-workflow operations use Find because they must not
// implicitly create accounts.
func (r *Registry) Find(id uint16) *Account {
	return r.accounts[id]
}

// Len returns the number of registered accounts.
func (r *Registry) Len() int {
	return len(r.accounts)
}

// Snapshot returns a defensive copy of all accounts sorted by client id.
func (r *Registry) Snapshot() []Account {
	accounts := make([]Account, 0, len(r.accounts))
	for _, acct := range r.accounts {
		accounts = append(accounts, *acct)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID < accounts[j].ID
	})
	return accounts
}
