package account

import (
	"fmt"

	"github.com/xraph/tokenledger/types"
)

// InsufficientFundsError is returned by Debit when the balance is below the
// requested amount.
type InsufficientFundsError struct {
	Account   Account
	Available types.Amount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("account: insufficient funds in %s: available %s", e.Account, e.Available)
}

// Store maps accounts to balances. Absent entries read as zero; entries that
// reach zero are pruned. Store has no locking of its own: callers serialize
// access.
type Store struct {
	balances map[Account]types.Amount
}

// NewStore returns an empty balance table.
func NewStore() *Store {
	return &Store{balances: make(map[Account]types.Amount)}
}

// Get returns the balance of acc, zero if unknown.
func (s *Store) Get(acc Account) types.Amount {
	return s.balances[acc]
}

// Credit adds amount to acc. It fails with types.ErrOverflow and leaves the
// balance untouched if the result is not representable.
func (s *Store) Credit(acc Account, amount types.Amount) error {
	next, err := credit(acc, s.balances[acc], amount)
	if err != nil {
		return err
	}
	s.set(acc, next)
	return nil
}

// Debit subtracts amount from acc. It fails with *InsufficientFundsError and
// leaves the balance untouched if the balance is below amount.
func (s *Store) Debit(acc Account, amount types.Amount) error {
	next, err := debit(acc, s.balances[acc], amount)
	if err != nil {
		return err
	}
	s.set(acc, next)
	return nil
}

// Len returns the number of non-zero balances.
func (s *Store) Len() int { return len(s.balances) }

// Range calls fn for every non-zero balance until fn returns false.
// Iteration order is unspecified.
func (s *Store) Range(fn func(Account, types.Amount) bool) {
	for acc, bal := range s.balances {
		if !fn(acc, bal) {
			return
		}
	}
}

// Sum returns the total of all balances, reporting false on overflow.
func (s *Store) Sum() (types.Amount, bool) {
	total := types.Zero
	for _, bal := range s.balances {
		var ok bool
		if total, ok = total.CheckedAdd(bal); !ok {
			return types.Zero, false
		}
	}
	return total, true
}

// Batch starts a staged write set over s.
func (s *Store) Batch() *Batch {
	return &Batch{store: s, staged: make(map[Account]types.Amount, 3)}
}

func (s *Store) set(acc Account, bal types.Amount) {
	if bal.IsZero() {
		delete(s.balances, acc)
		return
	}
	s.balances[acc] = bal
}

// Batch stages balance changes against a Store. Reads see staged values;
// nothing reaches the Store until Commit, so a failed Debit or Credit can be
// abandoned by dropping the Batch.
type Batch struct {
	store  *Store
	staged map[Account]types.Amount
	order  []Account
}

// Get returns the staged balance of acc, falling back to the store.
func (b *Batch) Get(acc Account) types.Amount {
	if bal, ok := b.staged[acc]; ok {
		return bal
	}
	return b.store.Get(acc)
}

// Credit stages acc += amount.
func (b *Batch) Credit(acc Account, amount types.Amount) error {
	next, err := credit(acc, b.Get(acc), amount)
	if err != nil {
		return err
	}
	b.stage(acc, next)
	return nil
}

// Debit stages acc -= amount.
func (b *Batch) Debit(acc Account, amount types.Amount) error {
	next, err := debit(acc, b.Get(acc), amount)
	if err != nil {
		return err
	}
	b.stage(acc, next)
	return nil
}

// Commit writes every staged balance to the store. It cannot fail. The
// Batch must not be used afterwards.
func (b *Batch) Commit() {
	for _, acc := range b.order {
		b.store.set(acc, b.staged[acc])
	}
	b.staged = nil
	b.order = nil
}

func (b *Batch) stage(acc Account, bal types.Amount) {
	if _, seen := b.staged[acc]; !seen {
		b.order = append(b.order, acc)
	}
	b.staged[acc] = bal
}

func credit(acc Account, bal, amount types.Amount) (types.Amount, error) {
	next, ok := bal.CheckedAdd(amount)
	if !ok {
		return types.Zero, fmt.Errorf("%w: credit %s to %s (balance %s)", types.ErrOverflow, amount, acc, bal)
	}
	return next, nil
}

func debit(acc Account, bal, amount types.Amount) (types.Amount, error) {
	next, ok := bal.CheckedSub(amount)
	if !ok {
		return types.Zero, &InsufficientFundsError{Account: acc, Available: bal}
	}
	return next, nil
}
