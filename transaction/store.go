package transaction

import (
	"context"
	"time"

	"github.com/xraph/tokenledger/account"
)

// Store persists committed transactions outside the process. The in-memory
// Log stays authoritative; the store is an append-only archive.
type Store interface {
	// ArchiveTransactions writes txs. Re-archiving an index is a no-op.
	ArchiveTransactions(ctx context.Context, txs []*Transaction) error
	GetTransaction(ctx context.Context, index uint64) (*Transaction, error)
	ListTransactions(ctx context.Context, opts QueryOpts) ([]*Transaction, error)
	// LastArchivedIndex reports the highest archived index, false when empty.
	LastArchivedIndex(ctx context.Context) (uint64, bool, error)
}

type QueryOpts struct {
	Account *account.Account
	Kind    Kind
	Start   time.Time
	End     time.Time
	Limit   int
	Offset  int
}

// Match reports whether tx satisfies every filter in o. Limit and Offset are
// ignored.
func (o QueryOpts) Match(tx *Transaction) bool {
	if o.Kind != "" && tx.Kind() != o.Kind {
		return false
	}
	if o.Account != nil && !tx.Operation.Touches(*o.Account) {
		return false
	}
	if !o.Start.IsZero() && tx.Timestamp.Before(o.Start) {
		return false
	}
	if !o.End.IsZero() && !tx.Timestamp.Before(o.End) {
		return false
	}
	return true
}
