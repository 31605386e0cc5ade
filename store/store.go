// Package store declares the persistence boundary of the token ledger.
package store

import (
	"context"

	"github.com/xraph/tokenledger/transaction"
)

// Store is the unified storage interface used by the ledger. It archives
// committed transactions; balances are rebuilt from the in-memory log and
// never read back from here.
type Store interface {
	// Transaction archive
	ArchiveTransactions(ctx context.Context, txs []*transaction.Transaction) error
	GetTransaction(ctx context.Context, index uint64) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, opts transaction.QueryOpts) ([]*transaction.Transaction, error)
	LastArchivedIndex(ctx context.Context) (uint64, bool, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var _ transaction.Store = (Store)(nil)
