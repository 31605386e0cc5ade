// Package memory provides an in-process archive store. It is the default for
// tests and for ledgers that do not need an external copy of the log.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/store"
	"github.com/xraph/tokenledger/transaction"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Transaction archive keyed by log index
	transactions map[uint64]*transaction.Transaction
	lastIndex    uint64
	hasAny       bool
}

func New() *Store {
	return &Store{
		transactions: make(map[uint64]*transaction.Transaction),
	}
}

// Transaction archive implementation
func (s *Store) ArchiveTransactions(_ context.Context, txs []*transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tokenledger.ErrStoreClosed
	}

	for _, tx := range txs {
		if _, exists := s.transactions[tx.Index]; exists {
			continue // Archiving is idempotent on index
		}
		s.transactions[tx.Index] = tx.Clone()
		if !s.hasAny || tx.Index > s.lastIndex {
			s.lastIndex = tx.Index
			s.hasAny = true
		}
	}
	return nil
}

func (s *Store) GetTransaction(_ context.Context, index uint64) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tx, ok := s.transactions[index]; ok {
		return tx.Clone(), nil
	}
	return nil, fmt.Errorf("%w: index %d", tokenledger.ErrTransactionNotFound, index)
}

func (s *Store) ListTransactions(_ context.Context, opts transaction.QueryOpts) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*transaction.Transaction, 0)
	for _, tx := range s.transactions {
		if opts.Match(tx) {
			result = append(result, tx.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })

	// Apply limit/offset; negative values count as unset.
	start := min(max(opts.Offset, 0), len(result))
	end := len(result)
	if opts.Limit > 0 && opts.Limit < end-start {
		end = start + opts.Limit
	}

	return result[start:end], nil
}

func (s *Store) LastArchivedIndex(_ context.Context) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastIndex, s.hasAny, nil
}

// Len returns the number of archived transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return tokenledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
