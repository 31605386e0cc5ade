// Package sqlite archives ledger transactions in SQLite through grove.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/tokenledger"
	ledgerstore "github.com/xraph/tokenledger/store"
	"github.com/xraph/tokenledger/transaction"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("tokenledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tokenledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Transaction archive ====================

func (s *Store) ArchiveTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	models := make([]transactionModel, len(txs))
	for i, tx := range txs {
		models[i] = *toTransactionModel(tx)
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(tx_index) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokenledger/sqlite: archive %d transactions: %w", len(txs), err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, index uint64) (*transaction.Transaction, error) {
	m := new(transactionModel)
	err := s.sdb.NewSelect(m).
		Where("tx_index = ?", int64(index)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: index %d", tokenledger.ErrTransactionNotFound, index)
		}
		return nil, err
	}
	return fromTransactionModel(m)
}

func (s *Store) ListTransactions(ctx context.Context, opts transaction.QueryOpts) ([]*transaction.Transaction, error) {
	var models []transactionModel
	q := s.sdb.NewSelect(&models)

	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if opts.Account != nil {
		owner, sub := ledgerstore.AccountColumns(*opts.Account)
		q = q.Where("((from_owner = ? AND from_subaccount = ?) OR (to_owner = ? AND to_subaccount = ?))",
			owner, sub, owner, sub)
	}
	if !opts.Start.IsZero() {
		q = q.Where("timestamp >= ?", opts.Start.UTC())
	}
	if !opts.End.IsZero() {
		q = q.Where("timestamp < ?", opts.End.UTC())
	}
	switch {
	case opts.Limit > 0:
		q = q.Limit(opts.Limit)
	case opts.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT.
		q = q.Limit(math.MaxInt)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("tx_index ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*transaction.Transaction, len(models))
	for i := range models {
		tx, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = tx
	}
	return result, nil
}

func (s *Store) LastArchivedIndex(ctx context.Context) (uint64, bool, error) {
	var last int64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(tx_index), -1) FROM tokenledger_transactions`).Scan(ctx, &last)
	if err != nil {
		return 0, false, err
	}
	if last < 0 {
		return 0, false, nil
	}
	return uint64(last), true, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
