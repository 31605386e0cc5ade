// Package postgres archives ledger transactions in PostgreSQL through grove.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/tokenledger"
	ledgerstore "github.com/xraph/tokenledger/store"
	"github.com/xraph/tokenledger/transaction"
	"github.com/xraph/tokenledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("tokenledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tokenledger/postgres: migration failed: %w", err)
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
	_, err := s.pg.NewInsert(&models).
		OnConflict("(tx_index) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokenledger/postgres: archive %d transactions: %w", len(txs), err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, index uint64) (*transaction.Transaction, error) {
	m := new(transactionModel)
	err := s.pg.NewSelect(m).
		Where("tx_index = $1", int64(index)).
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
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.Account != nil {
		owner, sub := ledgerstore.AccountColumns(*opts.Account)
		q = q.Where(fmt.Sprintf("((from_owner = $%d AND from_subaccount = $%d) OR (to_owner = $%d AND to_subaccount = $%d))",
			argIdx+1, argIdx+2, argIdx+3, argIdx+4), owner, sub, owner, sub)
		argIdx += 4
	}
	if !opts.Start.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("timestamp >= $%d", argIdx), opts.Start)
	}
	if !opts.End.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("timestamp < $%d", argIdx), opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
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
	err := s.pg.NewRaw(`SELECT COALESCE(MAX(tx_index), -1) FROM tokenledger_transactions`).Scan(ctx, &last)
	if err != nil {
		return 0, false, err
	}
	if last < 0 {
		return 0, false, nil
	}
	return uint64(last), true, nil
}

// ArchivedSupply returns the total supply implied by the archive: minted
// minus burned. It matches the ledger's TotalSupply once the journal has
// drained.
func (s *Store) ArchivedSupply(ctx context.Context) (types.Amount, error) {
	var supply string
	err := s.pg.NewRaw(`SELECT total_supply::TEXT FROM tokenledger_supply`).Scan(ctx, &supply)
	if err != nil {
		return types.Zero, err
	}
	return types.ParseAmount(supply)
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
