// Package mongo archives ledger transactions in MongoDB through grove.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/tokenledger"
	ledgerstore "github.com/xraph/tokenledger/store"
	"github.com/xraph/tokenledger/transaction"
)

// Collection name constants.
const (
	colTransactions = "tokenledger_transactions"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("tokenledger/mongo: migrate %s indexes: %w", col, err)
		}
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
	for _, tx := range txs {
		m := toTransactionModel(tx)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			// Already archived
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("tokenledger/mongo: archive transaction %d: %w", tx.Index, err)
		}
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, index uint64) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(index)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: index %d", tokenledger.ErrTransactionNotFound, index)
		}
		return nil, fmt.Errorf("tokenledger/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, opts transaction.QueryOpts) ([]*transaction.Transaction, error) {
	var models []transactionModel

	q := s.mdb.NewFind(&models).
		Filter(queryFilter(opts)).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tokenledger/mongo: list transactions: %w", err)
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
	var models []transactionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("tokenledger/mongo: last archived index: %w", err)
	}
	if len(models) == 0 {
		return 0, false, nil
	}
	return uint64(models[0].Index), true, nil
}

// ==================== Helpers ====================

func queryFilter(opts transaction.QueryOpts) bson.M {
	filter := bson.M{}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.Account != nil {
		owner, sub := ledgerstore.AccountColumns(*opts.Account)
		filter["$or"] = bson.A{
			bson.M{"from_owner": owner, "from_subaccount": sub},
			bson.M{"to_owner": owner, "to_subaccount": sub},
		}
	}
	if !opts.Start.IsZero() || !opts.End.IsZero() {
		ts := bson.M{}
		if !opts.Start.IsZero() {
			ts["$gte"] = opts.Start
		}
		if !opts.End.IsZero() {
			ts["$lt"] = opts.End
		}
		filter["timestamp"] = ts
	}
	return filter
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTransactions: {
			{
				Keys:    bson.D{{Key: "tx_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "from_owner", Value: 1}, {Key: "from_subaccount", Value: 1}}},
			{Keys: bson.D{{Key: "to_owner", Value: 1}, {Key: "to_subaccount", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
	}
}
