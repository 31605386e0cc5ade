package tokenledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/id"
	"github.com/xraph/tokenledger/metadata"
	"github.com/xraph/tokenledger/plugin"
	"github.com/xraph/tokenledger/store"
	"github.com/xraph/tokenledger/transaction"
	"github.com/xraph/tokenledger/types"
)

// Defaults taken by New when no option overrides them.
const (
	DefaultName           = "DHT Token"
	DefaultSymbol         = "DHT"
	DefaultDecimals uint8 = 8

	DefaultTxWindow       = 24 * time.Hour
	DefaultPermittedDrift = 2 * time.Minute

	// DefaultGenesisTokens is the whole-token supply minted to the deployer
	// by GenesisMint.
	DefaultGenesisTokens = 100_000_000
)

// DefaultFee is the transfer fee in minor units.
var DefaultFee = types.NewAmount(10_000)

// DefaultFeeCollector receives every transfer fee unless overridden.
var DefaultFeeCollector = account.New(account.Anonymous)

// Ledger is the token accounting engine. It owns the balance table, the
// transaction log and the cached total supply, and serializes every
// mutation behind one lock.
type Ledger struct {
	mu          sync.RWMutex
	accounts    *account.Store
	log         *transaction.Log
	totalSupply types.Amount
	dedup       *dedupIndex
	started     bool
	stopped     bool

	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	metadata *metadata.Registry

	// Configuration
	fee            types.Amount
	feeCollector   account.Account
	tokenInfo      metadata.TokenInfo
	clock          func() time.Time
	txWindow       time.Duration
	permittedDrift time.Duration
	initialMints   []initialMint
	optErr         error // first option failure, returned by Start

	// Journal worker
	journal *journal
}

type initialMint struct {
	to     account.Account
	amount types.Amount
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		accounts:       account.NewStore(),
		log:            transaction.NewLog(),
		store:          s,
		plugins:        plugin.NewRegistry(),
		logger:         slog.Default(),
		fee:            DefaultFee,
		feeCollector:   DefaultFeeCollector,
		tokenInfo:      metadata.TokenInfo{Name: DefaultName, Symbol: DefaultSymbol, Decimals: DefaultDecimals},
		clock:          time.Now,
		txWindow:       DefaultTxWindow,
		permittedDrift: DefaultPermittedDrift,
		journal:        newJournal(),
	}

	for _, opt := range opts {
		opt(l)
	}

	l.metadata = metadata.NewRegistry(l.tokenInfo, l.fee)
	l.dedup = newDedupIndex(l.txWindow + 2*l.permittedDrift)

	return l
}

// Start migrates the store, applies configured initial mints, notifies
// plugins and begins the journal worker.
func (l *Ledger) Start(ctx context.Context) error {
	l.mu.Lock()
	switch {
	case l.stopped:
		l.mu.Unlock()
		return ErrLedgerStopped
	case l.started:
		l.mu.Unlock()
		return ErrLedgerStarted
	case l.optErr != nil:
		l.mu.Unlock()
		return l.optErr
	}
	l.started = true
	l.mu.Unlock()

	if err := l.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	if last, ok, err := l.store.LastArchivedIndex(ctx); err == nil && ok && last >= l.LogLength() {
		l.logger.Warn("archive already holds transactions beyond the in-memory log",
			"last_archived_index", last,
			"log_length", l.LogLength(),
		)
	}

	for _, m := range l.initialMints {
		if _, err := l.Mint(ctx, account.Anonymous, m.to, m.amount); err != nil {
			return fmt.Errorf("tokenledger: initial mint to %s: %w", m.to, err)
		}
	}

	l.plugins.EmitInit(ctx, l)

	l.journal.wg.Add(1)
	go l.journalWorker(context.WithoutCancel(ctx))

	l.logger.Info("token ledger started",
		"symbol", l.tokenInfo.Symbol,
		"fee", l.fee.String(),
		"fee_collector", l.feeCollector.String(),
		"journal_batch_size", l.journal.batchSize,
		"journal_flush_interval", l.journal.flushInterval,
	)

	return nil
}

// Stop rejects further mutations, drains the journal, notifies plugins and
// closes the store. It is safe to call more than once.
func (l *Ledger) Stop() error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	wasStarted := l.started
	l.mu.Unlock()

	if wasStarted {
		close(l.journal.stop)
		l.journal.wg.Wait()
	}

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	l.logger.Info("token ledger stopped", "log_length", l.LogLength())

	return l.store.Close()
}

// ──────────────────────────────────────────────────
// Mutations
// ──────────────────────────────────────────────────

// TransferArgs describes a transfer from the caller's account.
type TransferArgs struct {
	FromSubaccount *account.Subaccount `json:"from_subaccount,omitempty"`
	To             account.Account     `json:"to"`
	Amount         types.Amount        `json:"amount"`
	// Fee, when set, must equal the ledger fee.
	Fee           *types.Amount `json:"fee,omitempty"`
	Memo          []byte        `json:"memo,omitempty"`
	CreatedAtTime *time.Time    `json:"created_at_time,omitempty"`
}

// Transfer moves args.Amount from the caller's account to args.To and routes
// the ledger fee to the fee collector. It returns the index of the new log
// entry. Business rejections are returned as *TransferError and leave all
// state unchanged.
func (l *Ledger) Transfer(ctx context.Context, caller account.Principal, args TransferArgs) (uint64, error) {
	if err := checkMemo(args.Memo); err != nil {
		return 0, err
	}

	from := account.New(caller)
	if args.FromSubaccount != nil {
		from.Subaccount = *args.FromSubaccount
	}

	txID := id.NewTransactionID()
	now := l.clock()

	op := transaction.Transfer{From: from, To: args.To, Amount: args.Amount, Fee: l.fee}

	l.mu.Lock()
	tx, err := l.applyTransfer(txID, now, caller, op, args)
	l.mu.Unlock()

	if err != nil {
		l.reject(ctx, transaction.TransferOp(op), err)
		return 0, err
	}

	index := tx.Index
	l.committed(ctx, tx)
	return index, nil
}

func (l *Ledger) applyTransfer(txID id.TransactionID, now time.Time, caller account.Principal, op transaction.Transfer, args TransferArgs) (*transaction.Transaction, error) {
	if l.stopped {
		return nil, NewTemporarilyUnavailable()
	}
	if op.Amount.IsZero() {
		return nil, NewBadFee()
	}
	if args.Fee != nil && !args.Fee.Equal(l.fee) {
		return nil, NewBadFee()
	}

	var key dedupKey
	if args.CreatedAtTime != nil {
		if err := l.checkCreatedAt(*args.CreatedAtTime, now); err != nil {
			return nil, err
		}
		key = newDedupKey(op, args.Memo, *args.CreatedAtTime)
		l.dedup.prune(now)
		if dup, ok := l.dedup.lookup(key); ok {
			return nil, NewDuplicate(dup)
		}
	}

	debit, ok := op.Amount.CheckedAdd(op.Fee)
	if !ok {
		return nil, NewInsufficientFunds(l.accounts.Get(op.From))
	}

	batch := l.accounts.Batch()
	if err := batch.Debit(op.From, debit); err != nil {
		return nil, insufficientFunds(err)
	}
	if err := batch.Credit(op.To, op.Amount); err != nil {
		return nil, err
	}
	if !op.Fee.IsZero() {
		if err := batch.Credit(l.feeCollector, op.Fee); err != nil {
			return nil, err
		}
	}
	batch.Commit()

	tx := &transaction.Transaction{
		ID:            txID,
		Operation:     transaction.TransferOp(op),
		Timestamp:     now,
		CreatedAtTime: copyTime(args.CreatedAtTime),
		Caller:        caller,
		Memo:          copyBytes(args.Memo),
	}
	l.log.Append(tx)

	if args.CreatedAtTime != nil {
		l.dedup.insert(key, tx.Index, now)
	}

	return tx.Clone(), nil
}

// Mint credits amount new units to to and grows the total supply. Zero
// amounts are recorded like any other mint.
func (l *Ledger) Mint(ctx context.Context, caller account.Principal, to account.Account, amount types.Amount) (uint64, error) {
	txID := id.NewTransactionID()
	now := l.clock()

	l.mu.Lock()
	tx, err := l.applyMint(txID, now, caller, to, amount)
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("mint failed",
			"to", to.String(),
			"amount", amount.String(),
			"error", err,
		)
		return 0, err
	}

	index := tx.Index
	l.committed(ctx, tx)
	return index, nil
}

func (l *Ledger) applyMint(txID id.TransactionID, now time.Time, caller account.Principal, to account.Account, amount types.Amount) (*transaction.Transaction, error) {
	if l.stopped {
		return nil, ErrLedgerStopped
	}

	supply, ok := l.totalSupply.CheckedAdd(amount)
	if !ok {
		return nil, fmt.Errorf("%w: total supply %s + %s", ErrOverflow, l.totalSupply, amount)
	}

	batch := l.accounts.Batch()
	if err := batch.Credit(to, amount); err != nil {
		return nil, err
	}
	batch.Commit()
	l.totalSupply = supply

	tx := &transaction.Transaction{
		ID:        txID,
		Operation: transaction.MintOp(transaction.Mint{To: to, Amount: amount}),
		Timestamp: now,
		Caller:    caller,
	}
	l.log.Append(tx)

	return tx.Clone(), nil
}

// BurnArgs describes a burn from the caller's account.
type BurnArgs struct {
	FromSubaccount *account.Subaccount `json:"from_subaccount,omitempty"`
	Amount         types.Amount        `json:"amount"`
	Memo           []byte              `json:"memo,omitempty"`
}

// Burn destroys args.Amount units held by the caller and shrinks the total
// supply. No fee is charged.
func (l *Ledger) Burn(ctx context.Context, caller account.Principal, args BurnArgs) (uint64, error) {
	if err := checkMemo(args.Memo); err != nil {
		return 0, err
	}

	from := account.New(caller)
	if args.FromSubaccount != nil {
		from.Subaccount = *args.FromSubaccount
	}
	op := transaction.Burn{From: from, Amount: args.Amount, Memo: copyBytes(args.Memo)}

	txID := id.NewTransactionID()
	now := l.clock()

	l.mu.Lock()
	tx, err := l.applyBurn(txID, now, caller, op)
	l.mu.Unlock()

	if err != nil {
		l.reject(ctx, transaction.BurnOp(op), err)
		return 0, err
	}

	index := tx.Index
	l.committed(ctx, tx)
	return index, nil
}

func (l *Ledger) applyBurn(txID id.TransactionID, now time.Time, caller account.Principal, op transaction.Burn) (*transaction.Transaction, error) {
	if l.stopped {
		return nil, NewTemporarilyUnavailable()
	}
	if op.Amount.IsZero() {
		return nil, NewBadFee()
	}

	batch := l.accounts.Batch()
	if err := batch.Debit(op.From, op.Amount); err != nil {
		return nil, insufficientFunds(err)
	}
	supply, ok := l.totalSupply.CheckedSub(op.Amount)
	if !ok {
		return nil, fmt.Errorf("%w: total supply %s below burn of %s", ErrOverflow, l.totalSupply, op.Amount)
	}
	batch.Commit()
	l.totalSupply = supply

	tx := &transaction.Transaction{
		ID:        txID,
		Operation: transaction.BurnOp(op),
		Timestamp: now,
		Caller:    caller,
		Memo:      copyBytes(op.Memo),
	}
	l.log.Append(tx)

	return tx.Clone(), nil
}

func (l *Ledger) checkCreatedAt(createdAt, now time.Time) error {
	if createdAt.After(now.Add(l.permittedDrift)) {
		return NewCreatedInFuture(now)
	}
	if createdAt.Before(now.Add(-l.txWindow - l.permittedDrift)) {
		return NewTooOld()
	}
	return nil
}

// committed runs the post-commit side effects outside the lock.
func (l *Ledger) committed(ctx context.Context, tx *transaction.Transaction) {
	l.journal.notify()

	l.logger.Debug("transaction committed",
		"index", tx.Index,
		"kind", tx.Kind(),
		"amount", tx.Operation.Amount().String(),
	)

	switch tx.Kind() {
	case transaction.KindTransfer:
		l.plugins.EmitTransfer(ctx, tx)
	case transaction.KindMint:
		l.plugins.EmitMint(ctx, tx)
	case transaction.KindBurn:
		l.plugins.EmitBurn(ctx, tx)
	}
}

func (l *Ledger) reject(ctx context.Context, op transaction.Operation, err error) {
	if !IsBusinessError(err) {
		l.logger.Error("operation failed",
			"kind", op.Kind(),
			"error", err,
		)
		return
	}

	l.logger.Debug("operation rejected",
		"kind", op.Kind(),
		"error", err,
	)
	l.plugins.EmitTransferRejected(ctx, op, err)
}

func insufficientFunds(err error) error {
	var ife *account.InsufficientFundsError
	if errors.As(err, &ife) {
		return NewInsufficientFunds(ife.Available)
	}
	return err
}

func checkMemo(memo []byte) error {
	if len(memo) <= transaction.MaxMemoSize {
		return nil
	}
	return ValidationError{
		Field:   "memo",
		Message: fmt.Sprintf("%d bytes, max %d", len(memo), transaction.MaxMemoSize),
		Err:     ErrMemoTooLong,
	}
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// BalanceOf returns the balance of acc, zero if it never held funds.
func (l *Ledger) BalanceOf(acc account.Account) types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts.Get(acc)
}

// TotalSupply returns the sum of all balances.
func (l *Ledger) TotalSupply() types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply
}

// Metadata returns the token metadata entries in standard order.
func (l *Ledger) Metadata() []metadata.Entry {
	return l.metadata.Entries()
}

// Transaction returns the log entry at index.
func (l *Ledger) Transaction(index uint64) (*transaction.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tx, ok := l.log.Get(index)
	if !ok {
		return nil, fmt.Errorf("%w: index %d", ErrTransactionNotFound, index)
	}
	return tx, nil
}

// Transactions returns up to length entries starting at start.
func (l *Ledger) Transactions(start, length uint64) []*transaction.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	end := start + length
	if end < start {
		end = l.log.Len()
	}
	return l.log.Range(start, end)
}

// LogLength returns the number of committed transactions.
func (l *Ledger) LogLength() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.log.Len()
}

// FeeCollector returns the account credited with transfer fees.
func (l *Ledger) FeeCollector() account.Account { return l.feeCollector }

// Fee returns the transfer fee in minor units.
func (l *Ledger) Fee() types.Amount { return l.fee }

// TokenInfo returns the token's name, symbol and decimals.
func (l *Ledger) TokenInfo() metadata.TokenInfo { return l.tokenInfo }

// Store returns the archive store.
func (l *Ledger) Store() store.Store { return l.store }

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
