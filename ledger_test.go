package tokenledger_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/metadata"
	"github.com/xraph/tokenledger/plugin"
	"github.com/xraph/tokenledger/store/memory"
	"github.com/xraph/tokenledger/transaction"
	"github.com/xraph/tokenledger/types"
)

var (
	alicePrincipal = account.PrincipalFromBytes([]byte("alice"))
	bobPrincipal   = account.PrincipalFromBytes([]byte("bob"))
	carolPrincipal = account.PrincipalFromBytes([]byte("carol"))

	alice = account.New(alicePrincipal)
	bob   = account.New(bobPrincipal)
	carol = account.New(carolPrincipal)

	genesisTime = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLedger(t *testing.T, opts ...tokenledger.Option) (*tokenledger.Ledger, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: genesisTime}
	base := []tokenledger.Option{
		tokenledger.WithLogger(quietLogger()),
		tokenledger.WithFee(types.NewAmount(10)),
		tokenledger.WithClock(clock.Now),
	}
	return tokenledger.New(memory.New(), append(base, opts...)...), clock
}

func amt(v uint64) types.Amount { return types.NewAmount(v) }

func requireTransferError(t *testing.T, err error, kind tokenledger.TransferErrorKind) *tokenledger.TransferError {
	t.Helper()
	te, ok := tokenledger.AsTransferError(err)
	require.True(t, ok, "expected *TransferError, got %v", err)
	require.Equal(t, kind, te.Kind)
	return te
}

type snapshot struct {
	balances map[account.Account]types.Amount
	supply   types.Amount
	logLen   uint64
}

func snap(l *tokenledger.Ledger, accs ...account.Account) snapshot {
	s := snapshot{balances: map[account.Account]types.Amount{}, supply: l.TotalSupply(), logLen: l.LogLength()}
	for _, a := range append(accs, l.FeeCollector()) {
		s.balances[a] = l.BalanceOf(a)
	}
	return s
}

func TestTransferScenario(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	idx, err := l.Mint(ctx, alicePrincipal, alice, amt(1_000_000))
	require.NoError(t, err)
	require.Equal(t, uint64(0), idx)

	fee := amt(10)
	idx, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{To: bob, Amount: amt(100), Fee: &fee})
	require.NoError(t, err)
	require.Equal(t, uint64(1), idx)

	require.Equal(t, amt(999_890), l.BalanceOf(alice))
	require.Equal(t, amt(100), l.BalanceOf(bob))
	require.Equal(t, amt(10), l.BalanceOf(l.FeeCollector()))
	require.Equal(t, amt(1_000_000), l.TotalSupply())

	before := snap(l, alice, bob)
	_, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{To: bob, Amount: amt(2_000_000)})
	te := requireTransferError(t, err, tokenledger.InsufficientFunds)
	require.Equal(t, amt(999_890), te.Balance)
	require.ErrorIs(t, err, tokenledger.ErrInsufficientFunds)
	require.Equal(t, before, snap(l, alice, bob))
}

func TestTransferValidation(t *testing.T) {
	ctx := context.Background()
	wrongFee := amt(11)
	rightFee := amt(10)

	tests := []struct {
		name      string
		args      func(now time.Time) tokenledger.TransferArgs
		kind      tokenledger.TransferErrorKind
		inputErr  error
		succeeded bool
	}{
		{
			name: "zero amount",
			args: func(time.Time) tokenledger.TransferArgs { return tokenledger.TransferArgs{To: bob} },
			kind: tokenledger.BadFee,
		},
		{
			name: "fee mismatch",
			args: func(time.Time) tokenledger.TransferArgs {
				return tokenledger.TransferArgs{To: bob, Amount: amt(5), Fee: &wrongFee}
			},
			kind: tokenledger.BadFee,
		},
		{
			name: "explicit matching fee",
			args: func(time.Time) tokenledger.TransferArgs {
				return tokenledger.TransferArgs{To: bob, Amount: amt(5), Fee: &rightFee}
			},
			succeeded: true,
		},
		{
			name: "created in future",
			args: func(now time.Time) tokenledger.TransferArgs {
				at := now.Add(3 * time.Minute)
				return tokenledger.TransferArgs{To: bob, Amount: amt(5), CreatedAtTime: &at}
			},
			kind: tokenledger.CreatedInFuture,
		},
		{
			name: "within drift",
			args: func(now time.Time) tokenledger.TransferArgs {
				at := now.Add(time.Minute)
				return tokenledger.TransferArgs{To: bob, Amount: amt(5), CreatedAtTime: &at}
			},
			succeeded: true,
		},
		{
			name: "too old",
			args: func(now time.Time) tokenledger.TransferArgs {
				at := now.Add(-25 * time.Hour)
				return tokenledger.TransferArgs{To: bob, Amount: amt(5), CreatedAtTime: &at}
			},
			kind: tokenledger.TooOld,
		},
		{
			name: "memo too long",
			args: func(time.Time) tokenledger.TransferArgs {
				return tokenledger.TransferArgs{To: bob, Amount: amt(5), Memo: make([]byte, 33)}
			},
			inputErr: tokenledger.ErrMemoTooLong,
		},
		{
			name: "memo at limit",
			args: func(time.Time) tokenledger.TransferArgs {
				return tokenledger.TransferArgs{To: bob, Amount: amt(5), Memo: make([]byte, 32)}
			},
			succeeded: true,
		},
		{
			name: "amount plus fee exceeds balance",
			args: func(time.Time) tokenledger.TransferArgs {
				return tokenledger.TransferArgs{To: bob, Amount: amt(991)}
			},
			kind: tokenledger.InsufficientFunds,
		},
		{
			name: "amount plus fee overflows",
			args: func(time.Time) tokenledger.TransferArgs {
				return tokenledger.TransferArgs{To: bob, Amount: types.MaxAmount}
			},
			kind: tokenledger.InsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, clock := newTestLedger(t)
			_, err := l.Mint(ctx, alicePrincipal, alice, amt(1000))
			require.NoError(t, err)

			before := snap(l, alice, bob)
			_, err = l.Transfer(ctx, alicePrincipal, tt.args(clock.Now()))

			switch {
			case tt.succeeded:
				require.NoError(t, err)
				require.Equal(t, amt(985), l.BalanceOf(alice))
				return
			case tt.inputErr != nil:
				require.ErrorIs(t, err, tt.inputErr)
				require.False(t, tokenledger.IsBusinessError(err))
			default:
				requireTransferError(t, err, tt.kind)
			}
			require.Equal(t, before, snap(l, alice, bob))
		})
	}
}

func TestCreatedInFutureCarriesLedgerTime(t *testing.T) {
	l, clock := newTestLedger(t)
	at := clock.Now().Add(time.Hour)

	_, err := l.Transfer(context.Background(), alicePrincipal, tokenledger.TransferArgs{To: bob, Amount: amt(1), CreatedAtTime: &at})
	te := requireTransferError(t, err, tokenledger.CreatedInFuture)
	require.True(t, te.LedgerTime.Equal(clock.Now()))
	require.True(t, tokenledger.IsRetryable(err))
}

func TestStoppedLedgerIsUnavailable(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	_, err := l.Mint(ctx, alicePrincipal, alice, amt(1000))
	require.NoError(t, err)
	require.NoError(t, l.Stop())

	_, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{To: bob})
	requireTransferError(t, err, tokenledger.TemporarilyUnavailable)
	require.True(t, tokenledger.IsRetryable(err))

	_, err = l.Burn(ctx, alicePrincipal, tokenledger.BurnArgs{Amount: amt(1)})
	requireTransferError(t, err, tokenledger.TemporarilyUnavailable)

	_, err = l.Mint(ctx, alicePrincipal, alice, amt(1))
	require.ErrorIs(t, err, tokenledger.ErrLedgerStopped)

	require.Equal(t, amt(1000), l.BalanceOf(alice))
	require.NoError(t, l.Stop())
	require.ErrorIs(t, l.Start(ctx), tokenledger.ErrLedgerStopped)
}

func TestDuplicateDetection(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLedger(t)
	_, err := l.Mint(ctx, alicePrincipal, alice, amt(10_000))
	require.NoError(t, err)

	at := clock.Now()
	args := tokenledger.TransferArgs{To: bob, Amount: amt(100), Memo: []byte("order-1"), CreatedAtTime: &at}

	first, err := l.Transfer(ctx, alicePrincipal, args)
	require.NoError(t, err)

	clock.Advance(time.Second)
	before := snap(l, alice, bob)
	_, err = l.Transfer(ctx, alicePrincipal, args)
	te := requireTransferError(t, err, tokenledger.Duplicate)
	require.Equal(t, first, te.DuplicateOf)
	require.Equal(t, before, snap(l, alice, bob))

	args.Memo = []byte("order-2")
	_, err = l.Transfer(ctx, alicePrincipal, args)
	require.NoError(t, err)

	noTime := tokenledger.TransferArgs{To: bob, Amount: amt(100)}
	_, err = l.Transfer(ctx, alicePrincipal, noTime)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, alicePrincipal, noTime)
	require.NoError(t, err, "transfers without created_at_time are never deduplicated")

	clock.Advance(25 * time.Hour)
	args.Memo = []byte("order-1")
	_, err = l.Transfer(ctx, alicePrincipal, args)
	requireTransferError(t, err, tokenledger.TooOld)
}

func TestSelfTransferChargesOnlyFee(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	_, err := l.Mint(ctx, alicePrincipal, alice, amt(500))
	require.NoError(t, err)

	_, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{To: alice, Amount: amt(200)})
	require.NoError(t, err)
	require.Equal(t, amt(490), l.BalanceOf(alice))
	require.Equal(t, amt(500), l.TotalSupply())
}

func TestSubaccountsAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	savings, err := account.SubaccountFromBytes([]byte{1})
	require.NoError(t, err)
	aliceSavings := account.WithSubaccount(alicePrincipal, savings)

	_, err = l.Mint(ctx, alicePrincipal, alice, amt(1000))
	require.NoError(t, err)
	_, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{To: aliceSavings, Amount: amt(300)})
	require.NoError(t, err)

	_, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{FromSubaccount: &savings, To: bob, Amount: amt(290)})
	require.NoError(t, err)

	require.Equal(t, amt(690), l.BalanceOf(alice))
	require.True(t, l.BalanceOf(aliceSavings).IsZero())
	require.Equal(t, amt(290), l.BalanceOf(bob))
}

func TestCustomFeeCollector(t *testing.T) {
	ctx := context.Background()
	treasury := account.New(account.PrincipalFromBytes([]byte("treasury")))
	l, _ := newTestLedger(t, tokenledger.WithFeeCollector(treasury), tokenledger.WithFee(amt(3)))

	_, err := l.Mint(ctx, alicePrincipal, alice, amt(100))
	require.NoError(t, err)
	_, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{To: bob, Amount: amt(10)})
	require.NoError(t, err)

	require.Equal(t, treasury, l.FeeCollector())
	require.Equal(t, amt(3), l.BalanceOf(treasury))
	require.True(t, l.BalanceOf(tokenledger.DefaultFeeCollector).IsZero())
}

func TestZeroFeeSkipsCollector(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, tokenledger.WithFee(types.Zero))

	_, err := l.Mint(ctx, alicePrincipal, alice, amt(100))
	require.NoError(t, err)
	_, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{To: bob, Amount: amt(100)})
	require.NoError(t, err)
	require.True(t, l.BalanceOf(alice).IsZero())
	require.Equal(t, amt(100), l.BalanceOf(bob))
}

func TestMintOverflowIsNotABusinessError(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	_, err := l.Mint(ctx, alicePrincipal, alice, types.MaxAmount)
	require.NoError(t, err)

	before := snap(l, alice, bob)
	_, err = l.Mint(ctx, alicePrincipal, bob, amt(1))
	require.ErrorIs(t, err, tokenledger.ErrOverflow)
	require.False(t, tokenledger.IsBusinessError(err))
	require.Equal(t, before, snap(l, alice, bob))
}

func TestZeroMintIsRecorded(t *testing.T) {
	l, _ := newTestLedger(t)
	idx, err := l.Mint(context.Background(), alicePrincipal, alice, types.Zero)
	require.NoError(t, err)
	require.Equal(t, uint64(0), idx)
	require.Equal(t, uint64(1), l.LogLength())
}

func TestBurn(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	_, err := l.Mint(ctx, alicePrincipal, alice, amt(1000))
	require.NoError(t, err)

	idx, err := l.Burn(ctx, alicePrincipal, tokenledger.BurnArgs{Amount: amt(400), Memo: []byte("retire")})
	require.NoError(t, err)
	require.Equal(t, uint64(1), idx)
	require.Equal(t, amt(600), l.BalanceOf(alice))
	require.Equal(t, amt(600), l.TotalSupply())

	tx, err := l.Transaction(idx)
	require.NoError(t, err)
	require.Equal(t, transaction.KindBurn, tx.Kind())
	require.Equal(t, []byte("retire"), tx.Memo)

	_, err = l.Burn(ctx, alicePrincipal, tokenledger.BurnArgs{Amount: types.Zero})
	requireTransferError(t, err, tokenledger.BadFee)

	_, err = l.Burn(ctx, alicePrincipal, tokenledger.BurnArgs{Amount: amt(601)})
	te := requireTransferError(t, err, tokenledger.InsufficientFunds)
	require.Equal(t, amt(600), te.Balance)

	_, err = l.Burn(ctx, alicePrincipal, tokenledger.BurnArgs{Amount: amt(1), Memo: make([]byte, 40)})
	require.ErrorIs(t, err, tokenledger.ErrMemoTooLong)
	require.ErrorIs(t, err, tokenledger.ErrInvalidInput)
	var ve tokenledger.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "memo", ve.Field)
	require.False(t, tokenledger.IsBusinessError(err))
	require.Equal(t, amt(600), l.TotalSupply())
}

func TestLogIndicesAreMonotonic(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	for i := 0; i < 10; i++ {
		want := l.LogLength()
		idx, err := l.Mint(ctx, alicePrincipal, alice, amt(100))
		require.NoError(t, err)
		require.Equal(t, want, idx)

		// A failing call never consumes an index.
		_, err = l.Transfer(ctx, bobPrincipal, tokenledger.TransferArgs{To: alice, Amount: amt(1)})
		require.Error(t, err)

		want = l.LogLength()
		idx, err = l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{To: bob, Amount: amt(1)})
		require.NoError(t, err)
		require.Equal(t, want, idx)
	}

	txs := l.Transactions(0, 100)
	require.Len(t, txs, 20)
	for i, tx := range txs {
		require.Equal(t, uint64(i), tx.Index)
		require.False(t, tx.ID.IsNil())
	}
	require.Len(t, l.Transactions(18, 10), 2)
	require.Empty(t, l.Transactions(20, 1))

	_, err := l.Transaction(20)
	require.ErrorIs(t, err, tokenledger.ErrTransactionNotFound)
	require.True(t, tokenledger.IsNotFound(err))
}

func TestConservationUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	principals := []account.Principal{alicePrincipal, bobPrincipal, carolPrincipal}
	accounts := []account.Account{alice, bob, carol, l.FeeCollector()}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		caller := principals[rng.Intn(len(principals))]
		switch rng.Intn(4) {
		case 0:
			_, err := l.Mint(ctx, caller, account.New(caller), amt(uint64(rng.Intn(1000))))
			require.NoError(t, err)
		case 1:
			_, _ = l.Burn(ctx, caller, tokenledger.BurnArgs{Amount: amt(uint64(rng.Intn(200)))})
		default:
			to := principals[rng.Intn(len(principals))]
			_, _ = l.Transfer(ctx, caller, tokenledger.TransferArgs{To: account.New(to), Amount: amt(uint64(rng.Intn(500)))})
		}

		total := types.Zero
		for _, a := range accounts {
			var ok bool
			total, ok = total.CheckedAdd(l.BalanceOf(a))
			require.True(t, ok)
		}
		require.Equal(t, l.TotalSupply(), total, "conservation broken after step %d", i)
	}
}

func TestConcurrentTransfersPreserveSupply(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	_, err := l.Mint(ctx, alicePrincipal, alice, amt(1_000_000))
	require.NoError(t, err)
	_, err = l.Mint(ctx, bobPrincipal, bob, amt(1_000_000))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			from, to := alicePrincipal, bob
			if w%2 == 1 {
				from, to = bobPrincipal, alice
			}
			for i := 0; i < 100; i++ {
				_, _ = l.Transfer(ctx, from, tokenledger.TransferArgs{To: to, Amount: amt(7)})
				_ = l.BalanceOf(alice)
			}
		}(w)
	}
	wg.Wait()

	total, ok := types.Sum(l.BalanceOf(alice), l.BalanceOf(bob), l.BalanceOf(l.FeeCollector()))
	require.True(t, ok)
	require.Equal(t, amt(2_000_000), total)
	require.Equal(t, amt(2_000_000), l.TotalSupply())
	require.Equal(t, uint64(2+800), l.LogLength())
	require.Equal(t, amt(8000), l.BalanceOf(l.FeeCollector()))
}

func TestMetadataDefaults(t *testing.T) {
	l := tokenledger.New(memory.New(), tokenledger.WithLogger(quietLogger()))

	entries := l.Metadata()
	require.Len(t, entries, 5)
	require.Equal(t, metadata.KeyVersion, entries[0].Key)
	require.Equal(t, "DHT Token", *entries[1].Value.Text)
	require.Equal(t, "DHT", *entries[2].Value.Text)
	require.Equal(t, int64(8), entries[3].Value.Nat.Int64())
	require.Equal(t, int64(10_000), entries[4].Value.Nat.Int64())
	require.Equal(t, tokenledger.DefaultFee, l.Fee())
	require.True(t, l.FeeCollector().Owner.IsAnonymous())
}

func TestGenesisOverflowFailsStart(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	deployer := account.PrincipalFromBytes([]byte("deployer"))

	l := tokenledger.New(st,
		tokenledger.WithLogger(quietLogger()),
		tokenledger.WithTokenInfo(metadata.TokenInfo{Name: "Wide", Symbol: "WDE", Decimals: 32}),
		tokenledger.GenesisMint(deployer),
	)
	err := l.Start(ctx)
	require.ErrorIs(t, err, tokenledger.ErrOverflow)
	require.Contains(t, err.Error(), "32 decimals")

	require.True(t, l.BalanceOf(account.New(deployer)).IsZero())
	require.True(t, l.TotalSupply().IsZero())
	require.Zero(t, l.LogLength())
	require.NoError(t, l.Stop())
}

func TestStartAppliesGenesisAndArchives(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	deployer := account.PrincipalFromBytes([]byte("deployer"))

	l := tokenledger.New(st,
		tokenledger.WithLogger(quietLogger()),
		tokenledger.WithJournalConfig(2, time.Hour),
		tokenledger.GenesisMint(deployer),
	)
	require.NoError(t, l.Start(ctx))
	require.ErrorIs(t, l.Start(ctx), tokenledger.ErrLedgerStarted)

	genesis := types.MustParseAmount("10000000000000000")
	require.Equal(t, genesis, l.BalanceOf(account.New(deployer)))
	require.Equal(t, genesis, l.TotalSupply())

	for i := 0; i < 4; i++ {
		_, err := l.Transfer(ctx, deployer, tokenledger.TransferArgs{To: bob, Amount: amt(1_000_000)})
		require.NoError(t, err)
	}

	require.NoError(t, l.Flush(ctx))
	require.Zero(t, l.PendingArchive())
	require.Equal(t, 5, st.Len())

	_, err := l.Transfer(ctx, deployer, tokenledger.TransferArgs{To: carol, Amount: amt(1_000_000)})
	require.NoError(t, err)
	require.NoError(t, l.Stop())
	require.Equal(t, 6, st.Len())

	last, ok, err := st.LastArchivedIndex(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(5), last)
}

func TestTransferErrorMatching(t *testing.T) {
	err := error(tokenledger.NewDuplicate(4))
	require.ErrorIs(t, err, tokenledger.ErrDuplicate)
	require.NotErrorIs(t, err, tokenledger.ErrTooOld)
	require.ErrorIs(t, err, &tokenledger.TransferError{Kind: tokenledger.Duplicate})
	require.Contains(t, err.Error(), "Duplicate of 4")

	wrapped := errors.Join(errors.New("context"), tokenledger.NewTooOld())
	require.ErrorIs(t, wrapped, tokenledger.ErrTooOld)
	require.True(t, tokenledger.IsBusinessError(wrapped))
	require.False(t, tokenledger.IsRetryable(wrapped))

	require.ErrorIs(t, tokenledger.ValidationError{Field: "to", Message: "empty"}, tokenledger.ErrInvalidInput)

	memoErr := tokenledger.ValidationError{Field: "memo", Message: "33 bytes, max 32", Err: tokenledger.ErrMemoTooLong}
	require.ErrorIs(t, memoErr, tokenledger.ErrInvalidInput)
	require.ErrorIs(t, memoErr, tokenledger.ErrMemoTooLong)
	require.Equal(t, "tokenledger: validation failed for memo: 33 bytes, max 32", memoErr.Error())

	notFound := fmt.Errorf("%w: index 9", tokenledger.ErrTransactionNotFound)
	require.True(t, tokenledger.IsNotFound(notFound))
	require.False(t, tokenledger.IsNotFound(tokenledger.ErrInvalidInput))
	require.True(t, tokenledger.IsRetryable(fmt.Errorf("%w: closed", tokenledger.ErrStoreNotReady)))
}

// tamperer rewrites every record it is handed.
type tamperer struct{}

func (tamperer) Name() string { return "tamperer" }

func (tamperer) OnMint(_ context.Context, tx *transaction.Transaction) error {
	tx.Index = 99
	tx.Operation.Mint.Amount = amt(1)
	return nil
}

func (tamperer) OnTransfer(_ context.Context, tx *transaction.Transaction) error {
	tx.Memo[0] = 'X'
	*tx.CreatedAtTime = time.Time{}
	return nil
}

// witness keeps what it is handed after tamperer ran.
type witness struct {
	mu   sync.Mutex
	seen []*transaction.Transaction
}

func (*witness) Name() string { return "witness" }

func (w *witness) OnMint(_ context.Context, tx *transaction.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen = append(w.seen, tx)
	return nil
}

func (w *witness) OnTransfer(_ context.Context, tx *transaction.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen = append(w.seen, tx)
	return nil
}

var (
	_ plugin.OnMint     = tamperer{}
	_ plugin.OnTransfer = tamperer{}
	_ plugin.OnMint     = (*witness)(nil)
	_ plugin.OnTransfer = (*witness)(nil)
)

func TestCommittedRecordsCannotBeRewritten(t *testing.T) {
	ctx := context.Background()
	w := &witness{}
	l, clock := newTestLedger(t, tokenledger.WithPlugin(tamperer{}), tokenledger.WithPlugin(w))

	idx, err := l.Mint(ctx, alicePrincipal, alice, amt(1000))
	require.NoError(t, err)
	require.Equal(t, uint64(0), idx)

	created := clock.Now()
	tIdx, err := l.Transfer(ctx, alicePrincipal, tokenledger.TransferArgs{
		To: bob, Amount: amt(5), Memo: []byte("memo"), CreatedAtTime: &created,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), tIdx)

	w.mu.Lock()
	require.Len(t, w.seen, 2)
	require.Equal(t, uint64(0), w.seen[0].Index)
	require.Equal(t, amt(1000), w.seen[0].Operation.Mint.Amount)
	require.Equal(t, []byte("memo"), w.seen[1].Memo)
	require.Equal(t, created, *w.seen[1].CreatedAtTime)
	w.mu.Unlock()

	tx, err := l.Transaction(idx)
	require.NoError(t, err)
	require.Equal(t, idx, tx.Index)
	require.Equal(t, amt(1000), tx.Operation.Mint.Amount)

	tx.Index = 42
	tx.Operation.Mint.Amount = amt(999_999)

	again, err := l.Transaction(idx)
	require.NoError(t, err)
	require.Equal(t, idx, again.Index)
	require.Equal(t, amt(1000), again.Operation.Mint.Amount)

	ranged := l.Transactions(0, 2)
	require.Len(t, ranged, 2)
	require.Equal(t, []byte("memo"), ranged[1].Memo)
	require.Equal(t, created, *ranged[1].CreatedAtTime)

	ranged[1].Memo[1] = 'Z'
	ranged[1].Operation.Transfer.Amount = amt(0)
	transfer, err := l.Transaction(tIdx)
	require.NoError(t, err)
	require.Equal(t, []byte("memo"), transfer.Memo)
	require.Equal(t, amt(5), transfer.Operation.Transfer.Amount)
}
