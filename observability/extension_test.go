package observability_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/observability"
	"github.com/xraph/tokenledger/store/memory"
	"github.com/xraph/tokenledger/transaction"
	"github.com/xraph/tokenledger/types"
)

type recorder struct {
	mu     sync.Mutex
	counts map[string]float64
	obs    map[string][]float64
}

func newRecorder() *recorder {
	return &recorder{counts: map[string]float64{}, obs: map[string][]float64{}}
}

type recCounter struct {
	r    *recorder
	name string
}

func (c recCounter) Inc() { c.Add(1) }

func (c recCounter) Add(v float64) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.counts[c.name] += v
}

type recHistogram struct {
	r    *recorder
	name string
}

func (h recHistogram) Observe(v float64) {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	h.r.obs[h.name] = append(h.r.obs[h.name], v)
}

func (r *recorder) Counter(name string) observability.Counter { return recCounter{r, name} }

func (r *recorder) Histogram(name string) observability.Histogram { return recHistogram{r, name} }

func (r *recorder) count(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

func (r *recorder) observed(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.obs[name]...)
}

var (
	alice = account.PrincipalFromBytes([]byte("alice"))
	bob   = account.New(account.PrincipalFromBytes([]byte("bob")))
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestMetricsFollowLedger(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	l := tokenledger.New(memory.New(),
		tokenledger.WithLogger(quiet()),
		tokenledger.WithFee(types.NewAmount(10)),
		tokenledger.WithPlugin(observability.NewMetricsExtension(rec)),
	)

	_, err := l.Mint(ctx, alice, account.New(alice), types.NewAmount(1_000))
	require.NoError(t, err)
	_, err = l.Transfer(ctx, alice, tokenledger.TransferArgs{To: bob, Amount: types.NewAmount(100)})
	require.NoError(t, err)
	_, err = l.Burn(ctx, alice, tokenledger.BurnArgs{Amount: types.NewAmount(5)})
	require.NoError(t, err)

	_, err = l.Transfer(ctx, alice, tokenledger.TransferArgs{To: bob, Amount: types.NewAmount(1_000_000)})
	require.Error(t, err)
	bad := types.NewAmount(3)
	_, err = l.Transfer(ctx, alice, tokenledger.TransferArgs{To: bob, Amount: types.NewAmount(1), Fee: &bad})
	require.Error(t, err)

	require.Equal(t, 1.0, rec.count("tokenledger.mint.applied"))
	require.Equal(t, 1.0, rec.count("tokenledger.transfer.applied"))
	require.Equal(t, 1.0, rec.count("tokenledger.burn.applied"))
	require.Equal(t, 10.0, rec.count("tokenledger.fee.collected"))
	require.Equal(t, []float64{100}, rec.observed("tokenledger.transfer.amount"))
	require.Equal(t, []float64{1000}, rec.observed("tokenledger.mint.amount"))
	require.Equal(t, []float64{5}, rec.observed("tokenledger.burn.amount"))

	require.Equal(t, 2.0, rec.count("tokenledger.transfer.rejected"))
	require.Equal(t, 1.0, rec.count("tokenledger.transfer.rejected.insufficient_funds"))
	require.Equal(t, 1.0, rec.count("tokenledger.transfer.rejected.bad_fee"))
	require.Zero(t, rec.count("tokenledger.internal.errors"))
}

func TestMetricsJournalAndLifecycle(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	m := observability.NewMetricsExtension(rec)

	require.NoError(t, m.OnInit(ctx, nil))
	require.NoError(t, m.OnJournalFlushed(ctx, 7, 30*time.Millisecond))
	require.NoError(t, m.OnJournalFlushed(ctx, 3, 10*time.Millisecond))
	require.NoError(t, m.OnShutdown(ctx))

	require.Equal(t, 1.0, rec.count("tokenledger.ledger.started"))
	require.Equal(t, 1.0, rec.count("tokenledger.ledger.stopped"))
	require.Equal(t, 10.0, rec.count("tokenledger.journal.archived"))
	require.Equal(t, []float64{7, 3}, rec.observed("tokenledger.journal.batch.size"))
	require.Equal(t, []float64{30, 10}, rec.observed("tokenledger.journal.flush.latency_ms"))
}

func TestMetricsCountsInternalErrors(t *testing.T) {
	rec := newRecorder()
	m := observability.NewMetricsExtension(rec)

	require.NoError(t, m.OnTransferRejected(context.Background(), transaction.TransferOp(transaction.Transfer{From: account.New(alice), To: bob, Amount: types.NewAmount(1)}), tokenledger.ErrOverflow))
	require.Equal(t, 1.0, rec.count("tokenledger.transfer.rejected"))
	require.Equal(t, 1.0, rec.count("tokenledger.internal.errors"))
}
