// Package observability provides metrics and tracing extensions for the token
// ledger. Both are plugins: register them with tokenledger.WithPlugin.
package observability

import (
	"context"
	"math/big"
	"time"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/plugin"
	"github.com/xraph/tokenledger/transaction"
	"github.com/xraph/tokenledger/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnShutdown         = (*MetricsExtension)(nil)
	_ plugin.OnTransfer         = (*MetricsExtension)(nil)
	_ plugin.OnMint             = (*MetricsExtension)(nil)
	_ plugin.OnBurn             = (*MetricsExtension)(nil)
	_ plugin.OnTransferRejected = (*MetricsExtension)(nil)
	_ plugin.OnJournalFlushed   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records commit, rejection and archive metrics.
type MetricsExtension struct {
	// Lifecycle metrics
	Starts Counter
	Stops  Counter

	// Commit metrics
	TransfersApplied Counter
	MintsApplied     Counter
	BurnsApplied     Counter
	TransferAmount   Histogram
	MintAmount       Histogram
	BurnAmount       Histogram
	FeesCollected    Counter

	// Rejection metrics
	Rejected             Counter
	RejectedBadFee       Counter
	RejectedDuplicate    Counter
	RejectedInsufficient Counter
	RejectedTime         Counter
	RejectedUnavailable  Counter
	InternalErrors       Counter

	// Journal metrics
	JournalArchived     Counter
	JournalBatchSize    Histogram
	JournalFlushLatency Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		Starts: factory.Counter("tokenledger.ledger.started"),
		Stops:  factory.Counter("tokenledger.ledger.stopped"),

		TransfersApplied: factory.Counter("tokenledger.transfer.applied"),
		MintsApplied:     factory.Counter("tokenledger.mint.applied"),
		BurnsApplied:     factory.Counter("tokenledger.burn.applied"),
		TransferAmount:   factory.Histogram("tokenledger.transfer.amount"),
		MintAmount:       factory.Histogram("tokenledger.mint.amount"),
		BurnAmount:       factory.Histogram("tokenledger.burn.amount"),
		FeesCollected:    factory.Counter("tokenledger.fee.collected"),

		Rejected:             factory.Counter("tokenledger.transfer.rejected"),
		RejectedBadFee:       factory.Counter("tokenledger.transfer.rejected.bad_fee"),
		RejectedDuplicate:    factory.Counter("tokenledger.transfer.rejected.duplicate"),
		RejectedInsufficient: factory.Counter("tokenledger.transfer.rejected.insufficient_funds"),
		RejectedTime:         factory.Counter("tokenledger.transfer.rejected.time"),
		RejectedUnavailable:  factory.Counter("tokenledger.transfer.rejected.unavailable"),
		InternalErrors:       factory.Counter("tokenledger.internal.errors"),

		JournalArchived:     factory.Counter("tokenledger.journal.archived"),
		JournalBatchSize:    factory.Histogram("tokenledger.journal.batch.size"),
		JournalFlushLatency: factory.Histogram("tokenledger.journal.flush.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	m.Starts.Inc()
	return nil
}

// OnShutdown implements plugin.OnShutdown.
func (m *MetricsExtension) OnShutdown(_ context.Context) error {
	m.Stops.Inc()
	return nil
}

// OnTransfer implements plugin.OnTransfer.
func (m *MetricsExtension) OnTransfer(_ context.Context, tx *transaction.Transaction) error {
	m.TransfersApplied.Inc()
	if t := tx.Operation.Transfer; t != nil {
		m.TransferAmount.Observe(amountFloat(t.Amount))
		m.FeesCollected.Add(amountFloat(t.Fee))
	}
	return nil
}

// OnMint implements plugin.OnMint.
func (m *MetricsExtension) OnMint(_ context.Context, tx *transaction.Transaction) error {
	m.MintsApplied.Inc()
	m.MintAmount.Observe(amountFloat(tx.Operation.Amount()))
	return nil
}

// OnBurn implements plugin.OnBurn.
func (m *MetricsExtension) OnBurn(_ context.Context, tx *transaction.Transaction) error {
	m.BurnsApplied.Inc()
	m.BurnAmount.Observe(amountFloat(tx.Operation.Amount()))
	return nil
}

// OnTransferRejected implements plugin.OnTransferRejected.
func (m *MetricsExtension) OnTransferRejected(_ context.Context, _ transaction.Operation, err error) error {
	m.Rejected.Inc()

	te, ok := tokenledger.AsTransferError(err)
	if !ok {
		m.InternalErrors.Inc()
		return nil
	}
	switch te.Kind {
	case tokenledger.BadFee:
		m.RejectedBadFee.Inc()
	case tokenledger.Duplicate:
		m.RejectedDuplicate.Inc()
	case tokenledger.InsufficientFunds:
		m.RejectedInsufficient.Inc()
	case tokenledger.CreatedInFuture, tokenledger.TooOld, tokenledger.Expired:
		m.RejectedTime.Inc()
	case tokenledger.TemporarilyUnavailable:
		m.RejectedUnavailable.Inc()
	}
	return nil
}

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (m *MetricsExtension) OnJournalFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalArchived.Add(float64(count))
	m.JournalBatchSize.Observe(float64(count))
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// amountFloat converts an amount for observation. Precision loss above
// 2^53 base units is acceptable for metrics.
func amountFloat(a types.Amount) float64 {
	f, _ := new(big.Float).SetInt(a.Big()).Float64()
	return f
}
