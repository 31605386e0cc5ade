package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/plugin"
	"github.com/xraph/tokenledger/transaction"
)

// Ensure TracingExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*TracingExtension)(nil)
	_ plugin.OnTransfer         = (*TracingExtension)(nil)
	_ plugin.OnMint             = (*TracingExtension)(nil)
	_ plugin.OnBurn             = (*TracingExtension)(nil)
	_ plugin.OnTransferRejected = (*TracingExtension)(nil)
	_ plugin.OnJournalFlushed   = (*TracingExtension)(nil)
)

// TracerName is the instrumentation name used when a TracerProvider is given.
const TracerName = "github.com/xraph/tokenledger"

// TracingExtension records one span per committed operation, one per
// rejection and one per journal flush. Spans of committed operations start
// at the ledger timestamp of the transaction.
type TracingExtension struct {
	tracer oteltrace.Tracer
}

// NewTracingExtension creates a TracingExtension from a TracerProvider.
func NewTracingExtension(tp oteltrace.TracerProvider) *TracingExtension {
	return &TracingExtension{tracer: tp.Tracer(TracerName)}
}

// Name implements plugin.Plugin.
func (t *TracingExtension) Name() string { return "observability-tracing" }

// OnTransfer implements plugin.OnTransfer.
func (t *TracingExtension) OnTransfer(ctx context.Context, tx *transaction.Transaction) error {
	attrs := txAttributes(tx)
	if op := tx.Operation.Transfer; op != nil {
		attrs = append(attrs,
			attribute.String("tokenledger.from", op.From.String()),
			attribute.String("tokenledger.to", op.To.String()),
			attribute.String("tokenledger.fee", op.Fee.String()),
		)
	}
	t.committed(ctx, "tokenledger.Transfer", tx, attrs)
	return nil
}

// OnMint implements plugin.OnMint.
func (t *TracingExtension) OnMint(ctx context.Context, tx *transaction.Transaction) error {
	attrs := txAttributes(tx)
	if op := tx.Operation.Mint; op != nil {
		attrs = append(attrs, attribute.String("tokenledger.to", op.To.String()))
	}
	t.committed(ctx, "tokenledger.Mint", tx, attrs)
	return nil
}

// OnBurn implements plugin.OnBurn.
func (t *TracingExtension) OnBurn(ctx context.Context, tx *transaction.Transaction) error {
	attrs := txAttributes(tx)
	if op := tx.Operation.Burn; op != nil {
		attrs = append(attrs, attribute.String("tokenledger.from", op.From.String()))
	}
	t.committed(ctx, "tokenledger.Burn", tx, attrs)
	return nil
}

// OnTransferRejected implements plugin.OnTransferRejected.
func (t *TracingExtension) OnTransferRejected(ctx context.Context, op transaction.Operation, err error) error {
	attrs := []attribute.KeyValue{
		attribute.String("tokenledger.kind", string(op.Kind())),
		attribute.String("tokenledger.amount", op.Amount().String()),
	}
	if te, ok := tokenledger.AsTransferError(err); ok {
		attrs = append(attrs, attribute.String("tokenledger.rejection", string(te.Kind)))
	}

	_, span := t.tracer.Start(ctx, "tokenledger.Rejected", oteltrace.WithAttributes(attrs...))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
	return nil
}

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (t *TracingExtension) OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	end := time.Now()
	_, span := t.tracer.Start(ctx, "tokenledger.JournalFlush",
		oteltrace.WithTimestamp(end.Add(-elapsed)),
		oteltrace.WithAttributes(attribute.Int("tokenledger.archived", count)),
	)
	span.End(oteltrace.WithTimestamp(end))
	return nil
}

func (t *TracingExtension) committed(ctx context.Context, name string, tx *transaction.Transaction, attrs []attribute.KeyValue) {
	_, span := t.tracer.Start(ctx, name,
		oteltrace.WithTimestamp(tx.Timestamp),
		oteltrace.WithAttributes(attrs...),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

func txAttributes(tx *transaction.Transaction) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int64("tokenledger.index", int64(tx.Index)), //nolint:gosec // indices stay far below 2^63
		attribute.String("tokenledger.tx_id", tx.ID.String()),
		attribute.String("tokenledger.kind", string(tx.Kind())),
		attribute.String("tokenledger.amount", tx.Operation.Amount().String()),
		attribute.String("tokenledger.caller", tx.Caller.String()),
	}
	if len(tx.Memo) > 0 {
		attrs = append(attrs, attribute.Int("tokenledger.memo_size", len(tx.Memo)))
	}
	return attrs
}
