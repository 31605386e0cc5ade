// Package audithook bridges ledger commit events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xraph/tokenledger/id"
	"github.com/xraph/tokenledger/plugin"
	"github.com/xraph/tokenledger/transaction"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnInit             = (*Extension)(nil)
	_ plugin.OnShutdown         = (*Extension)(nil)
	_ plugin.OnTransfer         = (*Extension)(nil)
	_ plugin.OnMint             = (*Extension)(nil)
	_ plugin.OnBurn             = (*Extension)(nil)
	_ plugin.OnTransferRejected = (*Extension)(nil)
	_ plugin.OnJournalFlushed   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	ID         id.AuditEventID `json:"id"`
	Action     string          `json:"action"`
	Resource   string          `json:"resource"`
	Category   string          `json:"category"`
	ResourceID string          `json:"resource_id,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	Outcome    string          `json:"outcome"`
	Severity   string          `json:"severity"`
	Reason     string          `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	only     map[string]bool // nil = every action
	skip     map[string]bool
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit implements plugin.OnInit.
func (e *Extension) OnInit(ctx context.Context, _ any) error {
	return e.record(ctx, ActionLedgerStarted, SeverityInfo, OutcomeSuccess,
		ResourceLedger, "", CategoryLifecycle, nil,
	)
}

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionLedgerStopped, SeverityInfo, OutcomeSuccess,
		ResourceLedger, "", CategoryLifecycle, nil,
	)
}

// ──────────────────────────────────────────────────
// Commit hooks
// ──────────────────────────────────────────────────

// OnTransfer implements plugin.OnTransfer.
func (e *Extension) OnTransfer(ctx context.Context, tx *transaction.Transaction) error {
	t := tx.Operation.Transfer
	return e.record(ctx, ActionTransferApplied, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, indexID(tx), CategoryTransfer, nil,
		"tx_id", tx.ID.String(),
		"from", t.From.String(),
		"to", t.To.String(),
		"amount", t.Amount.String(),
		"fee", t.Fee.String(),
	)
}

// OnMint implements plugin.OnMint.
func (e *Extension) OnMint(ctx context.Context, tx *transaction.Transaction) error {
	m := tx.Operation.Mint
	return e.record(ctx, ActionMintApplied, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, indexID(tx), CategorySupply, nil,
		"tx_id", tx.ID.String(),
		"to", m.To.String(),
		"amount", m.Amount.String(),
		"caller", tx.Caller.String(),
	)
}

// OnBurn implements plugin.OnBurn.
func (e *Extension) OnBurn(ctx context.Context, tx *transaction.Transaction) error {
	b := tx.Operation.Burn
	return e.record(ctx, ActionBurnApplied, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, indexID(tx), CategorySupply, nil,
		"tx_id", tx.ID.String(),
		"from", b.From.String(),
		"amount", b.Amount.String(),
	)
}

// OnTransferRejected implements plugin.OnTransferRejected.
func (e *Extension) OnTransferRejected(ctx context.Context, op transaction.Operation, err error) error {
	kv := []any{"kind", string(op.Kind()), "amount", op.Amount().String()}
	switch {
	case op.Transfer != nil:
		kv = append(kv, "from", op.Transfer.From.String(), "to", op.Transfer.To.String())
	case op.Burn != nil:
		kv = append(kv, "from", op.Burn.From.String())
	}
	return e.record(ctx, ActionTransferRejected, SeverityWarning, OutcomeFailure,
		ResourceTransaction, "", CategoryTransfer, err,
		kv...,
	)
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (e *Extension) OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	return e.record(ctx, ActionJournalFlushed, SeverityInfo, OutcomeSuccess,
		ResourceJournal, "", CategoryArchive, nil,
		"count", count,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func indexID(tx *transaction.Transaction) string {
	return strconv.FormatUint(tx.Index, 10)
}

// audits reports whether action passes the enable and disable filters.
func (e *Extension) audits(action string) bool {
	if e.skip[action] {
		return false
	}
	return e.only == nil || e.only[action]
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if !e.audits(action) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditEventID(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
