// Package plugin provides an extensible plugin system for the token ledger.
// Plugins can hook into lifecycle and commit events to extend functionality.
// Every commit hook fires after the ledger lock has been released.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/tokenledger/transaction"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Commit hooks
// ──────────────────────────────────────────────────

// OnTransfer is called after a transfer has been committed.
type OnTransfer interface {
	Plugin
	OnTransfer(ctx context.Context, tx *transaction.Transaction) error
}

// OnMint is called after a mint has been committed.
type OnMint interface {
	Plugin
	OnMint(ctx context.Context, tx *transaction.Transaction) error
}

// OnBurn is called after a burn has been committed.
type OnBurn interface {
	Plugin
	OnBurn(ctx context.Context, tx *transaction.Transaction) error
}

// OnTransferRejected is called when a transfer or burn fails validation.
// op describes the attempted operation; nothing was committed.
type OnTransferRejected interface {
	Plugin
	OnTransferRejected(ctx context.Context, op transaction.Operation, err error) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed is called when committed transactions are archived.
type OnJournalFlushed interface {
	Plugin
	OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
