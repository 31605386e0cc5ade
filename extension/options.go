package extension

import (
	"time"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/plugin"
	"github.com/xraph/tokenledger/store"
)

// Option configures the token ledger Forge extension.
type Option func(*Extension)

// WithStore sets the archive store for the ledger.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a tokenledger.Option through to the ledger.
// Pass-through options are applied after config-derived ones.
func WithLedgerOption(opt tokenledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, tokenledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithFee sets the transfer fee in base units.
func WithFee(fee tokenledger.Amount) Option {
	return func(e *Extension) { e.config.Fee = fee.String() }
}

// WithGenesisOwner mints the genesis supply to owner on start.
func WithGenesisOwner(owner tokenledger.Principal) Option {
	return func(e *Extension) { e.config.GenesisOwner = owner.String() }
}

// WithJournalBatchSize sets the number of transactions archived per store call.
func WithJournalBatchSize(size int) Option {
	return func(e *Extension) { e.config.JournalBatchSize = size }
}

// WithJournalFlushInterval sets how often the journal archives.
func WithJournalFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalFlushInterval = d }
}
