package tokenledger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/metadata"
	"github.com/xraph/tokenledger/plugin"
	"github.com/xraph/tokenledger/types"
)

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithFee sets the transfer fee.
func WithFee(fee types.Amount) Option {
	return func(l *Ledger) {
		l.fee = fee
	}
}

// WithFeeCollector sets the account that receives transfer fees.
func WithFeeCollector(acc account.Account) Option {
	return func(l *Ledger) {
		l.feeCollector = acc
	}
}

// WithTokenInfo sets the name, symbol and decimals reported in metadata.
func WithTokenInfo(info metadata.TokenInfo) Option {
	return func(l *Ledger) {
		l.tokenInfo = info
	}
}

// WithClock replaces the host clock. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// WithTxWindow sets how long a created_at_time stays acceptable and how far
// into the future it may lie.
func WithTxWindow(window, permittedDrift time.Duration) Option {
	return func(l *Ledger) {
		l.txWindow = window
		l.permittedDrift = permittedDrift
	}
}

// WithJournalConfig configures archiving parameters.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(l *Ledger) {
		if batchSize > 0 {
			l.journal.batchSize = batchSize
		}
		if flushInterval > 0 {
			l.journal.flushInterval = flushInterval
		}
	}
}

// WithInitialMint mints amount to acc when the ledger starts. Initial mints
// are applied in the order given.
func WithInitialMint(acc account.Account, amount types.Amount) Option {
	return func(l *Ledger) {
		l.initialMints = append(l.initialMints, initialMint{to: acc, amount: amount})
	}
}

// GenesisMint mints DefaultGenesisTokens whole tokens to deployer's default
// account on start. It must follow any WithTokenInfo option so the configured
// decimals apply. If the genesis supply does not fit in an Amount at those
// decimals, Start fails with ErrOverflow.
func GenesisMint(deployer account.Principal) Option {
	return func(l *Ledger) {
		amount, ok := types.Tokens(DefaultGenesisTokens, l.tokenInfo.Decimals)
		if !ok {
			if l.optErr == nil {
				l.optErr = fmt.Errorf("%w: genesis supply of %d tokens at %d decimals",
					ErrOverflow, DefaultGenesisTokens, l.tokenInfo.Decimals)
			}
			return
		}
		l.initialMints = append(l.initialMints, initialMint{to: account.New(deployer), amount: amount})
	}
}
