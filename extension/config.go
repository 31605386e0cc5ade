package extension

import (
	"fmt"
	"time"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/metadata"
	"github.com/xraph/tokenledger/types"
)

// Config holds the token ledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.tokenledger" or "tokenledger" keys).
//
// Amounts and accounts are strings so they bind from any config source:
// amounts are decimal base units, accounts use the textual account form.
type Config struct {
	// Fee is the transfer fee in base units (default: "10000").
	Fee string `json:"fee" mapstructure:"fee" yaml:"fee"`

	// FeeCollector receives transfer fees (default: the anonymous account).
	FeeCollector string `json:"fee_collector" mapstructure:"fee_collector" yaml:"fee_collector"`

	// TokenName, TokenSymbol and Decimals are reported in ledger metadata.
	TokenName   string `json:"token_name" mapstructure:"token_name" yaml:"token_name"`
	TokenSymbol string `json:"token_symbol" mapstructure:"token_symbol" yaml:"token_symbol"`
	Decimals    *uint8 `json:"decimals,omitempty" mapstructure:"decimals" yaml:"decimals,omitempty"`

	// TxWindow is how long a created_at_time stays acceptable (default: 24h).
	TxWindow time.Duration `json:"tx_window" mapstructure:"tx_window" yaml:"tx_window"`

	// PermittedDrift is how far in the future created_at_time may lie (default: 2m).
	PermittedDrift time.Duration `json:"permitted_drift" mapstructure:"permitted_drift" yaml:"permitted_drift"`

	// JournalBatchSize is the number of transactions archived per store
	// call (default: 100).
	JournalBatchSize int `json:"journal_batch_size" mapstructure:"journal_batch_size" yaml:"journal_batch_size"`

	// JournalFlushInterval is how often the journal archives even without
	// new commits (default: 5s).
	JournalFlushInterval time.Duration `json:"journal_flush_interval" mapstructure:"journal_flush_interval" yaml:"journal_flush_interval"`

	// GenesisOwner, when set, is the hex principal that receives the
	// genesis supply on start.
	GenesisOwner string `json:"genesis_owner" mapstructure:"genesis_owner" yaml:"genesis_owner"`

	// InitialMints are applied on start, after the genesis mint.
	InitialMints []MintConfig `json:"initial_mints" mapstructure:"initial_mints" yaml:"initial_mints"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// MintConfig is one start-up mint.
type MintConfig struct {
	Account string `json:"account" mapstructure:"account" yaml:"account"`
	Amount  string `json:"amount" mapstructure:"amount" yaml:"amount"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	decimals := tokenledger.DefaultDecimals
	return Config{
		Fee:                  tokenledger.DefaultFee.String(),
		TokenName:            tokenledger.DefaultName,
		TokenSymbol:          tokenledger.DefaultSymbol,
		Decimals:             &decimals,
		TxWindow:             tokenledger.DefaultTxWindow,
		PermittedDrift:       tokenledger.DefaultPermittedDrift,
		JournalBatchSize:     100,
		JournalFlushInterval: 5 * time.Second,
	}
}

// LedgerOptions converts the config into ledger options. Token info is
// applied before the genesis mint so its decimals are honored.
func (c Config) LedgerOptions() ([]tokenledger.Option, error) {
	var opts []tokenledger.Option

	if c.Fee != "" {
		fee, err := types.ParseAmount(c.Fee)
		if err != nil {
			return nil, invalid("fee", err)
		}
		opts = append(opts, tokenledger.WithFee(fee))
	}

	if c.FeeCollector != "" {
		acc, err := account.Parse(c.FeeCollector)
		if err != nil {
			return nil, invalid("fee_collector", err)
		}
		opts = append(opts, tokenledger.WithFeeCollector(acc))
	}

	info := metadata.TokenInfo{
		Name:     tokenledger.DefaultName,
		Symbol:   tokenledger.DefaultSymbol,
		Decimals: tokenledger.DefaultDecimals,
	}
	if c.TokenName != "" {
		info.Name = c.TokenName
	}
	if c.TokenSymbol != "" {
		info.Symbol = c.TokenSymbol
	}
	if c.Decimals != nil {
		info.Decimals = *c.Decimals
	}
	opts = append(opts, tokenledger.WithTokenInfo(info))

	if c.TxWindow > 0 || c.PermittedDrift > 0 {
		window, drift := c.TxWindow, c.PermittedDrift
		if window <= 0 {
			window = tokenledger.DefaultTxWindow
		}
		if drift <= 0 {
			drift = tokenledger.DefaultPermittedDrift
		}
		opts = append(opts, tokenledger.WithTxWindow(window, drift))
	}

	opts = append(opts, tokenledger.WithJournalConfig(c.JournalBatchSize, c.JournalFlushInterval))

	if c.GenesisOwner != "" {
		owner, err := account.ParsePrincipal(c.GenesisOwner)
		if err != nil {
			return nil, invalid("genesis_owner", err)
		}
		opts = append(opts, tokenledger.GenesisMint(owner))
	}

	for i, m := range c.InitialMints {
		acc, err := account.Parse(m.Account)
		if err != nil {
			return nil, invalid(fmt.Sprintf("initial_mints[%d].account", i), err)
		}
		amount, err := types.ParseAmount(m.Amount)
		if err != nil {
			return nil, invalid(fmt.Sprintf("initial_mints[%d].amount", i), err)
		}
		opts = append(opts, tokenledger.WithInitialMint(acc, amount))
	}

	return opts, nil
}

func invalid(field string, err error) error {
	return tokenledger.ValidationError{Field: field, Message: err.Error(), Err: err}
}
