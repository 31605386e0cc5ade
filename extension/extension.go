// Package extension provides the Forge extension adapter for the token ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.tokenledger" or
// "tokenledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/store"
	"github.com/xraph/tokenledger/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "tokenledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Fungible token ledger with fees and deduplication"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the token ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	ledger     *tokenledger.Ledger
	store      store.Store
	ledgerOpts []tokenledger.Option
}

// New creates a new token ledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ledger returns the underlying ledger. It is nil until Register is called.
func (e *Extension) Ledger() *tokenledger.Ledger { return e.ledger }

// Register implements [forge.Extension]. It loads configuration,
// builds the ledger and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}
	e.ledger = tokenledger.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*tokenledger.Ledger, error) {
		return e.ledger, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.ledger == nil {
		return errors.New("tokenledger: extension not initialized")
	}
	if err := e.ledger.Start(ctx); err != nil {
		return err
	}
	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	defer e.MarkStopped()
	if e.ledger == nil {
		return nil
	}
	return e.ledger.Stop()
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return fmt.Errorf("%w: store not initialized", tokenledger.ErrStoreNotReady)
	}
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", tokenledger.ErrStoreNotReady, err)
	}
	if e.ledger == nil {
		return nil
	}
	if pending := e.ledger.PendingArchive(); pending > 0 {
		e.Logger().Debug("tokenledger: archive backlog",
			forge.F("pending", pending),
		)
	}
	return nil
}

// buildLedgerOpts turns the resolved config into ledger options and appends
// the pass-through options.
func (e *Extension) buildLedgerOpts() ([]tokenledger.Option, error) {
	opts, err := e.config.LedgerOptions()
	if err != nil {
		return nil, err
	}
	return append(opts, e.ledgerOpts...), nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("tokenledger: configuration is required but not found in config files; " +
				"ensure 'extensions.tokenledger' or 'tokenledger' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("tokenledger: configuration loaded",
		forge.F("fee", e.config.Fee),
		forge.F("token_symbol", e.config.TokenSymbol),
		forge.F("tx_window", e.config.TxWindow),
		forge.F("permitted_drift", e.config.PermittedDrift),
		forge.F("journal_batch_size", e.config.JournalBatchSize),
		forge.F("journal_flush_interval", e.config.JournalFlushInterval),
		forge.F("initial_mints", len(e.config.InitialMints)),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.tokenledger", "tokenledger"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("tokenledger: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("tokenledger: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Fee == "" {
		cfg.Fee = defaults.Fee
	}
	if cfg.TokenName == "" {
		cfg.TokenName = defaults.TokenName
	}
	if cfg.TokenSymbol == "" {
		cfg.TokenSymbol = defaults.TokenSymbol
	}
	if cfg.Decimals == nil {
		cfg.Decimals = defaults.Decimals
	}
	if cfg.TxWindow == 0 {
		cfg.TxWindow = defaults.TxWindow
	}
	if cfg.PermittedDrift == 0 {
		cfg.PermittedDrift = defaults.PermittedDrift
	}
	if cfg.JournalBatchSize == 0 {
		cfg.JournalBatchSize = defaults.JournalBatchSize
	}
	if cfg.JournalFlushInterval == 0 {
		cfg.JournalFlushInterval = defaults.JournalFlushInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if yamlConfig.Fee == "" {
		yamlConfig.Fee = programmaticConfig.Fee
	}
	if yamlConfig.FeeCollector == "" {
		yamlConfig.FeeCollector = programmaticConfig.FeeCollector
	}
	if yamlConfig.TokenName == "" {
		yamlConfig.TokenName = programmaticConfig.TokenName
	}
	if yamlConfig.TokenSymbol == "" {
		yamlConfig.TokenSymbol = programmaticConfig.TokenSymbol
	}
	if yamlConfig.Decimals == nil {
		yamlConfig.Decimals = programmaticConfig.Decimals
	}
	if yamlConfig.TxWindow == 0 {
		yamlConfig.TxWindow = programmaticConfig.TxWindow
	}
	if yamlConfig.PermittedDrift == 0 {
		yamlConfig.PermittedDrift = programmaticConfig.PermittedDrift
	}
	if yamlConfig.JournalBatchSize == 0 {
		yamlConfig.JournalBatchSize = programmaticConfig.JournalBatchSize
	}
	if yamlConfig.JournalFlushInterval == 0 {
		yamlConfig.JournalFlushInterval = programmaticConfig.JournalFlushInterval
	}
	if yamlConfig.GenesisOwner == "" {
		yamlConfig.GenesisOwner = programmaticConfig.GenesisOwner
	}
	if len(yamlConfig.InitialMints) == 0 {
		yamlConfig.InitialMints = programmaticConfig.InitialMints
	}

	return mergeWithDefaults(yamlConfig)
}
