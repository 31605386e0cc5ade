package extension

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xraph/tokenledger"
	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/store/memory"
	"github.com/xraph/tokenledger/types"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{Fee: "25"})

	require.Equal(t, "25", cfg.Fee)
	require.Equal(t, tokenledger.DefaultName, cfg.TokenName)
	require.Equal(t, tokenledger.DefaultSymbol, cfg.TokenSymbol)
	require.NotNil(t, cfg.Decimals)
	require.Equal(t, tokenledger.DefaultDecimals, *cfg.Decimals)
	require.Equal(t, 24*time.Hour, cfg.TxWindow)
	require.Equal(t, 2*time.Minute, cfg.PermittedDrift)
	require.Equal(t, 100, cfg.JournalBatchSize)
	require.Equal(t, 5*time.Second, cfg.JournalFlushInterval)
}

func TestMergeConfigurationsPrefersFile(t *testing.T) {
	file := Config{Fee: "7", TokenSymbol: "TST"}
	programmatic := Config{
		Fee:          "99",
		TokenName:    "Programmatic",
		GenesisOwner: "aa",
	}

	cfg := mergeConfigurations(file, programmatic)
	require.Equal(t, "7", cfg.Fee)
	require.Equal(t, "TST", cfg.TokenSymbol)
	require.Equal(t, "Programmatic", cfg.TokenName)
	require.Equal(t, "aa", cfg.GenesisOwner)
	require.Equal(t, 100, cfg.JournalBatchSize)
}

func TestLedgerOptionsBuildConfiguredLedger(t *testing.T) {
	ctx := context.Background()
	collector := account.New(account.PrincipalFromBytes([]byte("fees")))
	holder := account.New(account.PrincipalFromBytes([]byte("holder")))
	owner := account.PrincipalFromBytes([]byte("owner"))
	decimals := uint8(2)

	cfg := mergeWithDefaults(Config{
		Fee:          "3",
		FeeCollector: collector.String(),
		TokenSymbol:  "TST",
		Decimals:     &decimals,
		GenesisOwner: owner.String(),
		InitialMints: []MintConfig{{Account: holder.String(), Amount: "500"}},
	})
	opts, err := cfg.LedgerOptions()
	require.NoError(t, err)

	l := tokenledger.New(memory.New(), opts...)
	require.NoError(t, l.Start(ctx))
	t.Cleanup(func() { _ = l.Stop() })

	require.Equal(t, types.NewAmount(3), l.Fee())
	require.Equal(t, collector, l.FeeCollector())
	require.Equal(t, "TST", l.TokenInfo().Symbol)
	require.Equal(t, uint8(2), l.TokenInfo().Decimals)

	genesis, ok := types.Tokens(tokenledger.DefaultGenesisTokens, 2)
	require.True(t, ok)
	require.Equal(t, genesis, l.BalanceOf(account.New(owner)))
	require.Equal(t, types.NewAmount(500), l.BalanceOf(holder))
	require.Equal(t, uint64(2), l.LogLength())
}

func TestLedgerOptionsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"fee", Config{Fee: "ten"}, "fee"},
		{"collector", Config{FeeCollector: "zz"}, "fee_collector"},
		{"genesis owner", Config{GenesisOwner: "not-hex"}, "genesis_owner"},
		{"mint account", Config{InitialMints: []MintConfig{{Account: "q", Amount: "1"}}}, "initial_mints[0].account"},
		{"mint amount", Config{InitialMints: []MintConfig{{Account: "aa", Amount: "-1"}}}, "initial_mints[0].amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.LedgerOptions()
			require.ErrorIs(t, err, tokenledger.ErrInvalidInput)

			var ve tokenledger.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.field, ve.Field)
			require.Error(t, ve.Err)
		})
	}
}

func TestHealthReportsStoreNotReady(t *testing.T) {
	ctx := context.Background()

	err := New().Health(ctx)
	require.ErrorIs(t, err, tokenledger.ErrStoreNotReady)

	s := memory.New()
	e := New(WithStore(s))
	require.NoError(t, e.Health(ctx))

	require.NoError(t, s.Close())
	err = e.Health(ctx)
	require.ErrorIs(t, err, tokenledger.ErrStoreNotReady)
	require.ErrorIs(t, err, tokenledger.ErrStoreClosed)
	require.True(t, tokenledger.IsRetryable(err))
}
