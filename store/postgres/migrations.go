package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the token ledger archive (PostgreSQL).
var Migrations = migrate.NewGroup("tokenledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_tokenledger_transactions",
			Version: "20260501000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tokenledger_transactions (
    tx_index        BIGINT PRIMARY KEY,
    id              TEXT NOT NULL UNIQUE,
    kind            TEXT NOT NULL,
    from_owner      TEXT NOT NULL DEFAULT '',
    from_subaccount TEXT NOT NULL DEFAULT '',
    to_owner        TEXT NOT NULL DEFAULT '',
    to_subaccount   TEXT NOT NULL DEFAULT '',
    amount          NUMERIC(39, 0) NOT NULL,
    fee             NUMERIC(39, 0) NOT NULL DEFAULT 0,
    memo            BYTEA,
    caller          TEXT NOT NULL DEFAULT '',
    timestamp       TIMESTAMPTZ NOT NULL,
    created_at_time TIMESTAMPTZ,
    archived_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tokenledger_tx_from ON tokenledger_transactions (from_owner, from_subaccount);
CREATE INDEX IF NOT EXISTS idx_tokenledger_tx_to ON tokenledger_transactions (to_owner, to_subaccount);
CREATE INDEX IF NOT EXISTS idx_tokenledger_tx_kind ON tokenledger_transactions (kind);
CREATE INDEX IF NOT EXISTS idx_tokenledger_tx_timestamp ON tokenledger_transactions (timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tokenledger_transactions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "add_tokenledger_supply_view",
			Version: "20260501000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE OR REPLACE VIEW tokenledger_supply AS
SELECT
    COALESCE(SUM(CASE WHEN kind = 'mint' THEN amount ELSE 0 END), 0)
  - COALESCE(SUM(CASE WHEN kind = 'burn' THEN amount ELSE 0 END), 0) AS total_supply,
    COALESCE(SUM(CASE WHEN kind = 'transfer' THEN fee ELSE 0 END), 0) AS fees_collected,
    COUNT(*) AS transactions
FROM tokenledger_transactions;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP VIEW IF EXISTS tokenledger_supply`)
				return err
			},
		},
	)
}
