package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the token ledger archive (SQLite).
var Migrations = migrate.NewGroup("tokenledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_tokenledger_transactions",
			Version: "20260501000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tokenledger_transactions (
    tx_index        INTEGER PRIMARY KEY,
    id              TEXT NOT NULL UNIQUE,
    kind            TEXT NOT NULL,
    from_owner      TEXT NOT NULL DEFAULT '',
    from_subaccount TEXT NOT NULL DEFAULT '',
    to_owner        TEXT NOT NULL DEFAULT '',
    to_subaccount   TEXT NOT NULL DEFAULT '',
    amount          TEXT NOT NULL,
    fee             TEXT NOT NULL DEFAULT '0',
    memo            BLOB,
    caller          TEXT NOT NULL DEFAULT '',
    timestamp       TIMESTAMP NOT NULL,
    created_at_time TIMESTAMP,
    archived_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
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
	)
}
