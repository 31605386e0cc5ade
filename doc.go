// Package tokenledger provides a fungible token ledger for Go applications.
//
// The ledger keeps a balance per account, a cached total supply and an
// append-only transaction log. Transfers charge a fixed fee that is routed
// to a fee collector account, so the total supply only changes on mint and
// burn. Every mutation is validated in full before any balance is touched:
// a rejected call leaves balances, supply and log exactly as they were.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/tokenledger"
//	    "github.com/xraph/tokenledger/store/memory"
//	)
//
//	l := tokenledger.New(memory.New(), tokenledger.GenesisMint(deployer))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	idx, err := l.Transfer(ctx, deployer, tokenledger.TransferArgs{
//	    To:     account.New(recipient),
//	    Amount: tokenledger.NewAmount(100),
//	})
//
// # Errors
//
// Business rejections are returned as *TransferError values whose Kind is one
// of BadFee, CreatedInFuture, TooOld, Expired, Duplicate,
// TemporarilyUnavailable or InsufficientFunds. They match the corresponding
// sentinel with errors.Is:
//
//	if errors.Is(err, tokenledger.ErrInsufficientFunds) {
//	    te, _ := tokenledger.AsTransferError(err)
//	    fmt.Println("balance:", te.Balance)
//	}
//
// Arithmetic overflow of a balance or of the total supply is not a business
// error. It is reported by wrapping ErrOverflow and indicates a broken
// invariant elsewhere.
//
// # Archive
//
// The in-memory log is authoritative. A background journal copies committed
// transactions to the configured store (memory, SQLite, PostgreSQL or
// MongoDB) in batches; Stop drains whatever is still pending.
//
// # Plugins
//
// Plugins registered with WithPlugin observe commits, rejections and journal
// flushes after the ledger lock is released. The audit_hook and
// observability packages ship ready-made plugins; the extension package
// mounts the ledger in a Forge application.
//
// # TypeID
//
// Transactions carry a TypeID next to their log index:
//
//	tx_01h2xcejqtf2nbrexx3vqjhp41
package tokenledger
