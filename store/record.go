package store

import (
	"fmt"
	"time"

	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/id"
	"github.com/xraph/tokenledger/transaction"
	"github.com/xraph/tokenledger/types"
)

// Record is the flat, backend-neutral row form of a transaction. Principals
// are hex, subaccounts are 64 hex characters and amounts are decimal text,
// so every backend can filter on them with plain equality. Account columns
// that do not apply to the operation kind are empty.
type Record struct {
	Index          uint64
	ID             string
	Kind           string
	FromOwner      string
	FromSubaccount string
	ToOwner        string
	ToSubaccount   string
	Amount         string
	Fee            string
	Memo           []byte
	Caller         string
	Timestamp      time.Time
	CreatedAtTime  *time.Time
}

// AccountColumns returns the owner and subaccount column values for acc.
func AccountColumns(acc account.Account) (owner, subaccount string) {
	sub, _ := acc.Subaccount.MarshalText() //nolint:errcheck // hex encoding cannot fail
	return acc.Owner.String(), string(sub)
}

// ToRecord flattens tx.
func ToRecord(tx *transaction.Transaction) Record {
	r := Record{
		Index:         tx.Index,
		ID:            tx.ID.String(),
		Kind:          string(tx.Kind()),
		Amount:        tx.Operation.Amount().String(),
		Fee:           types.Zero.String(),
		Memo:          tx.Memo,
		Caller:        tx.Caller.String(),
		Timestamp:     tx.Timestamp.UTC(),
		CreatedAtTime: utcPtr(tx.CreatedAtTime),
	}

	op := tx.Operation
	switch {
	case op.Transfer != nil:
		r.FromOwner, r.FromSubaccount = AccountColumns(op.Transfer.From)
		r.ToOwner, r.ToSubaccount = AccountColumns(op.Transfer.To)
		r.Fee = op.Transfer.Fee.String()
	case op.Mint != nil:
		r.ToOwner, r.ToSubaccount = AccountColumns(op.Mint.To)
	case op.Burn != nil:
		r.FromOwner, r.FromSubaccount = AccountColumns(op.Burn.From)
		r.Memo = op.Burn.Memo
	}
	return r
}

// Transaction rebuilds the transaction held by r.
func (r Record) Transaction() (*transaction.Transaction, error) {
	txID, err := id.ParseTransactionID(r.ID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(r.Amount)
	if err != nil {
		return nil, err
	}
	caller, err := account.ParsePrincipal(r.Caller)
	if err != nil {
		return nil, err
	}

	tx := &transaction.Transaction{
		Index:         r.Index,
		ID:            txID,
		Timestamp:     r.Timestamp.UTC(),
		CreatedAtTime: utcPtr(r.CreatedAtTime),
		Caller:        caller,
	}
	if len(r.Memo) > 0 {
		tx.Memo = r.Memo
	}

	switch transaction.Kind(r.Kind) {
	case transaction.KindTransfer:
		from, err := parseAccount(r.FromOwner, r.FromSubaccount)
		if err != nil {
			return nil, err
		}
		to, err := parseAccount(r.ToOwner, r.ToSubaccount)
		if err != nil {
			return nil, err
		}
		fee, err := types.ParseAmount(r.Fee)
		if err != nil {
			return nil, err
		}
		tx.Operation = transaction.TransferOp(transaction.Transfer{From: from, To: to, Amount: amount, Fee: fee})
	case transaction.KindMint:
		to, err := parseAccount(r.ToOwner, r.ToSubaccount)
		if err != nil {
			return nil, err
		}
		tx.Operation = transaction.MintOp(transaction.Mint{To: to, Amount: amount})
	case transaction.KindBurn:
		from, err := parseAccount(r.FromOwner, r.FromSubaccount)
		if err != nil {
			return nil, err
		}
		tx.Operation = transaction.BurnOp(transaction.Burn{From: from, Amount: amount, Memo: tx.Memo})
	default:
		return nil, fmt.Errorf("store: unknown transaction kind %q at index %d", r.Kind, r.Index)
	}
	return tx, nil
}

func parseAccount(owner, subaccount string) (account.Account, error) {
	p, err := account.ParsePrincipal(owner)
	if err != nil {
		return account.Account{}, err
	}
	var sub account.Subaccount
	if err := sub.UnmarshalText([]byte(subaccount)); err != nil {
		return account.Account{}, err
	}
	return account.WithSubaccount(p, sub), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
