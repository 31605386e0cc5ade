// Package transaction defines the immutable records kept in the ledger's
// append-only log.
package transaction

import (
	"time"

	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/id"
	"github.com/xraph/tokenledger/types"
)

// MaxMemoSize is the largest memo accepted on a transfer or burn.
const MaxMemoSize = 32

type Kind string

const (
	KindTransfer Kind = "transfer"
	KindMint     Kind = "mint"
	KindBurn     Kind = "burn"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTransfer, KindMint, KindBurn:
		return true
	}
	return false
}

// Transfer moves Amount from From to To and routes Fee to the fee collector.
type Transfer struct {
	From   account.Account `json:"from"`
	To     account.Account `json:"to"`
	Amount types.Amount    `json:"amount"`
	Fee    types.Amount    `json:"fee"`
}

// Mint creates Amount new units in To.
type Mint struct {
	To     account.Account `json:"to"`
	Amount types.Amount    `json:"amount"`
}

// Burn destroys Amount units held by From.
type Burn struct {
	From   account.Account `json:"from"`
	Amount types.Amount    `json:"amount"`
	Memo   []byte          `json:"memo,omitempty"`
}

// Operation holds exactly one of Transfer, Mint or Burn.
type Operation struct {
	Transfer *Transfer `json:"transfer,omitempty"`
	Mint     *Mint     `json:"mint,omitempty"`
	Burn     *Burn     `json:"burn,omitempty"`
}

// TransferOp wraps t as an Operation.
func TransferOp(t Transfer) Operation { return Operation{Transfer: &t} }

// MintOp wraps m as an Operation.
func MintOp(m Mint) Operation { return Operation{Mint: &m} }

// BurnOp wraps b as an Operation.
func BurnOp(b Burn) Operation { return Operation{Burn: &b} }

// Kind returns the variant held by o, or "" when o is empty.
func (o Operation) Kind() Kind {
	switch {
	case o.Transfer != nil:
		return KindTransfer
	case o.Mint != nil:
		return KindMint
	case o.Burn != nil:
		return KindBurn
	}
	return ""
}

// Amount returns the principal amount moved by the operation, excluding fees.
func (o Operation) Amount() types.Amount {
	switch {
	case o.Transfer != nil:
		return o.Transfer.Amount
	case o.Mint != nil:
		return o.Mint.Amount
	case o.Burn != nil:
		return o.Burn.Amount
	}
	return types.Zero
}

// Touches reports whether acc is a party to the operation. The fee collector
// is not considered a party.
func (o Operation) Touches(acc account.Account) bool {
	switch {
	case o.Transfer != nil:
		return o.Transfer.From == acc || o.Transfer.To == acc
	case o.Mint != nil:
		return o.Mint.To == acc
	case o.Burn != nil:
		return o.Burn.From == acc
	}
	return false
}

// Transaction is one committed log entry. It is never modified after
// Append.
type Transaction struct {
	Index         uint64            `json:"index"`
	ID            id.TransactionID  `json:"id"`
	Operation     Operation         `json:"operation"`
	Timestamp     time.Time         `json:"timestamp"`
	CreatedAtTime *time.Time        `json:"created_at_time,omitempty"`
	Caller        account.Principal `json:"caller"`
	Memo          []byte            `json:"memo,omitempty"`
}

// Kind is shorthand for tx.Operation.Kind().
func (tx *Transaction) Kind() Kind { return tx.Operation.Kind() }

// Clone returns a deep copy of tx. Records handed out of the log are clones,
// so callers cannot rewrite committed history.
func (tx *Transaction) Clone() *Transaction {
	if tx == nil {
		return nil
	}
	c := *tx
	c.Operation = tx.Operation.Clone()
	c.Memo = cloneBytes(tx.Memo)
	if tx.CreatedAtTime != nil {
		t := *tx.CreatedAtTime
		c.CreatedAtTime = &t
	}
	return &c
}

// Clone returns a copy of o that shares no memory with it.
func (o Operation) Clone() Operation {
	var c Operation
	if o.Transfer != nil {
		t := *o.Transfer
		c.Transfer = &t
	}
	if o.Mint != nil {
		m := *o.Mint
		c.Mint = &m
	}
	if o.Burn != nil {
		b := *o.Burn
		b.Memo = cloneBytes(o.Burn.Memo)
		c.Burn = &b
	}
	return c
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
