package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/tokenledger/store"
	"github.com/xraph/tokenledger/transaction"
)

type transactionModel struct {
	grove.BaseModel `grove:"table:tokenledger_transactions"`

	Index          int64      `grove:"tx_index,pk"`
	ID             string     `grove:"id"`
	Kind           string     `grove:"kind"`
	FromOwner      string     `grove:"from_owner"`
	FromSubaccount string     `grove:"from_subaccount"`
	ToOwner        string     `grove:"to_owner"`
	ToSubaccount   string     `grove:"to_subaccount"`
	Amount         string     `grove:"amount"`
	Fee            string     `grove:"fee"`
	Memo           []byte     `grove:"memo"`
	Caller         string     `grove:"caller"`
	Timestamp      time.Time  `grove:"timestamp"`
	CreatedAtTime  *time.Time `grove:"created_at_time"`
	ArchivedAt     time.Time  `grove:"archived_at"`
}

func toTransactionModel(tx *transaction.Transaction) *transactionModel {
	r := store.ToRecord(tx)
	return &transactionModel{
		Index:          int64(r.Index),
		ID:             r.ID,
		Kind:           r.Kind,
		FromOwner:      r.FromOwner,
		FromSubaccount: r.FromSubaccount,
		ToOwner:        r.ToOwner,
		ToSubaccount:   r.ToSubaccount,
		Amount:         r.Amount,
		Fee:            r.Fee,
		Memo:           r.Memo,
		Caller:         r.Caller,
		Timestamp:      r.Timestamp,
		CreatedAtTime:  r.CreatedAtTime,
		ArchivedAt:     now(),
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Transaction, error) {
	return store.Record{
		Index:          uint64(m.Index),
		ID:             m.ID,
		Kind:           m.Kind,
		FromOwner:      m.FromOwner,
		FromSubaccount: m.FromSubaccount,
		ToOwner:        m.ToOwner,
		ToSubaccount:   m.ToSubaccount,
		Amount:         m.Amount,
		Fee:            m.Fee,
		Memo:           m.Memo,
		Caller:         m.Caller,
		Timestamp:      m.Timestamp,
		CreatedAtTime:  m.CreatedAtTime,
	}.Transaction()
}
