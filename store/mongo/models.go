package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/tokenledger/store"
	"github.com/xraph/tokenledger/transaction"
)

// transactionModel keys documents by log index so re-archiving collides on _id.
type transactionModel struct {
	grove.BaseModel `grove:"table:tokenledger_transactions"`

	Index          int64      `grove:"id,pk"           bson:"_id"`
	ID             string     `grove:"tx_id"           bson:"tx_id"`
	Kind           string     `grove:"kind"            bson:"kind"`
	FromOwner      string     `grove:"from_owner"      bson:"from_owner,omitempty"`
	FromSubaccount string     `grove:"from_subaccount" bson:"from_subaccount,omitempty"`
	ToOwner        string     `grove:"to_owner"        bson:"to_owner,omitempty"`
	ToSubaccount   string     `grove:"to_subaccount"   bson:"to_subaccount,omitempty"`
	Amount         string     `grove:"amount"          bson:"amount"`
	Fee            string     `grove:"fee"             bson:"fee"`
	Memo           []byte     `grove:"memo"            bson:"memo,omitempty"`
	Caller         string     `grove:"caller"          bson:"caller"`
	Timestamp      time.Time  `grove:"timestamp"       bson:"timestamp"`
	CreatedAtTime  *time.Time `grove:"created_at_time" bson:"created_at_time,omitempty"`
	ArchivedAt     time.Time  `grove:"archived_at"     bson:"archived_at"`
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
		ArchivedAt:     time.Now().UTC(),
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
