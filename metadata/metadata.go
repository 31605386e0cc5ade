// Package metadata exposes the token's self-description as an ordered list of
// typed key/value entries.
package metadata

import (
	"math/big"
	"sync"

	"github.com/xraph/tokenledger/types"
)

// Standard keys, in the order Registry reports them.
const (
	KeyVersion  = "icrc1:version"
	KeyName     = "icrc1:name"
	KeySymbol   = "icrc1:symbol"
	KeyDecimals = "icrc1:decimals"
	KeyFee      = "icrc1:fee"

	Version = "1.3.0"
)

// Value holds exactly one of Text, Nat, Int or Blob.
type Value struct {
	Text *string  `json:"text,omitempty"`
	Nat  *big.Int `json:"nat,omitempty"`
	Int  *big.Int `json:"int,omitempty"`
	Blob []byte   `json:"blob,omitempty"`
}

func TextValue(s string) Value { return Value{Text: &s} }

// NatValue wraps an unsigned amount.
func NatValue(a types.Amount) Value { return Value{Nat: a.Big()} }

func IntValue(i int64) Value { return Value{Int: big.NewInt(i)} }

func BlobValue(b []byte) Value { return Value{Blob: append([]byte(nil), b...)} }

// Equal reports whether v and o hold the same variant and value.
func (v Value) Equal(o Value) bool {
	switch {
	case v.Text != nil || o.Text != nil:
		return v.Text != nil && o.Text != nil && *v.Text == *o.Text
	case v.Nat != nil || o.Nat != nil:
		return v.Nat != nil && o.Nat != nil && v.Nat.Cmp(o.Nat) == 0
	case v.Int != nil || o.Int != nil:
		return v.Int != nil && o.Int != nil && v.Int.Cmp(o.Int) == 0
	}
	return string(v.Blob) == string(o.Blob)
}

func (v Value) clone() Value {
	out := Value{Text: v.Text}
	if v.Text != nil {
		s := *v.Text
		out.Text = &s
	}
	if v.Nat != nil {
		out.Nat = new(big.Int).Set(v.Nat)
	}
	if v.Int != nil {
		out.Int = new(big.Int).Set(v.Int)
	}
	if v.Blob != nil {
		out.Blob = append([]byte(nil), v.Blob...)
	}
	return out
}

type Entry struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// TokenInfo is the static description the registry is built from.
type TokenInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Registry builds the entry list on first use and hands out copies.
type Registry struct {
	info TokenInfo
	fee  types.Amount

	once    sync.Once
	entries []Entry
}

// NewRegistry returns a registry for info with the given transfer fee.
func NewRegistry(info TokenInfo, fee types.Amount) *Registry {
	return &Registry{info: info, fee: fee}
}

// Entries returns the metadata in standard key order. Callers may modify
// the result freely.
func (r *Registry) Entries() []Entry {
	r.once.Do(r.build)

	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = Entry{Key: e.Key, Value: e.Value.clone()}
	}
	return out
}

// Get returns the value stored under key.
func (r *Registry) Get(key string) (Value, bool) {
	r.once.Do(r.build)
	for _, e := range r.entries {
		if e.Key == key {
			return e.Value.clone(), true
		}
	}
	return Value{}, false
}

func (r *Registry) build() {
	r.entries = []Entry{
		{Key: KeyVersion, Value: TextValue(Version)},
		{Key: KeyName, Value: TextValue(r.info.Name)},
		{Key: KeySymbol, Value: TextValue(r.info.Symbol)},
		{Key: KeyDecimals, Value: NatValue(types.NewAmount(uint64(r.info.Decimals)))},
		{Key: KeyFee, Value: NatValue(r.fee)},
	}
}
