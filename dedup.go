package tokenledger

import (
	"time"

	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/transaction"
	"github.com/xraph/tokenledger/types"
)

// dedupKey identifies a transfer for duplicate detection. Only transfers
// that carry a created_at_time are deduplicated.
type dedupKey struct {
	from      account.Account
	to        account.Account
	amount    types.Amount
	fee       types.Amount
	memo      string
	createdAt int64
}

func newDedupKey(op transaction.Transfer, memo []byte, createdAt time.Time) dedupKey {
	return dedupKey{
		from:      op.From,
		to:        op.To,
		amount:    op.Amount,
		fee:       op.Fee,
		memo:      string(memo),
		createdAt: createdAt.UnixNano(),
	}
}

type dedupEntry struct {
	key         dedupKey
	committedAt time.Time
}

// dedupIndex remembers recent transfers. Entries committed more than
// retention ago are dropped; by then their created_at_time is rejected as
// TooOld before the index is consulted.
type dedupIndex struct {
	retention time.Duration
	seen      map[dedupKey]uint64
	order     []dedupEntry
}

func newDedupIndex(retention time.Duration) *dedupIndex {
	return &dedupIndex{retention: retention, seen: make(map[dedupKey]uint64)}
}

func (d *dedupIndex) lookup(k dedupKey) (uint64, bool) {
	idx, ok := d.seen[k]
	return idx, ok
}

func (d *dedupIndex) insert(k dedupKey, index uint64, committedAt time.Time) {
	d.seen[k] = index
	d.order = append(d.order, dedupEntry{key: k, committedAt: committedAt})
}

func (d *dedupIndex) prune(now time.Time) {
	cutoff := now.Add(-d.retention)
	n := 0
	for n < len(d.order) && d.order[n].committedAt.Before(cutoff) {
		delete(d.seen, d.order[n].key)
		n++
	}
	if n > 0 {
		d.order = append(d.order[:0], d.order[n:]...)
	}
}

func (d *dedupIndex) len() int { return len(d.seen) }
