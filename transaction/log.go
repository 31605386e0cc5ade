package transaction

// Log is the append-only sequence of committed transactions. Index i always
// holds the i-th committed operation. Log has no locking of its own.
type Log struct {
	entries []*Transaction
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append sets tx.Index to the current length, stores tx and returns the index.
func (l *Log) Append(tx *Transaction) uint64 {
	tx.Index = uint64(len(l.entries))
	l.entries = append(l.entries, tx)
	return tx.Index
}

// Get returns a copy of the transaction at index i.
func (l *Log) Get(i uint64) (*Transaction, bool) {
	if i >= uint64(len(l.entries)) {
		return nil, false
	}
	return l.entries[i].Clone(), true
}

// Len returns the number of committed transactions.
func (l *Log) Len() uint64 { return uint64(len(l.entries)) }

// Range returns copies of the entries in [from, to), clamped to the log.
func (l *Log) Range(from, to uint64) []*Transaction {
	n := uint64(len(l.entries))
	if to > n {
		to = n
	}
	if from >= to {
		return nil
	}
	out := make([]*Transaction, 0, to-from)
	for _, tx := range l.entries[from:to] {
		out = append(out, tx.Clone())
	}
	return out
}
