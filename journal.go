package tokenledger

import (
	"context"
	"sync"
	"time"
)

const (
	defaultJournalBatchSize     = 100
	defaultJournalFlushInterval = 5 * time.Second
)

// journal tracks how much of the log has been archived. cursor is the index
// of the first transaction not yet written to the store.
type journal struct {
	batchSize     int
	flushInterval time.Duration

	signal chan struct{}
	stop   chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	cursor uint64
}

func newJournal() *journal {
	return &journal{
		batchSize:     defaultJournalBatchSize,
		flushInterval: defaultJournalFlushInterval,
		signal:        make(chan struct{}, 1),
		stop:          make(chan struct{}),
	}
}

// notify wakes the worker without blocking the caller.
func (j *journal) notify() {
	select {
	case j.signal <- struct{}{}:
	default:
	}
}

// journalWorker archives committed transactions to the store.
func (l *Ledger) journalWorker(ctx context.Context) {
	defer l.journal.wg.Done()

	ticker := time.NewTicker(l.journal.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.journal.stop:
			// Final flush
			if err := l.Flush(ctx); err != nil {
				l.logger.Error("final journal flush failed",
					"error", err,
					"pending", l.PendingArchive(),
				)
			}
			return

		case <-l.journal.signal:
			_ = l.Flush(ctx) //nolint:errcheck // logged in Flush; retried on the next tick

		case <-ticker.C:
			_ = l.Flush(ctx) //nolint:errcheck // logged in Flush; retried on the next tick
		}
	}
}

// Flush archives every committed transaction not yet in the store, in
// batches of the configured size. On error the cursor stays at the first
// unarchived transaction, so the next flush retries it.
func (l *Ledger) Flush(ctx context.Context) error {
	l.journal.mu.Lock()
	defer l.journal.mu.Unlock()

	for {
		l.mu.RLock()
		batch := l.log.Range(l.journal.cursor, l.journal.cursor+uint64(l.journal.batchSize))
		l.mu.RUnlock()

		if len(batch) == 0 {
			return nil
		}

		start := time.Now()
		if err := l.store.ArchiveTransactions(ctx, batch); err != nil {
			l.logger.Error("failed to archive journal batch",
				"error", err,
				"batch_size", len(batch),
				"from_index", l.journal.cursor,
			)
			return err
		}
		l.journal.cursor += uint64(len(batch))

		elapsed := time.Since(start)
		l.plugins.EmitJournalFlushed(ctx, len(batch), elapsed)

		l.logger.Debug("archived journal batch",
			"batch_size", len(batch),
			"elapsed_ms", elapsed.Milliseconds(),
		)
	}
}

// PendingArchive returns how many committed transactions are not yet in the
// store.
func (l *Ledger) PendingArchive() uint64 {
	l.journal.mu.Lock()
	cursor := l.journal.cursor
	l.journal.mu.Unlock()

	return l.LogLength() - cursor
}
