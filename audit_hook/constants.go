package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionLedgerStarted = "ledger.started"
	ActionLedgerStopped = "ledger.stopped"

	// Transaction actions
	ActionTransferApplied  = "transfer.applied"
	ActionMintApplied      = "mint.applied"
	ActionBurnApplied      = "burn.applied"
	ActionTransferRejected = "transfer.rejected"

	// Journal actions
	ActionJournalFlushed = "journal.flushed"
)

// Resource constants for audit events.
const (
	ResourceLedger      = "ledger"
	ResourceTransaction = "transaction"
	ResourceJournal     = "journal"
)

// Category constants for audit events.
const (
	CategoryLifecycle = "lifecycle"
	CategoryTransfer  = "transfer"
	CategorySupply    = "supply"
	CategoryArchive   = "archive"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
