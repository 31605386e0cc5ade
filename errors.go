package tokenledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/tokenledger/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("tokenledger: invalid input")

	// Ledger errors
	ErrOverflow            = types.ErrOverflow
	ErrMemoTooLong         = errors.New("tokenledger: memo too long")
	ErrTransactionNotFound = errors.New("tokenledger: transaction not found")
	ErrLedgerStopped       = errors.New("tokenledger: ledger stopped")
	ErrLedgerStarted       = errors.New("tokenledger: ledger already started")

	// Transfer rejection kinds, matched with errors.Is against *TransferError.
	ErrBadFee                 = errors.New("tokenledger: bad fee")
	ErrCreatedInFuture        = errors.New("tokenledger: created in future")
	ErrTooOld                 = errors.New("tokenledger: too old")
	ErrExpired                = errors.New("tokenledger: expired")
	ErrDuplicate              = errors.New("tokenledger: duplicate")
	ErrTemporarilyUnavailable = errors.New("tokenledger: temporarily unavailable")
	ErrInsufficientFunds      = errors.New("tokenledger: insufficient funds")

	// Store errors
	ErrStoreNotReady   = errors.New("tokenledger: store not ready")
	ErrStoreClosed     = errors.New("tokenledger: store is closed")
	ErrMigrationFailed = errors.New("tokenledger: migration failed")
)

// TransferErrorKind names one business rejection of a transfer or burn.
type TransferErrorKind string

const (
	BadFee                 TransferErrorKind = "BadFee"
	CreatedInFuture        TransferErrorKind = "CreatedInFuture"
	TooOld                 TransferErrorKind = "TooOld"
	Expired                TransferErrorKind = "Expired"
	Duplicate              TransferErrorKind = "Duplicate"
	TemporarilyUnavailable TransferErrorKind = "TemporarilyUnavailable"
	InsufficientFunds      TransferErrorKind = "InsufficientFunds"
)

var kindSentinels = map[TransferErrorKind]error{
	BadFee:                 ErrBadFee,
	CreatedInFuture:        ErrCreatedInFuture,
	TooOld:                 ErrTooOld,
	Expired:                ErrExpired,
	Duplicate:              ErrDuplicate,
	TemporarilyUnavailable: ErrTemporarilyUnavailable,
	InsufficientFunds:      ErrInsufficientFunds,
}

// TransferError is a business rejection returned as a value. Only the
// payload field belonging to Kind is meaningful: LedgerTime for
// CreatedInFuture, DuplicateOf for Duplicate, Balance for InsufficientFunds.
type TransferError struct {
	Kind        TransferErrorKind `json:"kind"`
	LedgerTime  time.Time         `json:"ledger_time,omitempty"`
	DuplicateOf uint64            `json:"duplicate_of,omitempty"`
	Balance     types.Amount      `json:"balance,omitempty"`
}

func NewBadFee() *TransferError { return &TransferError{Kind: BadFee} }

func NewCreatedInFuture(ledgerTime time.Time) *TransferError {
	return &TransferError{Kind: CreatedInFuture, LedgerTime: ledgerTime}
}

func NewTooOld() *TransferError { return &TransferError{Kind: TooOld} }

func NewExpired() *TransferError { return &TransferError{Kind: Expired} }

func NewDuplicate(of uint64) *TransferError {
	return &TransferError{Kind: Duplicate, DuplicateOf: of}
}

func NewTemporarilyUnavailable() *TransferError {
	return &TransferError{Kind: TemporarilyUnavailable}
}

func NewInsufficientFunds(balance types.Amount) *TransferError {
	return &TransferError{Kind: InsufficientFunds, Balance: balance}
}

func (e *TransferError) Error() string {
	switch e.Kind {
	case CreatedInFuture:
		return fmt.Sprintf("tokenledger: transfer rejected: %s (ledger time %s)", e.Kind, e.LedgerTime.Format(time.RFC3339Nano))
	case Duplicate:
		return fmt.Sprintf("tokenledger: transfer rejected: %s of %d", e.Kind, e.DuplicateOf)
	case InsufficientFunds:
		return fmt.Sprintf("tokenledger: transfer rejected: %s (balance %s)", e.Kind, e.Balance)
	default:
		return fmt.Sprintf("tokenledger: transfer rejected: %s", e.Kind)
	}
}

// Is matches the sentinel for e.Kind, and any *TransferError of the same kind.
func (e *TransferError) Is(target error) bool {
	if t, ok := target.(*TransferError); ok {
		return t.Kind == e.Kind
	}
	return kindSentinels[e.Kind] == target
}

// AsTransferError extracts a *TransferError from err's chain.
func AsTransferError(err error) (*TransferError, bool) {
	var te *TransferError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// ValidationError rejects a malformed argument before any state is read.
// It matches ErrInvalidInput and, when set, Err.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("tokenledger: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Err}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTransactionNotFound)
}

// IsBusinessError returns true if err is a transfer rejection the caller
// should surface to the end user.
func IsBusinessError(err error) bool {
	_, ok := AsTransferError(err)
	return ok
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTemporarilyUnavailable) ||
		errors.Is(err, ErrCreatedInFuture) ||
		errors.Is(err, ErrStoreNotReady)
}
