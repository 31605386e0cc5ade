package tokenledger

import (
	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/transaction"
	"github.com/xraph/tokenledger/types"
)

// Re-export common types for convenience so users don't have to import the
// leaf packages.

type (
	Amount      = types.Amount
	Account     = account.Account
	Principal   = account.Principal
	Subaccount  = account.Subaccount
	Transaction = transaction.Transaction
)

// Re-export Amount constructors
var (
	NewAmount   = types.NewAmount
	ParseAmount = types.ParseAmount
	Tokens      = types.Tokens
)
