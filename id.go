package tokenledger

import "github.com/xraph/tokenledger/id"

// ID is the primary identifier type for ledger records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
