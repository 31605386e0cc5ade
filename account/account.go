// Package account defines account identities and the balance table.
package account

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// SubaccountSize is the fixed length of a subaccount discriminator.
const SubaccountSize = 32

// ErrInvalidAccount is returned when an account or principal cannot be parsed.
var ErrInvalidAccount = errors.New("account: invalid account")

// Principal is an opaque caller identity supplied by the host environment.
// The ledger never interprets its bytes; it only compares them.
type Principal string

// Anonymous is the principal used by unauthenticated callers. The default
// fee collector is owned by it.
const Anonymous Principal = "\x04"

// PrincipalFromBytes copies raw identity bytes into a Principal.
func PrincipalFromBytes(b []byte) Principal { return Principal(b) }

// ParsePrincipal decodes the hex text form produced by String.
func ParsePrincipal(s string) (Principal, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: principal %q: %v", ErrInvalidAccount, s, err)
	}
	return Principal(b), nil
}

// Bytes returns a copy of the raw identity bytes.
func (p Principal) Bytes() []byte { return []byte(p) }

// String returns the hex text form.
func (p Principal) String() string { return hex.EncodeToString([]byte(p)) }

// IsAnonymous reports whether p is the anonymous principal.
func (p Principal) IsAnonymous() bool { return p == Anonymous }

// Subaccount lets one owner control several independent balances.
type Subaccount [SubaccountSize]byte

// DefaultSubaccount is the all-zero discriminator.
var DefaultSubaccount Subaccount

// SubaccountFromBytes right-aligns b into a Subaccount. It fails when b is
// longer than SubaccountSize.
func SubaccountFromBytes(b []byte) (Subaccount, error) {
	var s Subaccount
	if len(b) > SubaccountSize {
		return s, fmt.Errorf("%w: subaccount is %d bytes, max %d", ErrInvalidAccount, len(b), SubaccountSize)
	}
	copy(s[SubaccountSize-len(b):], b)
	return s, nil
}

// IsDefault reports whether s is the all-zero subaccount.
func (s Subaccount) IsDefault() bool { return s == DefaultSubaccount }

// String returns the hex form with leading zero bytes trimmed.
func (s Subaccount) String() string {
	trimmed := strings.TrimLeft(hex.EncodeToString(s[:]), "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// Account addresses a balance. Two accounts are equal iff owner and
// subaccount are both equal, so Account is usable as a map key.
type Account struct {
	Owner      Principal  `json:"owner"`
	Subaccount Subaccount `json:"subaccount"`
}

// New returns the default-subaccount account of owner.
func New(owner Principal) Account { return Account{Owner: owner} }

// WithSubaccount returns owner's account at sub.
func WithSubaccount(owner Principal, sub Subaccount) Account {
	return Account{Owner: owner, Subaccount: sub}
}

// String returns "owner" for default subaccounts and "owner.sub" otherwise.
func (a Account) String() string {
	if a.Subaccount.IsDefault() {
		return a.Owner.String()
	}
	return a.Owner.String() + "." + a.Subaccount.String()
}

// Parse is the inverse of Account.String.
func Parse(s string) (Account, error) {
	ownerText, subText, hasSub := strings.Cut(s, ".")
	owner, err := ParsePrincipal(ownerText)
	if err != nil {
		return Account{}, err
	}
	if !hasSub {
		return New(owner), nil
	}
	if len(subText)%2 == 1 {
		subText = "0" + subText
	}
	raw, err := hex.DecodeString(subText)
	if err != nil {
		return Account{}, fmt.Errorf("%w: subaccount %q: %v", ErrInvalidAccount, subText, err)
	}
	sub, err := SubaccountFromBytes(raw)
	if err != nil {
		return Account{}, err
	}
	return WithSubaccount(owner, sub), nil
}

// MarshalText implements encoding.TextMarshaler using the hex form.
func (p Principal) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(data []byte) error {
	parsed, err := ParsePrincipal(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler as 64 hex characters.
func (s Subaccount) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(s[:])), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Subaccount) UnmarshalText(data []byte) error {
	raw, err := hex.DecodeString(string(data))
	if err != nil {
		return fmt.Errorf("%w: subaccount: %v", ErrInvalidAccount, err)
	}
	parsed, err := SubaccountFromBytes(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
