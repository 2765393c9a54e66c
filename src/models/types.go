package models

import (
	"fmt"
	"strings"
)

// AccountType decides which operations an account accepts through the posting path.
type AccountType string

const (
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeFullAccess AccountType = "FULL_ACCESS"
)

// ParseAccountType accepts either enum spelling, case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(strings.ToUpper(strings.TrimSpace(s))) {
	case AccountTypeSavings:
		return AccountTypeSavings, nil
	case AccountTypeFullAccess:
		return AccountTypeFullAccess, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

type AccountStatus string

const (
	AccountStatusOpen   AccountStatus = "OPEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

// ParseTransactionType is used for the "operation" field of posting requests.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionCredit:
		return TransactionCredit, nil
	case TransactionDebit:
		return TransactionDebit, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// TransferDirection selects transfer records relative to one institution.
type TransferDirection int

const (
	// DirectionIn matches transfers whose destination is the institution.
	DirectionIn TransferDirection = iota
	// DirectionOut matches transfers whose source is the institution.
	DirectionOut
)

func (d TransferDirection) String() string {
	if d == DirectionIn {
		return "in"
	}
	return "out"
}
