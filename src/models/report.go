package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// minorUnitExponent converts pence to pounds.
const minorUnitExponent = -2

// FormatMinorUnits renders an integer minor-unit amount as a fixed two-decimal string.
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, minorUnitExponent).StringFixed(2)
}

// Balance is the current balance of one named account.
type Balance struct {
	AccountName   string `json:"accountName"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amountDisplay"`
}

func NewBalance(accountName string, amount int64) Balance {
	return Balance{AccountName: accountName, Amount: amount, AmountDisplay: FormatMinorUnits(amount)}
}

// AccountState is one row of an institution summary, current or point-in-time.
type AccountState struct {
	AccountName   string        `json:"accountName"`
	Amount        int64         `json:"amount"`
	AmountDisplay string        `json:"amountDisplay"`
	Status        AccountStatus `json:"accountStatus"`
}

// InstitutionSummary maps person id to that person's account states.
type InstitutionSummary map[string][]AccountState

// TransactionDetail is the client-facing view of a ledger entry.
type TransactionDetail struct {
	TransactionID   int64           `json:"transactionId"`
	AccountName     string          `json:"accountName,omitempty"`
	InstitutionID   string          `json:"institutionId,omitempty"`
	Description     string          `json:"description"`
	ClientReference string          `json:"clientReference"`
	TransactionType TransactionType `json:"transactionType"`
	Amount          int64           `json:"amount"`
	AmountDisplay   string          `json:"amountDisplay"`
	Timestamp       time.Time       `json:"timestamp"`
}

// TransferIn aggregates migrations into an institution from one counterpart.
type TransferIn struct {
	FromInstitutionID string   `json:"fromInstitutionId"`
	PersonIDs         []string `json:"personIds"`
	AmountToRequest   int64    `json:"amountToRequest"`
	AmountDisplay     string   `json:"amountDisplay"`
}

// TransferOut aggregates migrations out of an institution to one counterpart.
type TransferOut struct {
	ToInstitutionID  string   `json:"toInstitutionId"`
	PersonIDs        []string `json:"personIds"`
	AmountToTransfer int64    `json:"amountToTransfer"`
	AmountDisplay    string   `json:"amountDisplay"`
}

type InstitutionTransferSummary struct {
	TransferredIn  []TransferIn  `json:"transferredIn"`
	TransferredOut []TransferOut `json:"transferredOut"`
}
