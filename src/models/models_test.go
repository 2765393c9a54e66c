package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRangeKinds(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, RangeNone, NewDateRange(nil, nil).Kind())
	assert.Equal(t, RangeFromOnly, NewDateRange(&jan, nil).Kind())
	assert.Equal(t, RangeToOnly, NewDateRange(nil, &mar).Kind())
	assert.Equal(t, RangeBoth, NewDateRange(&jan, &mar).Kind())

	assert.True(t, Unbounded().Contains(feb))
	assert.True(t, Since(feb).Contains(feb), "lower bound is inclusive")
	assert.False(t, Since(feb).Contains(jan))
	assert.True(t, Until(feb).Contains(feb), "upper bound is inclusive")
	assert.False(t, Until(feb).Contains(mar))
	assert.True(t, Between(jan, mar).Contains(feb))
	assert.False(t, Between(feb, mar).Contains(jan))
}

func TestDateRangeKeyDistinguishesKinds(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	keys := map[string]bool{
		Unbounded().Key():     true,
		Since(ts).Key():       true,
		Until(ts).Key():       true,
		Between(ts, ts).Key(): true,
	}
	assert.Len(t, keys, 4)
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "9.99", FormatMinorUnits(999))
	assert.Equal(t, "0.01", FormatMinorUnits(1))
	assert.Equal(t, "20.00", FormatMinorUnits(2000))
	assert.Equal(t, "-1.50", FormatMinorUnits(-150))
}

func TestParseEnums(t *testing.T) {
	at, err := ParseAccountType("savings")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeSavings, at)

	_, err = ParseAccountType("checking")
	assert.Error(t, err)

	op, err := ParseTransactionType(" debit ")
	require.NoError(t, err)
	assert.Equal(t, TransactionDebit, op)

	_, err = ParseTransactionType("refund")
	assert.Error(t, err)
}
