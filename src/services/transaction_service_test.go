package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

func TestAppendRejectsNonPositiveAmounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, err := env.accounts.GetOrCreate(ctx, "MDI", "A1234AA", "cash", models.AccountTypeFullAccess, nil)
	require.NoError(t, err)

	for _, amount := range []int64{0, -5} {
		_, err := env.transactions.Append(ctx, account, models.TransactionCredit, amount, "bad", "ref")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	txs, err := env.transactions.Query(ctx, account, models.Unbounded())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestQueryRangesAreInclusive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, err := env.accounts.GetOrCreate(ctx, "MDI", "A1234AA", "cash", models.AccountTypeFullAccess, nil)
	require.NoError(t, err)

	var posted []*model.Transaction
	for i := int64(1); i <= 4; i++ {
		tx, err := env.transactions.Append(ctx, account, models.TransactionCredit, i*100, "wages", "ref")
		require.NoError(t, err)
		posted = append(posted, tx)
	}

	ids := func(txs []model.Transaction) []int64 {
		out := make([]int64, 0, len(txs))
		for _, tx := range txs {
			out = append(out, tx.ID)
		}
		return out
	}

	tests := []struct {
		name string
		r    models.DateRange
		want []int64
	}{
		{"unbounded", models.Unbounded(), []int64{posted[0].ID, posted[1].ID, posted[2].ID, posted[3].ID}},
		{"from only", models.Since(posted[2].Timestamp), []int64{posted[2].ID, posted[3].ID}},
		{"to only", models.Until(posted[1].Timestamp), []int64{posted[0].ID, posted[1].ID}},
		{"both", models.Between(posted[1].Timestamp, posted[2].Timestamp), []int64{posted[1].ID, posted[2].ID}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			txs, err := env.transactions.Query(ctx, account, tc.r)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(txs))
		})
	}
}

func TestBalanceIsCreditsMinusDebitsAsOf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, err := env.accounts.GetOrCreate(ctx, "MDI", "A1234AA", "cash", models.AccountTypeFullAccess, nil)
	require.NoError(t, err)

	credit, err := env.transactions.Append(ctx, account, models.TransactionCredit, 1000, "wages", "r1")
	require.NoError(t, err)
	debit, err := env.transactions.Append(ctx, account, models.TransactionDebit, 250, "canteen", "r2")
	require.NoError(t, err)
	_, err = env.transactions.Append(ctx, account, models.TransactionCredit, 40, "refund", "r3")
	require.NoError(t, err)

	beforeAll := credit.Timestamp.Add(-1)
	balance, err := env.transactions.Balance(ctx, account, &beforeAll)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	balance, err = env.transactions.Balance(ctx, account, &credit.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	balance, err = env.transactions.Balance(ctx, account, &debit.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance)

	balance, err = env.transactions.Balance(ctx, account, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(790), balance)
}
