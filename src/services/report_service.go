package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

type reportServiceImpl struct {
	accounts     AccountService
	transactions TransactionService
	store        Store
	reportCache  *ReportCache
}

func NewReportService(store Store, accounts AccountService, transactions TransactionService, reportCache *ReportCache) ReportService {
	return &reportServiceImpl{
		accounts:     accounts,
		transactions: transactions,
		store:        store,
		reportCache:  reportCache,
	}
}

// InstitutionSummary reports every person's accounts at the institution.
// Without at, OPEN accounts with current balances; with at, every account
// created before at with its status and balance as of that instant.
func (s *reportServiceImpl) InstitutionSummary(ctx context.Context, institutionID string, at *time.Time) (models.InstitutionSummary, error) {
	cacheKey := fmt.Sprintf(ckSummaryCurrent, institutionID)
	if at != nil {
		cacheKey = fmt.Sprintf(ckSummaryAt, institutionID, at.UTC().Format(time.RFC3339Nano))
	}
	if cached, found := s.reportCache.get(cacheKey); found {
		return cached.(models.InstitutionSummary), nil
	}
	gen := s.reportCache.generation(institutionID)

	accounts, err := s.store.FindAccountsByInstitution(ctx, institutionID, at)
	if err != nil {
		return nil, err
	}

	summary := make(models.InstitutionSummary)
	for i := range accounts {
		account := &accounts[i]
		state, err := s.accountState(ctx, account, at)
		if err != nil {
			return nil, err
		}
		summary[account.PersonID] = append(summary[account.PersonID], state)
	}

	s.reportCache.set(institutionID, gen, cacheKey, summary)
	return summary, nil
}

func (s *reportServiceImpl) accountState(ctx context.Context, account *model.Account, at *time.Time) (models.AccountState, error) {
	status := account.Status
	if at != nil {
		status = s.accounts.HistoricStatus(account, *at)
	}
	balance, err := s.transactions.Balance(ctx, account, at)
	if err != nil {
		return models.AccountState{}, err
	}
	return models.AccountState{
		AccountName:   account.AccountName,
		Amount:        balance,
		AmountDisplay: models.FormatMinorUnits(balance),
		Status:        status,
	}, nil
}

func (s *reportServiceImpl) PersonAccounts(ctx context.Context, institutionID, personID string) ([]models.Balance, error) {
	accounts, err := s.accounts.OpenAccounts(ctx, institutionID, personID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %s has no open accounts at %s", ErrNoSuchAccount, personID, institutionID)
	}
	balances := make([]models.Balance, 0, len(accounts))
	for i := range accounts {
		amount, err := s.transactions.Balance(ctx, &accounts[i], nil)
		if err != nil {
			return nil, err
		}
		balances = append(balances, models.NewBalance(accounts[i].AccountName, amount))
	}
	return balances, nil
}
