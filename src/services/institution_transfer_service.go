package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/username/institutionledger/src/logger"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

const migrationDescription = "transfer"

type institutionTransferServiceImpl struct {
	store        Store
	accounts     AccountService
	transactions TransactionService
	transfers    TransferService
	reportCache  *ReportCache
	now          Clock
}

func NewInstitutionTransferService(
	store Store,
	accounts AccountService,
	transactions TransactionService,
	transfers TransferService,
	reportCache *ReportCache,
	now Clock,
) InstitutionTransferService {
	if now == nil {
		now = systemClock
	}
	return &institutionTransferServiceImpl{
		store:        store,
		accounts:     accounts,
		transactions: transactions,
		transfers:    transfers,
		reportCache:  reportCache,
		now:          now,
	}
}

// TransferPersonAccounts moves every OPEN account of the person to the
// destination institution, carrying the full balance and closing the source.
// The whole migration commits or rolls back as one.
func (s *institutionTransferServiceImpl) TransferPersonAccounts(ctx context.Context, personID, fromInstitutionID, toInstitutionID string) (*model.TransferRecord, error) {
	ctxLogger := logger.FromContext(ctx).With("personID", personID, "fromInstitutionID", fromInstitutionID, "toInstitutionID", toInstitutionID)
	if fromInstitutionID == toInstitutionID {
		return nil, fmt.Errorf("%w: source and destination institution are both %s", ErrInvalidTransfer, fromInstitutionID)
	}

	record := &model.TransferRecord{
		PersonID:          personID,
		FromInstitutionID: fromInstitutionID,
		ToInstitutionID:   toInstitutionID,
	}
	moved := 0
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		sources, err := s.accounts.OpenAccounts(ctx, fromInstitutionID, personID)
		if err != nil {
			return err
		}

		record.InitiatedAt = s.now()
		if err := s.store.SaveTransfer(ctx, record); err != nil {
			return err
		}

		for i := range sources {
			source := &sources[i]
			target, err := s.accounts.GetOrCreate(ctx, toInstitutionID, personID, source.AccountName, source.AccountType, &record.ID)
			if err != nil {
				return err
			}
			balance, err := s.transactions.Balance(ctx, source, nil)
			if err != nil {
				return err
			}
			// A zero balance has nothing to carry and a ledger entry must be positive.
			if balance > 0 {
				if _, _, err := s.transfers.TransferFunds(ctx, source, target, balance, migrationDescription); err != nil {
					return fmt.Errorf("move account %s: %w", source.AccountName, err)
				}
			}
			if err := s.accounts.Close(ctx, source); err != nil {
				return err
			}
			moved++
		}

		completedAt := s.now()
		if err := s.store.CompleteTransfer(ctx, record.ID, completedAt); err != nil {
			return err
		}
		record.CompletedAt = model.NullTime{Time: completedAt, Valid: true}
		return nil
	})
	if err != nil {
		ctxLogger.Warn("Person transfer rolled back", "error", err)
		return nil, err
	}

	s.reportCache.InvalidateInstitution(fromInstitutionID)
	s.reportCache.InvalidateInstitution(toInstitutionID)
	ctxLogger.Info("Person accounts transferred", "transferID", record.ID, "accounts", moved)
	return record, nil
}

// TransferSummary groups completed migrations in the range by counterpart
// institution. Amounts are the migrated accounts' balances as of completion.
func (s *institutionTransferServiceImpl) TransferSummary(ctx context.Context, institutionID string, r models.DateRange) (*models.InstitutionTransferSummary, error) {
	cacheKey := fmt.Sprintf(ckTransferSummary, institutionID, r.Key())
	if cached, found := s.reportCache.get(cacheKey); found {
		return cached.(*models.InstitutionTransferSummary), nil
	}
	gen := s.reportCache.generation(institutionID)

	in, err := s.aggregate(ctx, institutionID, models.DirectionIn, r)
	if err != nil {
		return nil, err
	}
	out, err := s.aggregate(ctx, institutionID, models.DirectionOut, r)
	if err != nil {
		return nil, err
	}

	summary := &models.InstitutionTransferSummary{
		TransferredIn:  make([]models.TransferIn, 0, len(in)),
		TransferredOut: make([]models.TransferOut, 0, len(out)),
	}
	for _, g := range in {
		summary.TransferredIn = append(summary.TransferredIn, models.TransferIn{
			FromInstitutionID: g.counterpart,
			PersonIDs:         g.personIDs,
			AmountToRequest:   g.amount,
			AmountDisplay:     models.FormatMinorUnits(g.amount),
		})
	}
	for _, g := range out {
		summary.TransferredOut = append(summary.TransferredOut, models.TransferOut{
			ToInstitutionID:  g.counterpart,
			PersonIDs:        g.personIDs,
			AmountToTransfer: g.amount,
			AmountDisplay:    models.FormatMinorUnits(g.amount),
		})
	}

	s.reportCache.set(institutionID, gen, cacheKey, summary)
	return summary, nil
}

type counterpartGroup struct {
	counterpart string
	personIDs   []string
	amount      int64
}

func (s *institutionTransferServiceImpl) aggregate(ctx context.Context, institutionID string, direction models.TransferDirection, r models.DateRange) ([]counterpartGroup, error) {
	records, err := s.store.FindTransfers(ctx, institutionID, direction, r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	byID := make(map[int64]model.TransferRecord, len(records))
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
		ids = append(ids, rec.ID)
	}
	accounts, err := s.store.FindAccountsByTransfers(ctx, ids)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*counterpartGroup)
	seen := make(map[string]map[string]bool)
	for i := range accounts {
		account := &accounts[i]
		rec := byID[*account.TransferID]
		counterpart := rec.ToInstitutionID
		if direction == models.DirectionIn {
			counterpart = rec.FromInstitutionID
		}

		g, ok := groups[counterpart]
		if !ok {
			g = &counterpartGroup{counterpart: counterpart}
			groups[counterpart] = g
			seen[counterpart] = make(map[string]bool)
		}
		if !seen[counterpart][account.PersonID] {
			seen[counterpart][account.PersonID] = true
			g.personIDs = append(g.personIDs, account.PersonID)
		}

		asOf := rec.CompletedAt.Time
		balance, err := s.transactions.Balance(ctx, account, &asOf)
		if err != nil {
			return nil, err
		}
		g.amount += balance
	}

	result := make([]counterpartGroup, 0, len(groups))
	for _, g := range groups {
		sort.Strings(g.personIDs)
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].counterpart < result[j].counterpart })
	return result, nil
}
