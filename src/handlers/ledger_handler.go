package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
	"github.com/username/institutionledger/src/security/validation"
	"github.com/username/institutionledger/src/services"
)

// LedgerEntry is the body of a posting.
type LedgerEntry struct {
	Amount      int64  `json:"amount"`
	Operation   string `json:"operation"`
	ClientRef   string `json:"clientRef"`
	Description string `json:"description"`
	// AccountType is optional; when omitted the type is inferred from the name.
	AccountType string `json:"accountType,omitempty"`
}

// TransferRequest is the body of an internal transfer between a person's accounts.
type TransferRequest struct {
	FromAccountName string `json:"fromAccountName"`
	ToAccountName   string `json:"toAccountName"`
	ToAccountType   string `json:"toAccountType,omitempty"`
	Amount          int64  `json:"amount"`
}

type TransferResponse struct {
	Debit  models.TransactionDetail `json:"debit"`
	Credit models.TransactionDetail `json:"credit"`
}

type LedgerHandler struct {
	ledgerService   services.LedgerService
	transferService services.TransferService
	reportService   services.ReportService
}

func NewLedgerHandler(ledgerService services.LedgerService, transferService services.TransferService, reportService services.ReportService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:   ledgerService,
		transferService: transferService,
		reportService:   reportService,
	}
}

func (h *LedgerHandler) HandlePostTransaction(w http.ResponseWriter, r *http.Request) {
	institutionID, personID, err := personPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	accountName := chi.URLParam(r, "accountName")
	if err := validation.ValidateAccountName(accountName); err != nil {
		handleServiceError(w, r, err)
		return
	}

	var entry LedgerEntry
	if err := decodeJSONBody(w, r, &entry); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validation.ValidatePositiveAmount(entry.Amount, "amount"); err != nil {
		handleServiceError(w, r, err)
		return
	}
	operation, err := models.ParseTransactionType(entry.Operation)
	if err != nil {
		handleServiceError(w, r, withValidation(err))
		return
	}
	accountType, err := resolveAccountType(entry.AccountType, accountName)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validation.ValidateFreeText(entry.Description, validation.MaxDescriptionLength, "description"); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validation.ValidateFreeText(entry.ClientRef, validation.MaxClientReferenceLength, "clientRef"); err != nil {
		handleServiceError(w, r, err)
		return
	}

	posted, err := h.ledgerService.PostTransaction(r.Context(), services.PostRequest{
		InstitutionID:   institutionID,
		PersonID:        personID,
		AccountName:     accountName,
		AccountType:     accountType,
		Operation:       operation,
		Amount:          entry.Amount,
		Description:     validation.CleanFreeText(entry.Description, "description"),
		ClientReference: validation.CleanFreeText(entry.ClientRef, "clientRef"),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	detail := posted.Detail()
	detail.AccountName = accountName
	detail.InstitutionID = institutionID
	sendJSON(w, r, http.StatusOK, detail)
}

func (h *LedgerHandler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	institutionID, personID, accountName, err := accountPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	balance, err := h.ledgerService.BalanceOf(r.Context(), institutionID, personID, accountName)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, balance)
}

func (h *LedgerHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	institutionID, personID, accountName, err := accountPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	dateRange, err := rangeQuery(r, "fromDateTime", "toDateTime")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	details, err := h.ledgerService.TransactionsOf(r.Context(), institutionID, personID, accountName, dateRange)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, details)
}

func (h *LedgerHandler) HandleGetPersonTransactions(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")
	if err := validation.ValidateIdentifier(personID, "personId"); err != nil {
		handleServiceError(w, r, err)
		return
	}
	accountName := chi.URLParam(r, "accountName")
	if err := validation.ValidateAccountName(accountName); err != nil {
		handleServiceError(w, r, err)
		return
	}
	dateRange, err := rangeQuery(r, "fromDateTime", "toDateTime")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	details, err := h.ledgerService.PersonTransactions(r.Context(), personID, accountName, dateRange)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, details)
}

func (h *LedgerHandler) HandleGetPersonAccounts(w http.ResponseWriter, r *http.Request) {
	institutionID, personID, err := personPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	balances, err := h.reportService.PersonAccounts(r.Context(), institutionID, personID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, balances)
}

func (h *LedgerHandler) HandleTransferBetweenAccounts(w http.ResponseWriter, r *http.Request) {
	institutionID, personID, err := personPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req TransferRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validation.ValidateAccountName(req.FromAccountName); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validation.ValidateAccountName(req.ToAccountName); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validation.ValidatePositiveAmount(req.Amount, "amount"); err != nil {
		handleServiceError(w, r, err)
		return
	}
	toType, err := resolveAccountType(req.ToAccountType, req.ToAccountName)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	debit, credit, err := h.transferService.TransferBetweenAccounts(r.Context(), institutionID, personID,
		req.FromAccountName, req.ToAccountName, toType, req.Amount)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := TransferResponse{Debit: debit.Detail(), Credit: credit.Detail()}
	resp.Debit.AccountName, resp.Debit.InstitutionID = req.FromAccountName, institutionID
	resp.Credit.AccountName, resp.Credit.InstitutionID = req.ToAccountName, institutionID
	sendJSON(w, r, http.StatusOK, resp)
}

// resolveAccountType honours an explicit type and falls back to the name
// convention for clients that omit it.
// HandleGetTransferLegs lists the entries sharing a transfer's correlation id.
func (h *LedgerHandler) HandleGetTransferLegs(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationID")
	if err := validation.ValidateIdentifier(correlationID, "correlationId"); err != nil {
		handleServiceError(w, r, err)
		return
	}
	legs, err := h.ledgerService.TransferLegs(r.Context(), correlationID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, legs)
}

func resolveAccountType(explicit, accountName string) (models.AccountType, error) {
	if strings.TrimSpace(explicit) == "" {
		return model.InferAccountType(accountName), nil
	}
	t, err := models.ParseAccountType(explicit)
	if err != nil {
		return "", withValidation(err)
	}
	return t, nil
}
