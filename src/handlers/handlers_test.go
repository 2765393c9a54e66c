package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/institutionledger/src/database"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
	"github.com/username/institutionledger/src/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))

	store := database.NewStore(db)
	reportCache := services.NewReportCache(time.Minute, time.Minute)
	accounts := services.NewAccountService(store, nil)
	transactions := services.NewTransactionService(store, nil)
	ledger := services.NewLedgerService(store, accounts, transactions, reportCache)
	transfers := services.NewTransferService(store, accounts, transactions, reportCache)
	migrations := services.NewInstitutionTransferService(store, accounts, transactions, transfers, reportCache, nil)
	reports := services.NewReportService(store, accounts, transactions, reportCache)

	router := NewRouter(RouterOptions{
		AllowedOrigins:    []string{"http://localhost:3000"},
		RateLimitInterval: time.Millisecond,
		RateLimitBurst:    1000,
	}, NewLedgerHandler(ledger, transfers, reports), NewReportHandler(reports, migrations))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, rawURL string, body any, out any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, rawURL, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func accountURL(srv *httptest.Server, institutionID, personID, accountName string) string {
	return srv.URL + "/api/institutions/" + institutionID + "/persons/" + personID + "/accounts/" + url.PathEscape(accountName)
}

func TestPostAndReadBack(t *testing.T) {
	srv := newTestServer(t)
	cash := accountURL(srv, "MDI", "A1234AA", "cash")

	var detail models.TransactionDetail
	resp := doJSON(t, http.MethodPut, cash, LedgerEntry{Amount: 1000, Operation: "CREDIT", ClientRef: "c-1", Description: "<b>wages</b>"}, &detail)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "wages", detail.Description)
	assert.Equal(t, "c-1", detail.ClientReference)
	assert.Equal(t, "10.00", detail.AmountDisplay)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = doJSON(t, http.MethodPut, cash, LedgerEntry{Amount: 1, Operation: "debit", ClientRef: "c-2"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var balance models.Balance
	resp = doJSON(t, http.MethodGet, cash+"/balance", nil, &balance)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.Balance{AccountName: "cash", Amount: 999, AmountDisplay: "9.99"}, balance)

	var details []models.TransactionDetail
	resp = doJSON(t, http.MethodGet, cash+"/transactions", nil, &details)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, details, 2)
	assert.Equal(t, models.TransactionDebit, details[1].TransactionType)

	future := url.QueryEscape(time.Now().Add(time.Hour).UTC().Format(time.RFC3339))
	resp = doJSON(t, http.MethodGet, cash+"/transactions?fromDateTime="+future, nil, &details)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, details)

	resp = doJSON(t, http.MethodGet, cash+"/transactions?toDateTime="+future, nil, &details)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, details, 2)

	past := url.QueryEscape(time.Now().Add(-time.Hour).UTC().Format(time.RFC3339))
	resp = doJSON(t, http.MethodGet, cash+"/transactions?fromDateTime="+future+"&toDateTime="+past, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostingErrorsMapToStatusCodes(t *testing.T) {
	srv := newTestServer(t)
	cash := accountURL(srv, "MDI", "A1234AA", "cash")
	savings := accountURL(srv, "MDI", "A1234AA", "savings")
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, cash, LedgerEntry{Amount: 1, Operation: "CREDIT"}, nil).StatusCode)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, savings, LedgerEntry{Amount: 1000, Operation: "CREDIT"}, nil).StatusCode)

	tests := []struct {
		name     string
		url      string
		body     any
		wantCode int
	}{
		{"insufficient funds", cash, LedgerEntry{Amount: 10, Operation: "DEBIT"}, http.StatusConflict},
		{"savings debit", savings, LedgerEntry{Amount: 1, Operation: "DEBIT"}, http.StatusBadRequest},
		{"zero amount", cash, LedgerEntry{Amount: 0, Operation: "CREDIT"}, http.StatusBadRequest},
		{"unknown operation", cash, LedgerEntry{Amount: 5, Operation: "REFUND"}, http.StatusBadRequest},
		{"unknown account type", cash, LedgerEntry{Amount: 5, Operation: "CREDIT", AccountType: "CURRENT"}, http.StatusBadRequest},
		{"bad identifier", accountURL(srv, "MDI", "A1234AA%7Cx", "cash"), LedgerEntry{Amount: 5, Operation: "CREDIT"}, http.StatusBadRequest},
		{"unknown field", cash, map[string]any{"amount": 5, "operation": "CREDIT", "currency": "GBP"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPut, tc.url, tc.body, nil)
			assert.Equal(t, tc.wantCode, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(t, resp))
		})
	}

	var balance models.Balance
	doJSON(t, http.MethodGet, cash+"/balance", nil, &balance)
	assert.Equal(t, int64(1), balance.Amount)
}

func TestUnknownAccountIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, accountURL(srv, "MDI", "A1234AA", "cash")+"/balance", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/institutions/MDI/persons/A1234AA/accounts", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInternalTransferEndpoint(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, accountURL(srv, "MDI", "A1234AA", "cash"), LedgerEntry{Amount: 500, Operation: "CREDIT"}, nil).StatusCode)

	transferURL := srv.URL + "/api/institutions/MDI/persons/A1234AA/accounts/transfer"
	var out TransferResponse
	resp := doJSON(t, http.MethodPost, transferURL, TransferRequest{FromAccountName: "cash", ToAccountName: "spends", Amount: 200}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, out.Debit.ClientReference, out.Credit.ClientReference)
	assert.Equal(t, "spends", out.Credit.AccountName)

	var balances []models.Balance
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/institutions/MDI/persons/A1234AA/accounts", nil, &balances)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []models.Balance{
		{AccountName: "cash", Amount: 300, AmountDisplay: "3.00"},
		{AccountName: "spends", Amount: 200, AmountDisplay: "2.00"},
	}, balances)

	resp = doJSON(t, http.MethodPost, transferURL, TransferRequest{FromAccountName: "missing", ToAccountName: "spends", Amount: 1}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var legs []models.TransactionDetail
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transfers/"+out.Debit.ClientReference+"/transactions", nil, &legs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, legs, 2)
	assert.Equal(t, out.Debit.TransactionID, legs[0].TransactionID)
	assert.Equal(t, out.Credit.TransactionID, legs[1].TransactionID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transfers/unknown-reference/transactions", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPersonTransferAndReports(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, accountURL(srv, "MDI", "A1234AA", "cash"), LedgerEntry{Amount: 800, Operation: "CREDIT"}, nil).StatusCode)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, accountURL(srv, "MDI", "A1234AA", "savings"), LedgerEntry{Amount: 200, Operation: "CREDIT"}, nil).StatusCode)
	before := time.Now().UTC()

	var summary models.InstitutionSummary
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/institutions/MDI/persons/accounts", nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, summary["A1234AA"], 2)

	var record model.TransferRecord
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/institutions/MDI/persons/A1234AA/transfer?toInstitutionId=LEI", nil, &record)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "LEI", record.ToInstitutionID)
	assert.True(t, record.CompletedAt.Valid)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/institutions/MDI/persons/A1234AA/transfer?toInstitutionId=MDI", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/institutions/MDI/persons/A1234AA/transfer", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	summary = nil
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/institutions/MDI/persons/accounts", nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, summary)

	at := url.QueryEscape(before.Add(time.Second).Format(time.RFC3339))
	summary = nil
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/reporting/institutions/MDI/persons/accounts?atDateTime="+at, nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, summary["A1234AA"], 2)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/reporting/institutions/MDI/persons/accounts", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var transfers models.InstitutionTransferSummary
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/reporting/institutions/LEI/transfers", nil, &transfers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, transfers.TransferredIn, 1)
	assert.Equal(t, "MDI", transfers.TransferredIn[0].FromInstitutionID)
	assert.Equal(t, []string{"A1234AA"}, transfers.TransferredIn[0].PersonIDs)
	assert.Equal(t, int64(1000), transfers.TransferredIn[0].AmountToRequest)
	assert.Empty(t, transfers.TransferredOut)

	var history []models.TransactionDetail
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/persons/A1234AA/accounts/cash/transactions", nil, &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, history, 3)
}

func TestHealthAndCORS(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/institutions/MDI/persons/accounts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	preflight, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer preflight.Body.Close()
	assert.Equal(t, http.StatusOK, preflight.StatusCode)
	assert.Equal(t, "http://localhost:3000", preflight.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(services.ErrAccountClosed))
	assert.Equal(t, http.StatusNotFound, statusFor(services.ErrNoSuchAccount))
	assert.Equal(t, http.StatusNotFound, statusFor(services.ErrNoSuchTransfer))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
