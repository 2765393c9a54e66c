package handlers

import (
	"net/http"

	"github.com/username/institutionledger/src/logger"
	"github.com/username/institutionledger/src/security/validation"
	"github.com/username/institutionledger/src/services"
)

// ReportHandler serves institution summaries and person migrations.
type ReportHandler struct {
	reportService              services.ReportService
	institutionTransferService services.InstitutionTransferService
}

func NewReportHandler(reportService services.ReportService, institutionTransferService services.InstitutionTransferService) *ReportHandler {
	return &ReportHandler{
		reportService:              reportService,
		institutionTransferService: institutionTransferService,
	}
}

func (h *ReportHandler) HandleGetInstitutionSummary(w http.ResponseWriter, r *http.Request) {
	institutionID, err := institutionPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	summary, err := h.reportService.InstitutionSummary(r.Context(), institutionID, nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, summary)
}

// HandleGetInstitutionSummaryAt requires the "atDateTime" query parameter.
func (h *ReportHandler) HandleGetInstitutionSummaryAt(w http.ResponseWriter, r *http.Request) {
	institutionID, err := institutionPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	at, err := validation.ValidateTimestamp(r.URL.Query().Get("atDateTime"), "atDateTime")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	summary, err := h.reportService.InstitutionSummary(r.Context(), institutionID, &at)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, summary)
}

func (h *ReportHandler) HandleGetTransferSummary(w http.ResponseWriter, r *http.Request) {
	institutionID, err := institutionPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	dateRange, err := rangeQuery(r, "fromDateTime", "toDateTime")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	summary, err := h.institutionTransferService.TransferSummary(r.Context(), institutionID, dateRange)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, summary)
}

func (h *ReportHandler) HandleTransferPerson(w http.ResponseWriter, r *http.Request) {
	fromInstitutionID, personID, err := personPath(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	toInstitutionID := r.URL.Query().Get("toInstitutionId")
	if err := validation.ValidateIdentifier(toInstitutionID, "toInstitutionId"); err != nil {
		handleServiceError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("Person transfer requested",
		"personID", personID, "fromInstitutionID", fromInstitutionID, "toInstitutionID", toInstitutionID)
	record, err := h.institutionTransferService.TransferPersonAccounts(r.Context(), personID, fromInstitutionID, toInstitutionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, record)
}
