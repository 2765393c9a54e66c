package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/institutionledger/src/logger"
	"github.com/username/institutionledger/src/security/validation"
	"github.com/username/institutionledger/src/services"
)

func sendJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding JSON response", "path", r.URL.Path, "error", err)
	}
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusFor maps domain and validation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrValidationFailed),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidTransfer),
		errors.Is(err, services.ErrInvalidAccountType),
		errors.Is(err, services.ErrInvalidOperation),
		errors.Is(err, services.ErrDebitNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoSuchAccount),
		errors.Is(err, services.ErrNoSuchTransfer):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAccountClosed),
		errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError writes err to the client. Faults are logged in full and
// reported without internal detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
		sendJSONError(w, "internal server error", code)
		return
	}
	sendJSONError(w, err.Error(), code)
}

const maxBodyBytes = 1 << 20

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", validation.ErrValidationFailed, err)
	}
	return nil
}
