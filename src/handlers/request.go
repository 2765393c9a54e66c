package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/institutionledger/src/models"
	"github.com/username/institutionledger/src/security/validation"
)

func withValidation(err error) error {
	return fmt.Errorf("%w: %v", validation.ErrValidationFailed, err)
}

func institutionPath(r *http.Request) (string, error) {
	institutionID := chi.URLParam(r, "institutionID")
	if err := validation.ValidateIdentifier(institutionID, "institutionId"); err != nil {
		return "", err
	}
	return institutionID, nil
}

func personPath(r *http.Request) (institutionID, personID string, err error) {
	if institutionID, err = institutionPath(r); err != nil {
		return "", "", err
	}
	personID = chi.URLParam(r, "personID")
	if err = validation.ValidateIdentifier(personID, "personId"); err != nil {
		return "", "", err
	}
	return institutionID, personID, nil
}

func accountPath(r *http.Request) (institutionID, personID, accountName string, err error) {
	if institutionID, personID, err = personPath(r); err != nil {
		return "", "", "", err
	}
	accountName = chi.URLParam(r, "accountName")
	if err = validation.ValidateAccountName(accountName); err != nil {
		return "", "", "", err
	}
	return institutionID, personID, accountName, nil
}

// rangeQuery reads an optional inclusive window from two RFC3339 query parameters.
func rangeQuery(r *http.Request, fromParam, toParam string) (models.DateRange, error) {
	q := r.URL.Query()
	from, err := validation.ValidateOptionalTimestamp(q.Get(fromParam), fromParam)
	if err != nil {
		return models.DateRange{}, err
	}
	to, err := validation.ValidateOptionalTimestamp(q.Get(toParam), toParam)
	if err != nil {
		return models.DateRange{}, err
	}
	if err := validation.ValidateDateRange(from, to); err != nil {
		return models.DateRange{}, err
	}
	return models.NewDateRange(from, to), nil
}
