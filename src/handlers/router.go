package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// RouterOptions carries the transport settings of NewRouter.
type RouterOptions struct {
	AllowedOrigins    []string
	RateLimitInterval time.Duration
	RateLimitBurst    int
}

func NewRouter(opts RouterOptions, ledgerHandler *LedgerHandler, reportHandler *ReportHandler) *chi.Mux {
	limiter := rate.NewLimiter(rate.Every(opts.RateLimitInterval), opts.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(ContextualLoggerMiddleware)
	r.Use(CORSMiddleware(opts.AllowedOrigins))
	r.Use(RateLimitMiddleware(limiter))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/institutions/{institutionID}/persons", func(r chi.Router) {
			r.Get("/accounts", reportHandler.HandleGetInstitutionSummary)

			r.Route("/{personID}", func(r chi.Router) {
				r.Post("/transfer", reportHandler.HandleTransferPerson)
				r.Get("/accounts", ledgerHandler.HandleGetPersonAccounts)
				r.Post("/accounts/transfer", ledgerHandler.HandleTransferBetweenAccounts)
				r.Put("/accounts/{accountName}", ledgerHandler.HandlePostTransaction)
				r.Get("/accounts/{accountName}/balance", ledgerHandler.HandleGetBalance)
				r.Get("/accounts/{accountName}/transactions", ledgerHandler.HandleGetTransactions)
			})
		})

		r.Get("/persons/{personID}/accounts/{accountName}/transactions", ledgerHandler.HandleGetPersonTransactions)
		r.Get("/transfers/{correlationID}/transactions", ledgerHandler.HandleGetTransferLegs)

		r.Route("/reporting/institutions/{institutionID}", func(r chi.Router) {
			r.Get("/persons/accounts", reportHandler.HandleGetInstitutionSummaryAt)
			r.Get("/transfers", reportHandler.HandleGetTransferSummary)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendJSONError(w, "resource not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}
