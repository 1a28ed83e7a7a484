package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/payone-bridge/handler"
)

// Routes registers the admin API routes
func Routes(r chi.Router, settings *handler.SettingsHandler, payments *handler.PaymentHandler, history *handler.HistoryHandler) {
	r.Get("/settings", settings.GetSettings)
	r.Put("/settings", settings.UpdateSettings)

	r.Get("/transaction-history", history.GetTransactionHistory)
	r.Post("/test-connection", payments.TestConnection)

	r.Post("/preauthorization", payments.Preauthorization)
	r.Post("/authorization", payments.Authorization)
	r.Post("/capture", payments.Capture)
	r.Post("/refund", payments.Refund)
}

// PaymentRoutes registers the externally callable payment surface. Same
// operations as the admin surface, gated by the API-token check instead of
// the admin key.
func PaymentRoutes(r chi.Router, payments *handler.PaymentHandler) {
	r.Post("/preauthorization", payments.Preauthorization)
	r.Post("/authorization", payments.Authorization)
	r.Post("/capture", payments.Capture)
	r.Post("/refund", payments.Refund)
	r.Post("/test-connection", payments.TestConnection)
}
