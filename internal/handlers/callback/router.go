package callback

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the inbound callback surface: the gateway's
// server-to-server notification, the customer's browser return from the
// hosted form, and the ACS return completing a 3-D Secure challenge.
func NewRouter(
	notification *NotificationHandler,
	redirect *RedirectHandler,
	acs *ACSHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/callback", func(r chi.Router) {
		// The gateway delivers the server result as POST form data or, for
		// GET result delivery, as query parameters
		r.Post("/notification", notification.HandleNotification)
		r.Get("/notification", notification.HandleNotification)
		r.Get("/redirect", redirect.HandleRedirect)
		r.Post("/redirect", redirect.HandleRedirect)
		r.Post("/acs/{orderID}", acs.HandleReturn)
		r.Post("/acs/{orderID}/abandon", acs.HandleAbandon)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
