// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"angpao-ledger/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(
	ledger *handler.LedgerHandler,
	nav *handler.NavigationHandler,
	session *handler.SessionHandler,
	events *handler.EventsHandler,
	authToken string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Session endpoints authenticate by token in the body, not header.
	r.Post("/session", session.SignIn)
	r.Delete("/session", session.SignOut)

	// Everything else requires the bearer token. Whether a session is
	// active is the identity provider's call, enforced in the service.
	r.Group(func(r chi.Router) {
		r.Use(requireToken(authToken))

		// The event stream stays open, so it skips the request timeout.
		r.Get("/events", events.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(handler.DefaultTimeout))

			r.Route("/years", func(r chi.Router) {
				r.Get("/", ledger.ListYears)
				r.Post("/", ledger.AddYear)
				r.Route("/{yearID}", func(r chi.Router) {
					r.Delete("/", ledger.DeleteYear)
					r.Post("/resync", ledger.ResyncYear)
					r.Route("/days", func(r chi.Router) {
						r.Get("/", ledger.ListDays)
						r.Post("/", ledger.AddDay)
						r.Route("/{dayID}", func(r chi.Router) {
							r.Delete("/", ledger.DeleteDay)
							r.Route("/visits", func(r chi.Router) {
								r.Get("/", ledger.ListVisits)
								r.Post("/", ledger.AddVisit)
								r.Route("/{visitID}", func(r chi.Router) {
									r.Delete("/", ledger.DeleteVisit)
									r.Route("/entries", func(r chi.Router) {
										r.Get("/", ledger.ListEntries)
										r.Post("/", ledger.AddEntry)
										r.Delete("/{entryID}", ledger.DeleteEntry)
									})
								})
							})
						})
					})
				})
			})

			r.Route("/navigation", func(r chi.Router) {
				r.Get("/", nav.State)
				r.Post("/year", nav.SelectYear)
				r.Post("/day", nav.SelectDay)
				r.Post("/visit", nav.SelectVisit)
				r.Post("/back", nav.Back)
			})
		})
	})

	return r
}

// requireToken rejects requests without the deployment's bearer token.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if token == "" || !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized","code":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
