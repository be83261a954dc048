// internal/api/handler/session.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"angpao-ledger/internal/identity"
	"angpao-ledger/internal/navigation"
	"angpao-ledger/internal/service"
	"angpao-ledger/internal/util"
)

// SessionHandler signs the configured user in and out. It stands where
// a real identity provider integration would sit.
type SessionHandler struct {
	provider  *identity.StaticProvider
	service   service.LedgerService
	nav       *navigation.Navigator
	authToken string
	logger    *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(provider *identity.StaticProvider, svc service.LedgerService, nav *navigation.Navigator, authToken string, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		provider:  provider,
		service:   svc,
		nav:       nav,
		authToken: authToken,
		logger:    logger,
	}
}

// SignInRequest carries the shared token for this deployment.
type SignInRequest struct {
	Token string `json:"token"`
}

// SignIn handles POST /session. A fresh sign-in always starts at the
// years level with nothing selected.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	if h.authToken == "" || req.Token != h.authToken {
		respondWithError(w, h.logger, util.ErrPermissionDenied)
		return
	}
	h.provider.SignIn()
	if err := h.service.EnsureUser(r.Context()); err != nil {
		h.provider.SignOut()
		respondWithError(w, h.logger, err)
		return
	}
	state := h.nav.Reset()
	respondWithJSON(w, h.logger, http.StatusOK, state)
}

// SignOut handles DELETE /session, clearing the selection.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.provider.SignOut()
	h.nav.Reset()
	w.WriteHeader(http.StatusNoContent)
}
