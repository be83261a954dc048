// internal/api/handler/navigation.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"angpao-ledger/internal/navigation"
	"angpao-ledger/internal/service"
	"angpao-ledger/internal/util"
)

// NavigationHandler exposes the selection state machine. Each select
// validates the target node against the store before transitioning, so
// the state can never point at a node that does not exist.
type NavigationHandler struct {
	nav     *navigation.Navigator
	service service.LedgerService
	logger  *slog.Logger
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(nav *navigation.Navigator, svc service.LedgerService, logger *slog.Logger) *NavigationHandler {
	return &NavigationHandler{nav: nav, service: svc, logger: logger}
}

// SelectRequest names the node to select at the current level.
type SelectRequest struct {
	ID string `json:"id"`
}

// State handles GET /navigation.
func (h *NavigationHandler) State(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, h.logger, http.StatusOK, h.nav.State())
}

// SelectYear handles POST /navigation/year.
func (h *NavigationHandler) SelectYear(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	if h.nav.State().Level != navigation.LevelYears {
		respondWithError(w, h.logger, navigation.ErrInvalidTransition)
		return
	}
	year, err := h.service.GetYear(r.Context(), req.ID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	state, err := h.nav.SelectYear(year.ID, strconv.Itoa(year.Year))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, state)
}

// SelectDay handles POST /navigation/day.
func (h *NavigationHandler) SelectDay(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	st := h.nav.State()
	if st.Level != navigation.LevelDays || st.Year == nil {
		respondWithError(w, h.logger, navigation.ErrInvalidTransition)
		return
	}
	day, err := h.service.GetDay(r.Context(), st.Year.ID, req.ID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	state, err := h.nav.SelectDay(day.ID, day.Name)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, state)
}

// SelectVisit handles POST /navigation/visit.
func (h *NavigationHandler) SelectVisit(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	st := h.nav.State()
	if st.Level != navigation.LevelVisits || st.Year == nil || st.Day == nil {
		respondWithError(w, h.logger, navigation.ErrInvalidTransition)
		return
	}
	visit, err := h.service.GetVisit(r.Context(), st.Year.ID, st.Day.ID, req.ID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	state, err := h.nav.SelectVisit(visit.ID, visit.Name)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, state)
}

// Back handles POST /navigation/back.
func (h *NavigationHandler) Back(w http.ResponseWriter, r *http.Request) {
	state, err := h.nav.Back()
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, state)
}
