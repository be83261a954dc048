// internal/api/handler/ledger.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"angpao-ledger/internal/api/types"
	"angpao-ledger/internal/domain"
	"angpao-ledger/internal/service"
	"angpao-ledger/internal/util"
)

// LedgerHandler handles HTTP requests for the hierarchy levels.
type LedgerHandler struct {
	service service.LedgerService
	logger  *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{service: svc, logger: logger}
}

// AddYearRequest is the request body for year creation.
type AddYearRequest struct {
	Year int `json:"year"`
}

// AddYear handles POST /years.
func (h *LedgerHandler) AddYear(w http.ResponseWriter, r *http.Request) {
	var req AddYearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	year, err := h.service.AddYear(r.Context(), req.Year)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, year)
}

// ListYears handles GET /years.
func (h *LedgerHandler) ListYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.ListYears(r.Context())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.ListResponse[domain.Year]{Data: years})
}

// DeleteYear handles DELETE /years/{yearID}.
func (h *LedgerHandler) DeleteYear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteYear(r.Context(), chi.URLParam(r, "yearID")); err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResyncYear handles POST /years/{yearID}/resync, rebuilding every
// cached total under the year.
func (h *LedgerHandler) ResyncYear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResyncYear(r.Context(), chi.URLParam(r, "yearID")); err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNamedRequest is the request body for day and visit creation.
type AddNamedRequest struct {
	Name string `json:"name"`
}

// AddDay handles POST /years/{yearID}/days.
func (h *LedgerHandler) AddDay(w http.ResponseWriter, r *http.Request) {
	var req AddNamedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	day, err := h.service.AddDay(r.Context(), chi.URLParam(r, "yearID"), req.Name)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, day)
}

// ListDays handles GET /years/{yearID}/days.
func (h *LedgerHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.ListDays(r.Context(), chi.URLParam(r, "yearID"))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.ListResponse[domain.Day]{Data: days})
}

// DeleteDay handles DELETE /years/{yearID}/days/{dayID}.
func (h *LedgerHandler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteDay(r.Context(), chi.URLParam(r, "yearID"), chi.URLParam(r, "dayID"))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddVisit handles POST /years/{yearID}/days/{dayID}/visits.
func (h *LedgerHandler) AddVisit(w http.ResponseWriter, r *http.Request) {
	var req AddNamedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	visit, err := h.service.AddVisit(r.Context(), chi.URLParam(r, "yearID"), chi.URLParam(r, "dayID"), req.Name)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, visit)
}

// ListVisits handles GET /years/{yearID}/days/{dayID}/visits.
func (h *LedgerHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.service.ListVisits(r.Context(), chi.URLParam(r, "yearID"), chi.URLParam(r, "dayID"))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.ListResponse[domain.Visit]{Data: visits})
}

// DeleteVisit handles DELETE /years/{yearID}/days/{dayID}/visits/{visitID}.
func (h *LedgerHandler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteVisit(r.Context(),
		chi.URLParam(r, "yearID"), chi.URLParam(r, "dayID"), chi.URLParam(r, "visitID"))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddEntryRequest is the request body for entry creation. Amount is a
// decimal string or JSON number; Currency falls back to the configured
// default when empty.
type AddEntryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Currency    string          `json:"currency"`
}

// AddEntry handles POST .../visits/{visitID}/entries.
func (h *LedgerHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	entry, err := h.service.AddEntry(r.Context(),
		chi.URLParam(r, "yearID"), chi.URLParam(r, "dayID"), chi.URLParam(r, "visitID"),
		req.Amount, req.Description, req.Currency)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, entry)
}

// ListEntries handles GET .../visits/{visitID}/entries.
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, total, err := h.service.ListEntries(r.Context(),
		chi.URLParam(r, "yearID"), chi.URLParam(r, "dayID"), chi.URLParam(r, "visitID"))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.EntriesResponse[domain.Entry]{
		Data:  entries,
		Total: total.StringFixed(2),
	})
}

// DeleteEntry handles DELETE .../entries/{entryID}.
func (h *LedgerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteEntry(r.Context(),
		chi.URLParam(r, "yearID"), chi.URLParam(r, "dayID"),
		chi.URLParam(r, "visitID"), chi.URLParam(r, "entryID"))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
