// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"angpao-ledger/internal/aggregate"
	"angpao-ledger/internal/api/types"
	"angpao-ledger/internal/navigation"
	"angpao-ledger/internal/util"
)

// DefaultTimeout bounds request handling in the router middleware.
const DefaultTimeout = 60 * time.Second

func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, logger *slog.Logger, err error) {
	statusCode := http.StatusInternalServerError
	body := types.ErrorResponse{Error: "Internal server error"}

	var cascadeErr *aggregate.CascadeError
	switch {
	case util.IsError(err, util.ErrNotFound):
		// Checked ahead of CascadeError: a cascade that stopped because
		// the target node does not exist is a plain missing resource.
		statusCode = http.StatusNotFound
		body = types.ErrorResponse{Error: "Resource not found", Code: "not_found"}
	case errors.As(err, &cascadeErr):
		// A partially completed cascade left a known-stale ancestor
		// total; callers should resync the year.
		body = types.ErrorResponse{Error: err.Error(), Code: "cascade_inconsistency"}
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		body = types.ErrorResponse{Error: err.Error(), Code: "invalid_input"}
	case util.IsError(err, util.ErrDuplicateYear):
		statusCode = http.StatusConflict
		body = types.ErrorResponse{Error: err.Error(), Code: "duplicate_year"}
	case util.IsError(err, util.ErrNotSignedIn):
		statusCode = http.StatusUnauthorized
		body = types.ErrorResponse{Error: "No active session", Code: "not_signed_in"}
	case util.IsError(err, util.ErrPermissionDenied):
		statusCode = http.StatusForbidden
		body = types.ErrorResponse{Error: "Permission denied", Code: "permission_denied"}
	case util.IsError(err, util.ErrStoreUnavailable):
		statusCode = http.StatusServiceUnavailable
		body = types.ErrorResponse{Error: "Store unavailable", Code: "store_unavailable"}
	case util.IsError(err, navigation.ErrInvalidTransition):
		statusCode = http.StatusConflict
		body = types.ErrorResponse{Error: "Invalid navigation transition", Code: "invalid_transition"}
	default:
		logger.Error("Unhandled service error", "error", err)
	}

	respondWithJSON(w, logger, statusCode, body)
}
