package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps domain errors onto status codes. Anything
// unrecognized is a 500 and gets logged; client errors are returned
// verbatim so the caller can show them.
func respondError(r *http.Request, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrDuplicateCardName),
		errors.Is(err, core.ErrCardBlocked),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, services.ErrNoInvoice),
		errors.Is(err, services.ErrInvoiceAlreadyPaid),
		errors.Is(err, services.ErrNoOpenInstallments):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidClosingDay),
		errors.Is(err, core.ErrInvalidDueDay),
		errors.Is(err, core.ErrInvalidInstallments):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		respondJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	respondJSON(w, status, errorBody{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
