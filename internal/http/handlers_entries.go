package http

import (
	"net/http"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

type entryPayload struct {
	ID          string     `json:"id"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Km          float64    `json:"km"`
	Hours       float64    `json:"hours"`
}

func (p entryPayload) toEntry() core.Entry {
	return core.Entry{
		ID:          p.ID,
		Date:        p.Date,
		Description: sanitize(p.Description),
		Amount:      p.Amount,
		Km:          p.Km,
		Hours:       p.Hours,
	}
}

func fromEntry(e core.Entry) entryPayload {
	return entryPayload{
		ID:          e.ID,
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
		Km:          e.Km,
		Hours:       e.Hours,
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	entries, err := s.svc.Entries.List(r.Context(), userID(r), ym)
	if err != nil {
		respondError(r, w, err)
		return
	}
	out := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, fromEntry(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var p entryPayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	created, err := s.svc.Entries.Create(r.Context(), userID(r), p.toEntry())
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fromEntry(created))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	var p entryPayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.svc.Entries.Update(r.Context(), userID(r), ym, idParam(r), p.toEntry())
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, fromEntry(updated))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	if err := s.svc.Entries.Delete(r.Context(), userID(r), ym, idParam(r)); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
