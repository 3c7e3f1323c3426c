package http

import (
	"net/http"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

type pendenciaPayload struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Person        string     `json:"person"`
	Description   string     `json:"description"`
	Amount        core.Money `json:"amount"`
	DueDate       core.Date  `json:"dueDate"`
	PaymentMethod string     `json:"paymentMethod"`
	Status        string     `json:"status"`
}

func (p pendenciaPayload) toPendencia() core.Pendencia {
	return core.Pendencia{
		ID:            p.ID,
		Kind:          core.PendenciaKind(p.Kind),
		Person:        sanitize(p.Person),
		Description:   sanitize(p.Description),
		Amount:        p.Amount,
		DueDate:       p.DueDate,
		PaymentMethod: sanitize(p.PaymentMethod),
		Status:        core.PayStatus(p.Status),
	}
}

func fromPendencia(p core.Pendencia) pendenciaPayload {
	return pendenciaPayload{
		ID:            p.ID,
		Kind:          string(p.Kind),
		Person:        p.Person,
		Description:   p.Description,
		Amount:        p.Amount,
		DueDate:       p.DueDate,
		PaymentMethod: p.PaymentMethod,
		Status:        string(p.Status),
	}
}

func (s *Server) handleListPendencias(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	pendencias, err := s.svc.Pendencias.List(r.Context(), userID(r), ym)
	if err != nil {
		respondError(r, w, err)
		return
	}
	out := make([]pendenciaPayload, 0, len(pendencias))
	for _, p := range pendencias {
		out = append(out, fromPendencia(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePendencia(w http.ResponseWriter, r *http.Request) {
	var p pendenciaPayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	created, err := s.svc.Pendencias.Create(r.Context(), userID(r), p.toPendencia())
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fromPendencia(created))
}

func (s *Server) handleUpdatePendencia(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	var p pendenciaPayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.svc.Pendencias.Update(r.Context(), userID(r), ym, idParam(r), p.toPendencia())
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, fromPendencia(updated))
}

func (s *Server) handleDeletePendencia(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	if err := s.svc.Pendencias.Delete(r.Context(), userID(r), ym, idParam(r)); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePayPendencia(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	if err := s.svc.Pendencias.Pay(r.Context(), userID(r), ym, idParam(r)); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUnpayPendencia(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	if err := s.svc.Pendencias.Unpay(r.Context(), userID(r), ym, idParam(r)); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
