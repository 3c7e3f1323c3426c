package http

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/invoice"
)

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	invoices, err := s.svc.Invoices.Invoices(r.Context(), userID(r), ym)
	if err != nil {
		respondError(r, w, err)
		return
	}

	out := make([]*invoice.CardInvoice, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Card.Name < out[j].Card.Name
	})
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) cardFromPath(r *http.Request) (core.Card, error) {
	return s.svc.Cards.GetByName(r.Context(), userID(r), mux.Vars(r)["card"])
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	card, err := s.cardFromPath(r)
	if err != nil {
		respondError(r, w, err)
		return
	}
	paid, err := s.svc.Payments.PayInvoice(r.Context(), userID(r), card, ym)
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]core.Money{"amount": paid})
}

func (s *Server) handleReversePayment(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	card, err := s.cardFromPath(r)
	if err != nil {
		respondError(r, w, err)
		return
	}
	credited, err := s.svc.Payments.ReversePayment(r.Context(), userID(r), card, ym)
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]core.Money{"amount": credited})
}
