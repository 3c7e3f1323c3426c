package http

import (
	"net/http"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

type purchasePayload struct {
	ID           string         `json:"id"`
	CardName     string         `json:"cardName"`
	Description  string         `json:"description"`
	TotalAmount  core.Money     `json:"totalAmount"`
	Installments int            `json:"installments"`
	PurchaseDate core.Date      `json:"purchaseDate"`
	StartMonth   core.YearMonth `json:"startMonth"`
	Status       string         `json:"status"`
}

func fromPurchase(p core.InstallmentPurchase) purchasePayload {
	return purchasePayload{
		ID:           p.ID,
		CardName:     p.CardName,
		Description:  p.Description,
		TotalAmount:  p.TotalAmount,
		Installments: p.Installments,
		PurchaseDate: p.PurchaseDate,
		StartMonth:   p.StartMonth,
		Status:       string(p.Status),
	}
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.svc.Specs.List(r.Context(), userID(r))
	if err != nil {
		respondError(r, w, err)
		return
	}
	out := make([]purchasePayload, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, fromPurchase(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CardName     string     `json:"cardName"`
		Description  string     `json:"description"`
		TotalAmount  core.Money `json:"totalAmount"`
		Installments int        `json:"installments"`
		PurchaseDate core.Date  `json:"purchaseDate"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	created, err := s.svc.Specs.Create(r.Context(), userID(r),
		sanitize(body.CardName), sanitize(body.Description),
		body.TotalAmount, body.Installments, body.PurchaseDate)
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fromPurchase(created))
}

// viewingMonth reads the month the client is looking at, used to
// target cache invalidation. Defaults to the current month.
func viewingMonth(r *http.Request) (core.YearMonth, error) {
	if v := r.URL.Query().Get("month"); v != "" {
		return core.ParseYearMonth(v)
	}
	var body struct {
		Month core.YearMonth `json:"month"`
	}
	if err := decodeBody(r, &body); err == nil && body.Month != (core.YearMonth{}) {
		return body.Month, nil
	}
	return core.CurrentYearMonth(timeNow()), nil
}

func (s *Server) handleReversePurchase(w http.ResponseWriter, r *http.Request) {
	ym, err := viewingMonth(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	if err := s.svc.Specs.Reverse(r.Context(), userID(r), idParam(r), ym); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSettlePurchase(w http.ResponseWriter, r *http.Request) {
	ym, err := viewingMonth(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	settlement, err := s.svc.Specs.Settle(r.Context(), userID(r), idParam(r), ym)
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, fromPurchase(settlement))
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	ym, err := viewingMonth(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	if err := s.svc.Specs.Delete(r.Context(), userID(r), idParam(r), ym); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
