package http

import (
	"net/http"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

type receiptPayload struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type expensePayload struct {
	ID            string          `json:"id"`
	Date          core.Date       `json:"date"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"paymentMethod"`
	Amount        core.Money      `json:"amount"`
	Receipt       *receiptPayload `json:"receipt,omitempty"`
}

func (p expensePayload) toExpense() core.Expense {
	e := core.Expense{
		ID:            p.ID,
		Date:          p.Date,
		Category:      sanitize(p.Category),
		Description:   sanitize(p.Description),
		PaymentMethod: sanitize(p.PaymentMethod),
		Amount:        p.Amount,
	}
	if p.Receipt != nil {
		e.Receipt = &core.Receipt{URL: p.Receipt.URL, Path: p.Receipt.Path}
	}
	return e
}

func fromExpense(e core.Expense) expensePayload {
	p := expensePayload{
		ID:            e.ID,
		Date:          e.Date,
		Category:      e.Category,
		Description:   e.Description,
		PaymentMethod: e.PaymentMethod,
		Amount:        e.Amount,
	}
	if e.Receipt != nil {
		p.Receipt = &receiptPayload{URL: e.Receipt.URL, Path: e.Receipt.Path}
	}
	return p
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	expenses, err := s.svc.Expenses.List(r.Context(), userID(r), ym)
	if err != nil {
		respondError(r, w, err)
		return
	}
	out := make([]expensePayload, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, fromExpense(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var p expensePayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	created, err := s.svc.Expenses.Create(r.Context(), userID(r), p.toExpense())
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fromExpense(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	var p expensePayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.svc.Expenses.Update(r.Context(), userID(r), ym, idParam(r), p.toExpense())
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, fromExpense(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	if err := s.svc.Expenses.Delete(r.Context(), userID(r), ym, idParam(r)); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
