package http

import (
	"net/http"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

type installmentPayload struct {
	GroupID string `json:"groupId"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

type fixedPayload struct {
	ID            string              `json:"id"`
	DueDate       core.Date           `json:"dueDate"`
	Category      string              `json:"category"`
	Description   string              `json:"description"`
	PaymentMethod string              `json:"paymentMethod"`
	Amount        core.Money          `json:"amount"`
	Recurrence    string              `json:"recurrence"`
	Status        string              `json:"status"`
	Installment   *installmentPayload `json:"installment,omitempty"`
}

func fromFixed(f core.FixedExpense) fixedPayload {
	p := fixedPayload{
		ID:            f.ID,
		DueDate:       f.DueDate,
		Category:      f.Category,
		Description:   f.Description,
		PaymentMethod: f.PaymentMethod,
		Amount:        f.Amount,
		Recurrence:    string(f.Recurrence),
		Status:        string(f.Status),
	}
	if f.Installment != nil {
		p.Installment = &installmentPayload{
			GroupID: f.Installment.GroupID,
			Current: f.Installment.Current,
			Total:   f.Installment.Total,
		}
	}
	return p
}

// fixedCreatePayload covers both forms: a one-off expense (unica, due
// date required) and a recurring rule (mensal or parcelada, due day
// required; the start month defaults to the path month).
type fixedCreatePayload struct {
	Category          string         `json:"category"`
	Description       string         `json:"description"`
	PaymentMethod     string         `json:"paymentMethod"`
	Amount            core.Money     `json:"amount"`
	Recurrence        string         `json:"recurrence"`
	DueDate           core.Date      `json:"dueDate"`
	DueDay            int            `json:"dueDay"`
	StartMonth        core.YearMonth `json:"startMonth"`
	TotalInstallments int            `json:"totalInstallments"`
}

func (s *Server) handleListFixed(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	fixed, err := s.svc.Fixed.List(r.Context(), userID(r), ym)
	if err != nil {
		respondError(r, w, err)
		return
	}
	out := make([]fixedPayload, 0, len(fixed))
	for _, f := range fixed {
		out = append(out, fromFixed(f))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFixed(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	var p fixedCreatePayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	switch core.Recurrence(p.Recurrence) {
	case core.RecurrenceSingle, "":
		created, err := s.svc.Fixed.CreateSingle(r.Context(), userID(r), core.FixedExpense{
			DueDate:       p.DueDate,
			Category:      sanitize(p.Category),
			Description:   sanitize(p.Description),
			PaymentMethod: sanitize(p.PaymentMethod),
			Amount:        p.Amount,
		})
		if err != nil {
			respondError(r, w, err)
			return
		}
		respondJSON(w, http.StatusCreated, fromFixed(created))

	case core.RecurrenceMonthly, core.RecurrenceInstallment:
		start := p.StartMonth
		if start == (core.YearMonth{}) {
			start = ym
		}
		rule, err := s.svc.Fixed.CreateRule(r.Context(), userID(r), core.FixedRule{
			Category:          sanitize(p.Category),
			Description:       sanitize(p.Description),
			PaymentMethod:     sanitize(p.PaymentMethod),
			Amount:            p.Amount,
			Recurrence:        core.Recurrence(p.Recurrence),
			DueDay:            p.DueDay,
			StartMonth:        start,
			TotalInstallments: p.TotalInstallments,
		})
		if err != nil {
			respondError(r, w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]string{
			"groupId":    rule.GroupID,
			"startMonth": rule.StartMonth.String(),
		})

	default:
		badRequest(w, "invalid recurrence")
	}
}

func (s *Server) handlePayFixed(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	var body struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.svc.Fixed.Pay(r.Context(), userID(r), ym, idParam(r), sanitize(body.PaymentMethod)); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUnpayFixed(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	if err := s.svc.Fixed.Unpay(r.Context(), userID(r), ym, idParam(r)); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// handleDeleteFixed removes one instance; with ?future=true the whole
// recurring group is retired from this month onward.
func (s *Server) handleDeleteFixed(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	future := r.URL.Query().Get("future") == "true"
	if err := s.svc.Fixed.Delete(r.Context(), userID(r), ym, idParam(r), future); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
