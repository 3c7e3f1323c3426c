package http

import (
	"net/http"
	"sort"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

type invoiceTotalPayload struct {
	CardName string     `json:"cardName"`
	Amount   core.Money `json:"amount"`
	Paid     bool       `json:"paid"`
}

type summaryPayload struct {
	Month core.YearMonth `json:"month"`

	TotalEntries core.Money `json:"totalEntries"`
	KmTotal      float64    `json:"kmTotal"`
	HoursTotal   float64    `json:"hoursTotal"`

	VariableExpenses core.Money `json:"variableExpenses"`
	FixedExpenses    core.Money `json:"fixedExpenses"`
	DebtPayments     core.Money `json:"debtPayments"`

	TotalExpenses core.Money `json:"totalExpenses"`
	NetProfit     core.Money `json:"netProfit"`

	AccumulatedBalance core.Money `json:"accumulatedBalance"`
	TotalCardLimits    core.Money `json:"totalCardLimits"`

	Invoices []invoiceTotalPayload `json:"invoices"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r)
	if err != nil {
		badRequest(w, "invalid month")
		return
	}
	summary, err := s.svc.Dashboard.Summary(r.Context(), userID(r), ym)
	if err != nil {
		respondError(r, w, err)
		return
	}

	out := summaryPayload{
		Month:              summary.Month,
		TotalEntries:       summary.TotalEntries,
		KmTotal:            summary.KmTotal,
		HoursTotal:         summary.HoursTotal,
		VariableExpenses:   summary.VariableExpenses,
		FixedExpenses:      summary.FixedExpenses,
		DebtPayments:       summary.DebtPayments,
		TotalExpenses:      summary.TotalExpenses,
		NetProfit:          summary.NetProfit,
		AccumulatedBalance: summary.AccumulatedBalance,
		TotalCardLimits:    summary.TotalCardLimits,
		Invoices:           make([]invoiceTotalPayload, 0, len(summary.Invoices)),
	}
	for _, inv := range summary.Invoices {
		out.Invoices = append(out.Invoices, invoiceTotalPayload{
			CardName: inv.CardName,
			Amount:   inv.Amount,
			Paid:     inv.Paid,
		})
	}
	sort.Slice(out.Invoices, func(i, j int) bool {
		return out.Invoices[i].CardName < out.Invoices[j].CardName
	})
	respondJSON(w, http.StatusOK, out)
}
