package http

import (
	"net/http"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

type cardPayload struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon"`
	ClosingDay  int        `json:"closingDay"`
	DueDay      int        `json:"dueDay"`
	CreditLimit core.Money `json:"creditLimit"`
	Blocked     bool       `json:"blocked"`
}

func (p cardPayload) toCard() core.Card {
	return core.Card{
		ID:          p.ID,
		Name:        sanitize(p.Name),
		Icon:        sanitize(p.Icon),
		ClosingDay:  p.ClosingDay,
		DueDay:      p.DueDay,
		CreditLimit: p.CreditLimit,
		Blocked:     p.Blocked,
	}
}

func fromCard(c core.Card) cardPayload {
	return cardPayload{
		ID:          c.ID,
		Name:        c.Name,
		Icon:        c.Icon,
		ClosingDay:  c.ClosingDay,
		DueDay:      c.DueDay,
		CreditLimit: c.CreditLimit,
		Blocked:     c.Blocked,
	}
}

func fromCards(cards []core.Card) []cardPayload {
	out := make([]cardPayload, 0, len(cards))
	for _, c := range cards {
		out = append(out, fromCard(c))
	}
	return out
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.Cards.List(r.Context(), userID(r))
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, fromCards(cards))
}

func (s *Server) handleListSelectableCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.Cards.ListSelectable(r.Context(), userID(r))
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, fromCards(cards))
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var p cardPayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	created, err := s.svc.Cards.Create(r.Context(), userID(r), p.toCard())
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fromCard(created))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var p cardPayload
	if err := decodeBody(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	card := p.toCard()
	card.ID = idParam(r)
	updated, err := s.svc.Cards.Update(r.Context(), userID(r), card)
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, fromCard(updated))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Cards.Delete(r.Context(), userID(r), idParam(r)); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetCardBlocked(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Blocked bool `json:"blocked"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.svc.Cards.SetBlocked(r.Context(), userID(r), idParam(r), body.Blocked); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
