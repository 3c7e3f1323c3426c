package http

import (
	"net/http"
	"time"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

type investmentPayload struct {
	ID          string     `json:"id"`
	Bank        string     `json:"bank"`
	TypeGeneral string     `json:"typeGeneral"`
	TypeName    string     `json:"typeName"`
	Invested    core.Money `json:"invested"`
	Current     core.Money `json:"current"`
	CDIPercent  float64    `json:"cdiPercent"`
	LastUpdate  time.Time  `json:"lastUpdate"`
}

func fromInvestment(p core.Investment) investmentPayload {
	return investmentPayload{
		ID:          p.ID,
		Bank:        p.Bank,
		TypeGeneral: p.TypeGeneral,
		TypeName:    p.TypeName,
		Invested:    p.Invested,
		Current:     p.Current,
		CDIPercent:  p.CDIPercent,
		LastUpdate:  p.LastUpdate,
	}
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	positions, err := s.svc.Investments.List(r.Context(), userID(r))
	if err != nil {
		respondError(r, w, err)
		return
	}
	out := make([]investmentPayload, 0, len(positions))
	for _, p := range positions {
		out = append(out, fromInvestment(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAporte(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Bank        string     `json:"bank"`
		TypeGeneral string     `json:"typeGeneral"`
		TypeName    string     `json:"typeName"`
		Amount      core.Money `json:"amount"`
		CDIPercent  float64    `json:"cdiPercent"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	p, err := s.svc.Investments.Aporte(r.Context(), userID(r),
		sanitize(body.Bank), sanitize(body.TypeGeneral), sanitize(body.TypeName),
		body.Amount, body.CDIPercent)
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fromInvestment(p))
}

func (s *Server) handleResgate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount core.Money `json:"amount"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.svc.Investments.Resgate(r.Context(), userID(r), idParam(r), body.Amount); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleManualUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Current core.Money `json:"current"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.svc.Investments.ManualUpdate(r.Context(), userID(r), idParam(r), body.Current); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetInvestmentConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.Investments.GetConfig(r.Context(), userID(r))
	if err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"cdiBase": cfg.CDIBase})
}

func (s *Server) handleSetInvestmentConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CDIBase float64 `json:"cdiBase"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.svc.Investments.SetConfig(r.Context(), userID(r), core.InvestmentConfig{CDIBase: body.CDIBase}); err != nil {
		respondError(r, w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
