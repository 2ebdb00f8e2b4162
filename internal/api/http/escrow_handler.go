package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"aroundu-backend/internal/domain"
)

type holdEscrowRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

func (s *Server) handleHoldEscrow(w http.ResponseWriter, r *http.Request) {
	var req holdEscrowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := s.escrow.HoldFunds(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], req.AmountCents)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleReleaseEscrow(w http.ResponseWriter, r *http.Request) {
	entry, err := s.escrow.Release(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleEscrowHistory(w http.ResponseWriter, r *http.Request) {
	callerID := UserIDFromContext(r.Context())
	txID := mux.Vars(r)["id"]

	// Participant check rides on the transaction fetch.
	if _, err := s.ledger.GetTransaction(r.Context(), callerID, txID); err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.escrow.History(r.Context(), txID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.EscrowEntry{"entries": entries})
}
