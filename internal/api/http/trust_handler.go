package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"aroundu-backend/internal/domain"
)

func (s *Server) handleGetTrustScore(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	score, err := s.trust.GetUserTrustScore(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     userID,
		"trust_score": score,
	})
}

func (s *Server) handleTrustHistory(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	entries, total, err := s.trust.History(r.Context(), mux.Vars(r)["id"], page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.TrustScoreEntry]{
		Items: entries, Total: total, Page: page, PageSize: pageSize,
	})
}
