package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"aroundu-backend/internal/domain"
)

type createTransactionRequest struct {
	ItemID    string `json:"item_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := s.ledger.CreateTransaction(r.Context(), UserIDFromContext(r.Context()), req.ItemID, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.ledger.GetTransaction(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func pageParams(r *http.Request) (int64, int64) {
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	pageSize, _ := strconv.ParseInt(r.URL.Query().Get("page_size"), 10, 64)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	callerID := UserIDFromContext(r.Context())
	status := r.URL.Query().Get("status")
	page, pageSize := pageParams(r)

	var (
		txs   []domain.Transaction
		total int64
		err   error
	)
	if r.URL.Query().Get("role") == "owner" {
		txs, total, err = s.ledger.ListLendings(r.Context(), callerID, status, page, pageSize)
	} else {
		txs, total, err = s.ledger.ListRentals(r.Context(), callerID, status, page, pageSize)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Transaction]{
		Items: txs, Total: total, Page: page, PageSize: pageSize,
	})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := s.ledger.Cancel(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDispute(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := s.ledger.Dispute(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
