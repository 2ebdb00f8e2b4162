package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"aroundu-backend/internal/domain"
)

type itemRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	PricePerDayCents  int64  `json:"price_per_day_cents"`
	DepositCents      int64  `json:"deposit_cents"`
	InsuranceFeeCents int64  `json:"insurance_fee_cents"`
	Location          string `json:"location"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item := &domain.Item{
		OwnerID:           UserIDFromContext(r.Context()),
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		PricePerDayCents:  req.PricePerDayCents,
		DepositCents:      req.DepositCents,
		InsuranceFeeCents: req.InsuranceFeeCents,
		Location:          req.Location,
	}
	if err := s.items.AddItem(r.Context(), item); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.items.GetItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item := &domain.Item{
		ID:                mux.Vars(r)["id"],
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		PricePerDayCents:  req.PricePerDayCents,
		DepositCents:      req.DepositCents,
		InsuranceFeeCents: req.InsuranceFeeCents,
		Location:          req.Location,
	}
	if err := s.items.UpdateItem(r.Context(), UserIDFromContext(r.Context()), item); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.items.DeleteItem(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")
	maxPrice, _ := strconv.ParseInt(r.URL.Query().Get("max_price_cents"), 10, 64)
	page, pageSize := pageParams(r)

	items, total, err := s.items.SearchItems(r.Context(), query, category, maxPrice, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Item]{
		Items: items, Total: total, Page: page, PageSize: pageSize,
	})
}
