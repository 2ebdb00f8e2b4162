package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"aroundu-backend/internal/domain"
)

type submitOTPRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleSubmitOTP(w http.ResponseWriter, r *http.Request) {
	var req submitOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := s.handover.SubmitOTP(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

type submitProofRequest struct {
	CapturedBy domain.ProofParty `json:"captured_by"`
	MediaRef   string            `json:"media_ref"`
}

func (s *Server) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	var req submitProofRequest
	if !decodeBody(w, r, &req) {
		return
	}
	proof, err := s.handover.SubmitProof(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], req.CapturedBy, req.MediaRef)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, proof)
}

type submitChecklistRequest struct {
	Answers domain.Checklist `json:"answers"`
}

func (s *Server) handleSubmitChecklist(w http.ResponseWriter, r *http.Request) {
	var req submitChecklistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.handover.SubmitChecklist(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], req.Answers); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCompleteHandover(w http.ResponseWriter, r *http.Request) {
	tx, err := s.handover.CompleteHandover(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleAbortHandover(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := s.handover.Abort(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
