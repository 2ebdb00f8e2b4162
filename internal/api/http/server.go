package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"aroundu-backend/internal/security"
	"aroundu-backend/internal/service"
	"aroundu-backend/internal/storage"
)

// Server exposes the engine's public operations over JSON/HTTP.
type Server struct {
	ledger   service.LedgerService
	escrow   service.EscrowService
	handover service.HandoverService
	trust    service.TrustService
	items    service.ItemService
	media    storage.MediaStore
	tokens   security.TokenManager
}

func NewServer(
	ledger service.LedgerService,
	escrow service.EscrowService,
	handover service.HandoverService,
	trust service.TrustService,
	items service.ItemService,
	media storage.MediaStore,
	tokens security.TokenManager,
) *Server {
	return &Server{
		ledger:   ledger,
		escrow:   escrow,
		handover: handover,
		trust:    trust,
		items:    items,
		media:    media,
		tokens:   tokens,
	}
}

// Router assembles all routes. Everything under /api/v1 except health and
// the mock media endpoints requires a bearer token.
func (s *Server) Router() *mux.Router {
	root := mux.NewRouter()
	root.Use(loggingMiddleware)

	root.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Mock presigned upload target; the unguessable token is the credential,
	// matching how a real presigned PUT works.
	root.HandleFunc("/api/v1/media/upload/{token}", s.handleMediaUpload).Methods("PUT")

	api := root.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware(s.tokens))

	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods("POST")
	api.HandleFunc("/transactions", s.handleListTransactions).Methods("GET")
	api.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods("GET")
	api.HandleFunc("/transactions/{id}/cancel", s.handleCancel).Methods("POST")
	api.HandleFunc("/transactions/{id}/dispute", s.handleDispute).Methods("POST")

	api.HandleFunc("/transactions/{id}/escrow/hold", s.handleHoldEscrow).Methods("POST")
	api.HandleFunc("/transactions/{id}/escrow/release", s.handleReleaseEscrow).Methods("POST")
	api.HandleFunc("/transactions/{id}/escrow", s.handleEscrowHistory).Methods("GET")

	api.HandleFunc("/transactions/{id}/handover/otp", s.handleSubmitOTP).Methods("POST")
	api.HandleFunc("/transactions/{id}/handover/proof", s.handleSubmitProof).Methods("POST")
	api.HandleFunc("/transactions/{id}/handover/checklist", s.handleSubmitChecklist).Methods("POST")
	api.HandleFunc("/transactions/{id}/handover/complete", s.handleCompleteHandover).Methods("POST")
	api.HandleFunc("/transactions/{id}/handover/abort", s.handleAbortHandover).Methods("POST")

	api.HandleFunc("/media/upload-url", s.handleUploadURL).Methods("POST")
	api.HandleFunc("/media/{ref}", s.handleMediaDownload).Methods("GET")

	api.HandleFunc("/items", s.handleAddItem).Methods("POST")
	api.HandleFunc("/items", s.handleSearchItems).Methods("GET")
	api.HandleFunc("/items/{id}", s.handleGetItem).Methods("GET")
	api.HandleFunc("/items/{id}", s.handleUpdateItem).Methods("PUT")
	api.HandleFunc("/items/{id}", s.handleDeleteItem).Methods("DELETE")

	api.HandleFunc("/users/{id}/trust-score", s.handleGetTrustScore).Methods("GET")
	api.HandleFunc("/users/{id}/trust-score/history", s.handleTrustHistory).Methods("GET")

	return root
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
