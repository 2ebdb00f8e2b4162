package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
)

type errorBody struct {
	Kind          domain.ErrorKind         `json:"kind"`
	Message       string                   `json:"message"`
	CurrentStatus domain.TransactionStatus `json:"current_status,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// statusForKind maps typed engine errors onto HTTP status codes.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrUnauthorized, domain.ErrAuthFailure:
		return http.StatusForbidden
	case domain.ErrInvalidState, domain.ErrConflict, domain.ErrDuplicateProof,
		domain.ErrOutOfOrder, domain.ErrAlreadyIssued:
		return http.StatusConflict
	case domain.ErrPayment:
		return http.StatusPaymentRequired
	case domain.ErrTimedOut:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var typed *domain.Error
	if errors.As(err, &typed) {
		writeJSON(w, statusForKind(typed.Kind), errorResponse{Error: errorBody{
			Kind:          typed.Kind,
			Message:       typed.Message,
			CurrentStatus: typed.CurrentStatus,
		}})
		return
	}

	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorBody{
		Kind:    "INTERNAL",
		Message: "an internal error occurred",
	}})
}

// decodeBody rejects malformed or oversized request JSON.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrValidation, err, "invalid request body: %v", err))
		return false
	}
	return true
}

type listResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int64 `json:"page"`
	PageSize int64 `json:"page_size"`
}
