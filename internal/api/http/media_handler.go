package http

import (
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/storage"
)

const uploadURLTTL = 15 * time.Minute

type uploadURLRequest struct {
	ContentType string `json:"content_type"`
}

// handleUploadURL hands the client a presigned-style URL to PUT proof video
// to, plus the mediaRef to quote when submitting the proof record.
func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ContentType != "video/mp4" && req.ContentType != "video/webm" {
		writeError(w, r, domain.NewError(domain.ErrValidation, "content_type must be video/mp4 or video/webm"))
		return
	}

	uploadURL, mediaRef, err := s.media.GenerateUploadURL(r.Context(), req.ContentType, uploadURLTTL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"upload_url": uploadURL,
		"media_ref":  mediaRef,
	})
}

// handleMediaUpload is the PUT target for mock presigned URLs.
func (s *Server) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	mock, ok := s.media.(*storage.MockMediaStore)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		http.Error(w, "Missing ref parameter", http.StatusBadRequest)
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType != "video/mp4" && contentType != "video/webm" {
		http.Error(w, "Invalid content type", http.StatusBadRequest)
		return
	}

	if err := mock.SaveUnderRef(ref, r.Body); err != nil {
		http.Error(w, "Failed to save media", http.StatusInternalServerError)
		return
	}

	// Mimic an object store response
	w.Header().Set("ETag", `"mock-etag-success"`)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMediaDownload(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	file, err := s.media.Open(r.Context(), ref)
	if err != nil {
		http.Error(w, "Media not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch filepath.Ext(ref) {
	case ".mp4":
		contentType = "video/mp4"
	case ".webm":
		contentType = "video/webm"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	io.Copy(w, file)
}
