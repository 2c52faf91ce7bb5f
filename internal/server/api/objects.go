package api

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handlePresignUpload(w http.ResponseWriter, r *http.Request) {
	u, err := s.objects.PresignUpload(r.Context(), UserID(r.Context()), chi.URLParam(r, "vaultID"))
	if err != nil {
		s.logServiceError(r, "presign upload failed", err)
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, models.UploadURLResponse{
		ObjectKey: u.Key,
		UploadURL: u.URL,
		ExpiresAt: u.ExpiresAt,
	})
}

func (s *Server) handlePresignDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		WriteError(w, r, fmt.Errorf("%w: key is required", common.ErrorValidation))
		return
	}

	u, err := s.objects.PresignDownload(r.Context(), UserID(r.Context()), chi.URLParam(r, "vaultID"), key)
	if err != nil {
		s.logServiceError(r, "presign download failed", err)
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, models.DownloadURLResponse{
		ObjectKey:   u.Key,
		DownloadURL: u.URL,
		ExpiresAt:   u.ExpiresAt,
	})
}
