package api

import (
	"net/http"

	"github.com/dmitrijs2005/afterlight/internal/codec"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVaultRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	salt, err := codec.DecodeSalt(req.KDFSalt)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	v, err := s.vaults.CreateVault(r.Context(), UserID(r.Context()), req.VaultName, salt, req.Hint)
	if err != nil {
		s.logServiceError(r, "create vault failed", err)
		WriteError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "vault created", "vault_id", v.ID)
	WriteJSON(w, http.StatusCreated, models.ToVaultDTO(v))
}

func (s *Server) handleListVaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := s.vaults.ListVaults(r.Context(), UserID(r.Context()))
	if err != nil {
		s.logServiceError(r, "list vaults failed", err)
		WriteError(w, r, err)
		return
	}

	out := make([]models.VaultDTO, 0, len(vaults))
	for _, v := range vaults {
		out = append(out, models.ToVaultDTO(v))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateArtifact(w http.ResponseWriter, r *http.Request) {
	var req models.CreateArtifactRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	mt, blob, iv, err := req.Decode()
	if err != nil {
		WriteError(w, r, err)
		return
	}

	vaultID := chi.URLParam(r, "vaultID")
	a, err := s.artifacts.CreateArtifact(r.Context(), UserID(r.Context()), vaultID, mt, blob, iv)
	if err != nil {
		s.logServiceError(r, "create artifact failed", err)
		WriteError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "artifact stored", "vault_id", vaultID, "artifact_id", a.ID, "message_type", mt.String())
	WriteJSON(w, http.StatusCreated, models.ToArtifactDTO(a))
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	v, items, err := s.artifacts.ListArtifacts(r.Context(), UserID(r.Context()), chi.URLParam(r, "vaultID"))
	if err != nil {
		s.logServiceError(r, "list artifacts failed", err)
		WriteError(w, r, err)
		return
	}

	resp := models.ListArtifactsResponse{
		VaultName: v.Name,
		Hint:      v.Hint,
		KDFSalt:   codec.EncodeSalt(v.Salt),
		Artifacts: make([]models.ArtifactDTO, 0, len(items)),
		CreatedAt: v.CreatedAt,
	}
	for _, a := range items {
		resp.Artifacts = append(resp.Artifacts, models.ToArtifactDTO(a))
	}
	WriteJSON(w, http.StatusOK, resp)
}
