package api

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/afterlight/internal/codec"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	salt, err := codec.DecodeHex(req.Salt)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	verifier, err := codec.DecodeHex(req.Verifier)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	u, err := s.accounts.Register(r.Context(), req.Username, salt, verifier)
	if err != nil {
		s.logServiceError(r, "register failed", err)
		WriteError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", u.ID)
	WriteJSON(w, http.StatusCreated, models.RegisterResponse{ID: u.ID, Username: u.UserName})
}

func (s *Server) handleGetSalt(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		WriteError(w, r, fmt.Errorf("%w: username is required", common.ErrorValidation))
		return
	}

	b, err := s.accounts.GetSalt(r.Context(), username)
	if err != nil {
		s.logServiceError(r, "get salt failed", err)
		WriteError(w, r, err)
		return
	}
	salt, err := cryptox.SaltFromBytes(b)
	if err != nil {
		s.logServiceError(r, "stored salt is malformed", err)
		WriteError(w, r, common.ErrorInternal)
		return
	}

	WriteJSON(w, http.StatusOK, models.SaltResponse{Salt: codec.EncodeSalt(salt)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	verifier, err := codec.DecodeHex(req.Verifier)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	tokens, err := s.accounts.Login(r.Context(), req.Username, verifier)
	if err != nil {
		s.logServiceError(r, "login failed", err)
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, models.TokenPair{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, r, common.ErrorUnauthorized)
		return
	}

	tokens, err := s.accounts.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.logServiceError(r, "refresh failed", err)
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, models.TokenPair{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := s.accounts.Logout(r.Context(), req.RefreshToken); err != nil {
		s.logServiceError(r, "logout failed", err)
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.GetUser(r.Context(), UserID(r.Context()))
	if err != nil {
		s.logServiceError(r, "get account failed", err)
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, models.AccountResponse{ID: u.ID, Username: u.UserName, CreatedAt: u.CreatedAt})
}

// logServiceError logs only failures the client cannot cause itself.
func (s *Server) logServiceError(r *http.Request, msg string, err error) {
	if FromError(err).Code == CodeInternalError {
		s.logger.Error(r.Context(), msg, "error", err)
		return
	}
	s.logger.Debug(r.Context(), msg, "error", err)
}
