// Package api exposes the vault services over a JSON REST interface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/models"
	srvmodels "github.com/dmitrijs2005/afterlight/internal/server/models"
	"github.com/dmitrijs2005/afterlight/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	requestTimeout = 30 * time.Second
	// base64 of models.MaxBlobSize plus room for the other fields.
	maxBodyBytes = 2 << 20
)

// AccountService is what the auth handlers need from services.UserService.
type AccountService interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*srvmodels.User, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*srvmodels.User, error)
	UserIDFromAccessToken(token string) (string, error)
}

type VaultService interface {
	CreateVault(ctx context.Context, userID, name string, salt cryptox.Salt, hint string) (*models.Vault, error)
	ListVaults(ctx context.Context, userID string) ([]*models.Vault, error)
}

type ArtifactService interface {
	CreateArtifact(ctx context.Context, userID, vaultID string, mt models.MessageType, blob, iv []byte) (*models.Artifact, error)
	ListArtifacts(ctx context.Context, userID, vaultID string) (*models.Vault, []*models.Artifact, error)
}

type ObjectService interface {
	PresignUpload(ctx context.Context, userID, vaultID string) (*services.ObjectURL, error)
	PresignDownload(ctx context.Context, userID, vaultID, key string) (*services.ObjectURL, error)
}

// Pinger reports database reachability for GET /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server holds the handlers and their router.
type Server struct {
	accounts  AccountService
	vaults    VaultService
	artifacts ArtifactService
	objects   ObjectService
	db        Pinger
	logger    logging.Logger
	router    chi.Router
}

func NewServer(l logging.Logger, db Pinger, a AccountService, v VaultService, ar ArtifactService, o ObjectService) *Server {
	s := &Server{
		accounts:  a,
		vaults:    v,
		artifacts: ar,
		objects:   o,
		db:        db,
		logger:    l.With("module", "api"),
	}
	s.router = s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(Recovery(s.logger))
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Get("/salt", s.handleGetSalt)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.With(Authenticate(s.accounts, s.logger)).Get("/me", s.handleMe)
	})

	r.Route("/vaults", func(r chi.Router) {
		r.Use(Authenticate(s.accounts, s.logger))

		r.Post("/", s.handleCreateVault)
		r.Get("/", s.handleListVaults)

		r.Route("/{vaultID}", func(r chi.Router) {
			r.Post("/artifacts", s.handleCreateArtifact)
			r.Get("/artifacts", s.handleListArtifacts)
			r.Post("/objects", s.handlePresignUpload)
			r.Get("/objects", s.handlePresignDownload)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, &APIError{Code: CodeNotFound, Message: "route not found"})
	})

	return r
}
