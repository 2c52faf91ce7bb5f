package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/client/client"
	"github.com/dmitrijs2005/afterlight/internal/client/config"
	"github.com/dmitrijs2005/afterlight/internal/client/localdb"
	"github.com/dmitrijs2005/afterlight/internal/client/services"
	"github.com/dmitrijs2005/afterlight/internal/client/session"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/filex"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/models"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	authService     services.AuthService
	vaultService    services.VaultService
	artifactService services.ArtifactService
	probe           client.Pinger
	ring            *session.KeyRing
	closers         []io.Closer

	reader      *bufio.Reader
	out         io.Writer
	downloadDir string

	mu       sync.Mutex
	mode     Mode
	userName string

	// Listings shown last, so commands can refer to items by number.
	vaults    []*models.Vault
	artifacts []*models.Artifact
	current   *models.Vault
}

// NewApp opens the local store under c.DataDir and wires every service.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	dataDir := c.DataDir
	if dataDir == "" {
		d, err := filex.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = d
	}
	dbDir, err := filex.EnsureSubdDir(dataDir, "db")
	if err != nil {
		return nil, err
	}
	downloads, err := filex.EnsureSubdDir(dataDir, "downloads")
	if err != nil {
		return nil, err
	}

	db, err := localdb.Open(ctx, filepath.Join(dbDir, "afterlight.db"))
	if err != nil {
		return nil, err
	}

	api, err := client.NewRESTClient(c.ServerURL,
		client.WithRetry(c.HTTPRetryMax, 200*time.Millisecond, 2*time.Second),
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(l),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	probe, err := client.NewHealthProbe(c.HealthAddrGRPC)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	deriver, err := cryptox.NewDeriver(c.KDF)
	if err != nil {
		_ = probe.Close()
		_ = db.Close()
		return nil, err
	}

	a := &App{
		config:      c,
		logger:      l,
		probe:       probe,
		ring:        session.NewKeyRing(c.SessionIdleTimeout),
		closers:     []io.Closer{probe, db},
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		downloadDir: downloads,
	}
	a.wire(api, db, deriver, &http.Client{Timeout: c.RequestTimeout})
	return a, nil
}

func (a *App) wire(api client.Client, db *sql.DB, d *cryptox.Deriver, h *http.Client) {
	a.authService = services.NewAuthService(api, db, a.ring, d, a.logger)
	a.vaultService = services.NewVaultService(api, db, a.ring, d, a, a.logger)
	a.artifactService = services.NewArtifactService(api, db, a.ring, h, a, a.logger)
	a.ring.OnExpire(func(vaultID string) {
		a.logger.Info(context.Background(), "vault locked after inactivity", "vault_id", vaultID)
	})
}

// Online implements services.Connectivity.
func (a *App) Online() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode == ModeOnline
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userName != ""
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userName = name
}

// checkOnline probes the server once and updates the mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.probe.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher probes the server every interval until ctx is
// done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Run starts the watcher and the REPL and blocks until the user exits or
// ctx is done. Every vault key is wiped before Run returns, also when the
// REPL is still waiting for input.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Root(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Info(context.Background(), "interrupted, locking all vaults")
		a.printf("\n")
	}
	return nil
}

// Close wipes every vault key and releases local resources.
func (a *App) Close() error {
	a.ring.Close()
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
