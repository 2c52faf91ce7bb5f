package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/codec"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/hashicorp/go-retryablehttp"
)

const maxErrorBody = 64 << 10

// RESTClient implements Client over the Afterlight JSON API.
type RESTClient struct {
	baseURL string
	retry   *retryablehttp.Client
	plain   *http.Client
	logger  logging.Logger

	mu        sync.Mutex
	tokens    models.TokenPair
	onRefresh func(models.TokenPair)
}

// Option configures a RESTClient.
type Option func(*RESTClient)

// WithRetry sets the number of GET retries and the backoff bounds.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(c *RESTClient) {
		c.retry.RetryMax = max
		c.retry.RetryWaitMin = waitMin
		c.retry.RetryWaitMax = waitMax
	}
}

// WithTimeout bounds every single HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *RESTClient) {
		c.retry.HTTPClient.Timeout = d
		c.plain.Timeout = d
	}
}

// WithLogger routes retry diagnostics to l.
func WithLogger(l logging.Logger) Option {
	return func(c *RESTClient) {
		c.logger = l
		c.retry.Logger = leveledLogger{l: l}
	}
}

// NewRESTClient returns a client for the server at baseURL.
func NewRESTClient(baseURL string, opts ...Option) (*RESTClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 3
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		retry:   rc,
		plain:   &http.Client{Timeout: 15 * time.Second},
		logger:  logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SetTokens installs tokens restored from local storage.
func (c *RESTClient) SetTokens(tokens models.TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tokens
}

// OnTokensRefreshed registers fn to receive every rotated token pair.
func (c *RESTClient) OnTokensRefreshed(fn func(models.TokenPair)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

func (c *RESTClient) currentTokens() models.TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *RESTClient) Register(ctx context.Context, username string, salt cryptox.Salt, verifier []byte) error {
	req := models.RegisterRequest{
		Username: username,
		Salt:     codec.EncodeSalt(salt),
		Verifier: hex.EncodeToString(verifier),
	}
	return c.do(ctx, http.MethodPost, "/auth/register", false, req, nil)
}

func (c *RESTClient) GetSalt(ctx context.Context, username string) (cryptox.Salt, error) {
	var resp models.SaltResponse
	path := "/auth/salt?" + url.Values{"username": {username}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, false, nil, &resp); err != nil {
		return cryptox.Salt{}, err
	}
	return codec.DecodeSalt(resp.Salt)
}

func (c *RESTClient) Login(ctx context.Context, username string, verifier []byte) (models.TokenPair, error) {
	var tokens models.TokenPair
	req := models.LoginRequest{Username: username, Verifier: hex.EncodeToString(verifier)}
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, req, &tokens); err != nil {
		return models.TokenPair{}, err
	}
	c.SetTokens(tokens)
	return tokens, nil
}

// Logout revokes the refresh token on the server and forgets both tokens.
// The local tokens are dropped even when the server cannot be reached.
func (c *RESTClient) Logout(ctx context.Context) error {
	t := c.currentTokens()
	c.SetTokens(models.TokenPair{})
	if t.RefreshToken == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", false, models.RefreshRequest{RefreshToken: t.RefreshToken}, nil)
}

// refresh rotates the token pair. stale is the access token that the server
// rejected; if another request already replaced it, nothing is sent.
func (c *RESTClient) refresh(ctx context.Context, stale string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokens.AccessToken != stale {
		return nil
	}
	if c.tokens.RefreshToken == "" {
		return common.ErrorUnauthorized
	}

	var fresh models.TokenPair
	err := c.send(ctx, http.MethodPost, "/auth/refresh", "", models.RefreshRequest{RefreshToken: c.tokens.RefreshToken}, &fresh)
	if err != nil {
		return err
	}
	c.tokens = fresh
	if c.onRefresh != nil {
		c.onRefresh(fresh)
	}
	c.logger.Debug(ctx, "access token refreshed")
	return nil
}

func (c *RESTClient) CreateVault(ctx context.Context, name string, salt cryptox.Salt, hint string) (*models.Vault, error) {
	var dto models.VaultDTO
	req := models.CreateVaultRequest{VaultName: name, KDFSalt: codec.EncodeSalt(salt), Hint: hint}
	if err := c.do(ctx, http.MethodPost, "/vaults", true, req, &dto); err != nil {
		return nil, err
	}
	return models.FromVaultDTO(dto)
}

func (c *RESTClient) ListVaults(ctx context.Context) ([]*models.Vault, error) {
	var dtos []models.VaultDTO
	if err := c.do(ctx, http.MethodGet, "/vaults", true, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]*models.Vault, 0, len(dtos))
	for _, d := range dtos {
		v, err := models.FromVaultDTO(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// CreateArtifact uploads sealed output. Structurally invalid input is
// rejected before anything is sent.
func (c *RESTClient) CreateArtifact(ctx context.Context, vaultID string, mt models.MessageType, blob, iv []byte) (*models.Artifact, error) {
	if _, err := models.ParseMessageType(mt.String()); err != nil {
		return nil, err
	}
	if err := models.ValidateSealed(blob, iv); err != nil {
		return nil, err
	}

	var dto models.ArtifactDTO
	req := models.NewCreateArtifactRequest(mt, blob, iv)
	if err := c.do(ctx, http.MethodPost, vaultPath(vaultID, "artifacts"), true, req, &dto); err != nil {
		return nil, err
	}
	return models.FromArtifactDTO(dto)
}

func (c *RESTClient) ListArtifacts(ctx context.Context, vaultID string) (*models.Vault, []*models.Artifact, error) {
	var resp models.ListArtifactsResponse
	if err := c.do(ctx, http.MethodGet, vaultPath(vaultID, "artifacts"), true, nil, &resp); err != nil {
		return nil, nil, err
	}

	v, err := models.FromVaultDTO(models.VaultDTO{
		ID:        vaultID,
		VaultName: resp.VaultName,
		KDFSalt:   resp.KDFSalt,
		Hint:      resp.Hint,
		CreatedAt: resp.CreatedAt,
	})
	if err != nil {
		return nil, nil, err
	}

	arts := make([]*models.Artifact, 0, len(resp.Artifacts))
	for _, d := range resp.Artifacts {
		a, err := models.FromArtifactDTO(d)
		if err != nil {
			return nil, nil, err
		}
		arts = append(arts, a)
	}
	return v, arts, nil
}

func (c *RESTClient) PresignUpload(ctx context.Context, vaultID string) (models.UploadURLResponse, error) {
	var resp models.UploadURLResponse
	err := c.do(ctx, http.MethodPost, vaultPath(vaultID, "objects"), true, nil, &resp)
	return resp, err
}

func (c *RESTClient) PresignDownload(ctx context.Context, vaultID, objectKey string) (models.DownloadURLResponse, error) {
	var resp models.DownloadURLResponse
	path := vaultPath(vaultID, "objects") + "?" + url.Values{"key": {objectKey}}.Encode()
	err := c.do(ctx, http.MethodGet, path, true, nil, &resp)
	return resp, err
}

func vaultPath(vaultID, sub string) string {
	return "/vaults/" + url.PathEscape(vaultID) + "/" + sub
}

// do sends one API call. When auth is set and the server reports an expired
// access token, the pair is refreshed and the call is replayed once. The
// server rejects such calls before doing any work, so replaying a POST here
// cannot duplicate a write.
func (c *RESTClient) do(ctx context.Context, method, path string, auth bool, in, out any) error {
	if !auth {
		return c.send(ctx, method, path, "", in, out)
	}

	token := c.currentTokens().AccessToken
	if token == "" {
		return common.ErrorUnauthorized
	}

	err := c.send(ctx, method, path, token, in, out)
	if !errors.Is(err, common.ErrTokenExpired) {
		return err
	}

	if rerr := c.refresh(ctx, token); rerr != nil {
		return rerr
	}
	return c.send(ctx, method, path, c.currentTokens().AccessToken, in, out)
}

func (c *RESTClient) send(ctx context.Context, method, path, token string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = b
	}

	resp, err := c.roundTrip(ctx, method, c.baseURL+path, token, body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *RESTClient) roundTrip(ctx context.Context, method, u, token string, body []byte) (*http.Response, error) {
	if method == http.MethodGet {
		req, err := retryablehttp.NewRequestWithContext(ctx, method, u, nil)
		if err != nil {
			return nil, err
		}
		setHeaders(req.Header, token, false)
		return c.retry.Do(req)
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	setHeaders(req.Header, token, body != nil)
	return c.plain.Do(req)
}

func setHeaders(h http.Header, token string, hasBody bool) {
	h.Set("Accept", "application/json")
	if hasBody {
		h.Set("Content-Type", "application/json")
	}
	if token != "" {
		h.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
}

func decodeError(resp *http.Response) error {
	var body models.ErrorResponse
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(b, &body); err != nil || body.Code == "" {
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
		}
		body.Code = codeFromStatus(resp.StatusCode)
		body.Message = http.StatusText(resp.StatusCode)
	}
	return &ResponseError{
		Status:    resp.StatusCode,
		Code:      body.Code,
		Message:   body.Message,
		RequestID: body.RequestID,
	}
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codeValidationError
	case http.StatusUnauthorized:
		return codeUnauthorized
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusConflict:
		return codeConflict
	default:
		return codeInternalError
	}
}

// leveledLogger adapts logging.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l logging.Logger
}

func (a leveledLogger) Error(msg string, kv ...interface{}) {
	a.l.Error(context.Background(), msg, kv...)
}

func (a leveledLogger) Warn(msg string, kv ...interface{}) {
	a.l.Warn(context.Background(), msg, kv...)
}

func (a leveledLogger) Info(msg string, kv ...interface{}) {
	a.l.Debug(context.Background(), msg, kv...)
}

func (a leveledLogger) Debug(msg string, kv ...interface{}) {
	a.l.Debug(context.Background(), msg, kv...)
}
