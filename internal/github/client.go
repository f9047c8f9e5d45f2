// Package github supplies per-project activity snapshots from the GitHub
// REST API. It is a boundary collaborator: a failed fetch for one repository
// yields an absent snapshot, never an error that aborts a scan.
package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gogithub "github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"

	"github.com/devdeck/devdeck/internal/retry"
	"github.com/devdeck/devdeck/pkg/tokencache"
)

// Client wraps the GitHub API with PAT or App authentication.
type Client struct {
	// PAT mode
	token string

	// App mode
	appID          int64
	installationID int64
	privateKey     *rsa.PrivateKey
	cache          tokencache.Cache

	httpClient *http.Client
	retryCfg   retry.Config
	logger     zerolog.Logger
}

// NewClient creates a client authenticated with a personal access token.
func NewClient(token string, logger zerolog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryCfg:   retry.DefaultConfig(),
		logger:     logger.With().Str("component", "github").Logger(),
	}
}

// NewAppClient creates a client authenticated as a GitHub App installation.
// Installation tokens are minted on demand and cached until near expiry.
func NewAppClient(appID, installationID int64, privateKeyPath string, cache tokencache.Cache, logger zerolog.Logger) (*Client, error) {
	keyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	return NewAppClientFromKeyBytes(appID, installationID, keyData, cache, logger)
}

// NewAppClientFromKeyBytes creates an App client from PEM key bytes (useful
// for testing).
func NewAppClientFromKeyBytes(appID, installationID int64, keyData []byte, cache tokencache.Cache, logger zerolog.Logger) (*Client, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyData)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &Client{
		appID:          appID,
		installationID: installationID,
		privateKey:     key,
		cache:          cache,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		retryCfg:       retry.DefaultConfig(),
		logger:         logger.With().Str("component", "github").Logger(),
	}, nil
}

// appMode reports whether this client authenticates as a GitHub App.
func (c *Client) appMode() bool { return c.privateKey != nil }

// api returns a go-github client carrying current credentials.
func (c *Client) api(ctx context.Context) (*gogithub.Client, error) {
	if !c.appMode() {
		return gogithub.NewClient(c.httpClient).WithAuthToken(c.token), nil
	}

	token, err := c.installationToken(ctx)
	if err != nil {
		return nil, err
	}
	return gogithub.NewClient(&http.Client{
		Transport: &tokenTransport{token: token, base: http.DefaultTransport},
		Timeout:   30 * time.Second,
	}), nil
}

// Ping verifies the credentials by hitting the rate-limit endpoint, which is
// free on quota. Used by the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	_, _, err = api.RateLimit.Get(ctx)
	return err
}

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.Header.Set("Authorization", "token "+t.token)
	return t.base.RoundTrip(req2)
}
