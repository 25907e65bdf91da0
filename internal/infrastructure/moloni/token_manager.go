package moloni

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/infrastructure/credential"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TokenState classifies a stored token by age
type TokenState int

const (
	// TokenStale means there is no usable refresh token; a password grant is needed
	TokenStale TokenState = iota
	// TokenNearExpiry means the access token is about to expire but can be refreshed
	TokenNearExpiry
	// TokenFresh means the stored access token can be used as is
	TokenFresh
)

func (s TokenState) String() string {
	switch s {
	case TokenFresh:
		return "fresh"
	case TokenNearExpiry:
		return "near_expiry"
	default:
		return "stale"
	}
}

const (
	expirySafetyMargin = 300 * time.Second
	refreshTokenMaxAge = 14 * 24 * time.Hour
)

// State returns the freshness state of rec at now. A nil record is stale.
func State(rec *credential.TokenRecord, now time.Time) TokenState {
	if rec == nil {
		return TokenStale
	}
	age := now.Sub(rec.CreatedAt)
	switch {
	case age > refreshTokenMaxAge:
		return TokenStale
	case age >= time.Duration(rec.ExpiresIn)*time.Second-expirySafetyMargin:
		return TokenNearExpiry
	default:
		return TokenFresh
	}
}

// TokenStore persists the single token record
type TokenStore interface {
	Load(ctx context.Context) (*credential.TokenRecord, error)
	Save(ctx context.Context, rec *credential.TokenRecord) error
}

// grantResponse is the body of a successful grant exchange
type grantResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
}

// TokenManager yields a valid access token, refreshing or re-granting as needed
type TokenManager struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	settings   integration.SettingsProvider
	logger     *zap.Logger
	metrics    *telemetry.Metrics
	now        func() time.Time
}

// TokenManagerOption configures a TokenManager
type TokenManagerOption func(*TokenManager)

// WithTokenClock overrides the clock, for tests
func WithTokenClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) { m.now = now }
}

// WithTokenMetrics records grant outcomes
func WithTokenMetrics(metrics *telemetry.Metrics) TokenManagerOption {
	return func(m *TokenManager) { m.metrics = metrics }
}

// NewTokenManager creates a token manager
func NewTokenManager(
	cfg Config,
	httpClient *http.Client,
	store TokenStore,
	settings integration.SettingsProvider,
	log *zap.Logger,
	opts ...TokenManagerOption,
) *TokenManager {
	m := &TokenManager{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		store:      store,
		settings:   settings,
		logger:     log.Named("moloni.token"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AccessToken returns a usable access token, false when none can be obtained
func (m *TokenManager) AccessToken(ctx context.Context) (string, bool) {
	log := logger.WithLogger(ctx, m.logger)

	rec, err := m.store.Load(ctx)
	if err != nil {
		log.Warn("Stored token unreadable, treating as absent", zap.Error(err))
		rec = nil
	}

	settings, err := m.settings.Current(ctx)
	if err != nil {
		log.Error("Cannot load store settings for token exchange", zap.Error(err))
		return "", false
	}

	switch State(rec, m.now()) {
	case TokenFresh:
		return rec.AccessToken, true
	case TokenNearExpiry:
		return m.exchange(ctx, "refresh_token", url.Values{
			"grant_type":    {"refresh_token"},
			"client_id":     {settings.ClientID},
			"client_secret": {settings.ClientSecret},
			"refresh_token": {rec.RefreshToken},
		})
	default:
		return m.exchange(ctx, "password", url.Values{
			"grant_type":    {"password"},
			"client_id":     {settings.ClientID},
			"client_secret": {settings.ClientSecret},
			"username":      {settings.Username},
			"password":      {settings.Password},
		})
	}
}

func (m *TokenManager) exchange(ctx context.Context, grant string, params url.Values) (string, bool) {
	log := logger.WithLogger(ctx, m.logger).With(zap.String("grant_type", grant))

	tok, err := m.requestGrant(ctx, params)
	if err != nil {
		m.metrics.ObserveTokenGrant(grant, false)
		log.Warn("Token grant failed", zap.Error(err))
		return "", false
	}
	m.metrics.ObserveTokenGrant(grant, true)

	rec := &credential.TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		TokenType:    tok.TokenType,
		Scope:        tok.Scope,
		CreatedAt:    m.now(),
	}
	if err := m.store.Save(ctx, rec); err != nil {
		// The token is still valid for this call.
		log.Error("Failed to persist token", zap.Error(err))
	}
	return rec.AccessToken, true
}

func (m *TokenManager) requestGrant(ctx context.Context, params url.Values) (*grantResponse, error) {
	endpoint := strings.TrimSuffix(m.baseURL, "/") + "/grant/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build grant request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grant transport: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read grant response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("grant rejected: HTTP %d", resp.StatusCode)
	}

	var tok grantResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decode grant response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("grant response carries no access token")
	}
	return &tok, nil
}
