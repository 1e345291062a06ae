package oauth

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

const (
	defaultTokenEndpoint         = "https://oauth2.googleapis.com/token"
	defaultAuthorizationEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

	// tokenLeeway is how long before expiry a token is treated as invalid
	tokenLeeway = 60 * time.Second
)

// CalendarScope grants read/write access to the user's calendars.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// Config holds the OAuth client registration.
type Config struct {
	ClientID              string
	ClientSecret          string
	RedirectURI           string
	Scopes                []string
	TokenEndpoint         string
	AuthorizationEndpoint string
}

// NewConfig returns a Config pointed at Google's endpoints.
func NewConfig(clientID, clientSecret, redirectURI string, scopes []string) Config {
	return Config{
		ClientID:              clientID,
		ClientSecret:          clientSecret,
		RedirectURI:           redirectURI,
		Scopes:                scopes,
		TokenEndpoint:         defaultTokenEndpoint,
		AuthorizationEndpoint: defaultAuthorizationEndpoint,
	}
}

// ConfigFromEnv builds a Config from environment variables. The
// POMBLOCK_-prefixed names win over the bare Google names.
func ConfigFromEnv() (Config, error) {
	clientID := firstEnv("POMBLOCK_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	if clientID == "" {
		return Config{}, apperrors.New(apperrors.KindCredential, "POMBLOCK_GOOGLE_CLIENT_ID is not set")
	}
	clientSecret := firstEnv("POMBLOCK_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")
	if clientSecret == "" {
		return Config{}, apperrors.New(apperrors.KindCredential, "POMBLOCK_GOOGLE_CLIENT_SECRET is not set")
	}
	redirect := firstEnv("POMBLOCK_GOOGLE_REDIRECT_URI", "GOOGLE_REDIRECT_URI")
	if redirect == "" {
		redirect = "http://localhost:8585/oauth2/callback"
	}
	return NewConfig(clientID, clientSecret, redirect, []string{CalendarScope}), nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// TokenStore persists OAuth tokens per account.
type TokenStore interface {
	Load(accountID string) (models.OAuthToken, bool, error)
	Save(accountID string, token models.OAuthToken) error
	Delete(accountID string) error
}

// TokenClient talks to the OAuth token endpoint.
type TokenClient interface {
	ExchangeCode(ctx context.Context, req ExchangeRequest) (TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (TokenResponse, error)
}

// ExchangeRequest carries an authorization-code grant.
type ExchangeRequest struct {
	TokenEndpoint string
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	Code          string
}

// RefreshRequest carries a refresh-token grant.
type RefreshRequest struct {
	TokenEndpoint string
	ClientID      string
	ClientSecret  string
	RefreshToken  string
}

// TokenResponse is the token endpoint's success payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// EnsureStatus classifies the outcome of EnsureToken.
type EnsureStatus int

const (
	// StatusExisting means the stored token was still valid.
	StatusExisting EnsureStatus = iota
	// StatusRefreshed means a new access token was obtained via refresh.
	StatusRefreshed
	// StatusReauthenticationRequired means the user must sign in again.
	StatusReauthenticationRequired
)

func (s EnsureStatus) String() string {
	switch s {
	case StatusExisting:
		return "existing"
	case StatusRefreshed:
		return "refreshed"
	case StatusReauthenticationRequired:
		return "reauthentication_required"
	default:
		return "unknown"
	}
}

// EnsureResult is the outcome of EnsureToken. Token is zero when Status
// is StatusReauthenticationRequired.
type EnsureResult struct {
	Status EnsureStatus
	Token  models.OAuthToken
}

// Manager owns the token lifecycle for one account.
type Manager struct {
	config    Config
	store     TokenStore
	client    TokenClient
	accountID string
	now       func() time.Time
}

func NewManager(config Config, store TokenStore, client TokenClient, accountID string) *Manager {
	return &Manager{
		config:    config,
		store:     store,
		client:    client,
		accountID: accountID,
		now:       time.Now,
	}
}

// WithNow overrides the clock. Tests only.
func (m *Manager) WithNow(now func() time.Time) *Manager {
	m.now = now
	return m
}

// BuildAuthorizationURL returns the consent URL the user must visit.
// Offline access with forced consent guarantees a refresh token.
func (m *Manager) BuildAuthorizationURL(state string) (string, error) {
	if strings.TrimSpace(state) == "" {
		return "", apperrors.New(apperrors.KindCredential, "state must not be empty")
	}
	if len(m.config.Scopes) == 0 {
		return "", apperrors.New(apperrors.KindCredential, "at least one scope is required")
	}
	u, err := url.Parse(m.config.AuthorizationEndpoint)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindCredential, err, "invalid authorization endpoint")
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", m.config.ClientID)
	q.Set("redirect_uri", m.config.RedirectURI)
	q.Set("scope", strings.Join(m.config.Scopes, " "))
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AuthenticateWithCode exchanges an authorization code and stores the
// resulting token.
func (m *Manager) AuthenticateWithCode(ctx context.Context, code string) (models.OAuthToken, error) {
	if strings.TrimSpace(code) == "" {
		return models.OAuthToken{}, apperrors.New(apperrors.KindCredential, "authorization code must not be empty")
	}
	resp, err := m.client.ExchangeCode(ctx, ExchangeRequest{
		TokenEndpoint: m.config.TokenEndpoint,
		ClientID:      m.config.ClientID,
		ClientSecret:  m.config.ClientSecret,
		RedirectURI:   m.config.RedirectURI,
		Code:          code,
	})
	if err != nil {
		return models.OAuthToken{}, err
	}
	token := m.tokenFromResponse(resp, "")
	if err := m.store.Save(m.accountID, token); err != nil {
		return models.OAuthToken{}, err
	}
	return token, nil
}

// EnsureToken returns a usable access token, refreshing when possible.
// A missing token, a missing refresh token, or a rejected refresh all
// report StatusReauthenticationRequired; transport failures surface as
// errors so the caller can retry.
func (m *Manager) EnsureToken(ctx context.Context) (EnsureResult, error) {
	stored, ok, err := m.store.Load(m.accountID)
	if err != nil {
		return EnsureResult{}, err
	}
	if !ok {
		return EnsureResult{Status: StatusReauthenticationRequired}, nil
	}

	if stored.IsValidAt(m.now(), tokenLeeway) {
		return EnsureResult{Status: StatusExisting, Token: stored}, nil
	}

	if stored.RefreshToken == "" {
		return EnsureResult{Status: StatusReauthenticationRequired}, nil
	}

	resp, err := m.client.Refresh(ctx, RefreshRequest{
		TokenEndpoint: m.config.TokenEndpoint,
		ClientID:      m.config.ClientID,
		ClientSecret:  m.config.ClientSecret,
		RefreshToken:  stored.RefreshToken,
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnauthenticated {
			return EnsureResult{Status: StatusReauthenticationRequired}, nil
		}
		return EnsureResult{}, err
	}

	token := m.tokenFromResponse(resp, stored.RefreshToken)
	if err := m.store.Save(m.accountID, token); err != nil {
		return EnsureResult{}, err
	}
	return EnsureResult{Status: StatusRefreshed, Token: token}, nil
}

// ClearStoredToken removes the account's token from the store.
func (m *Manager) ClearStoredToken() error {
	return m.store.Delete(m.accountID)
}

func (m *Manager) tokenFromResponse(resp TokenResponse, fallbackRefresh string) models.OAuthToken {
	expiresIn := resp.ExpiresIn
	if expiresIn < 0 {
		expiresIn = 0
	}
	refresh := resp.RefreshToken
	if refresh == "" {
		refresh = fallbackRefresh
	}
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return models.OAuthToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    m.now().Add(time.Duration(expiresIn) * time.Second),
		TokenType:    tokenType,
		Scope:        resp.Scope,
	}
}
