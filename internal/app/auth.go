package app

import (
	"context"
	"strings"
	"time"

	"github.com/colinaird/pomblock/internal/logger"
	"github.com/colinaird/pomblock/internal/oauth"
)

// Authentication statuses reported to the host.
const (
	AuthStatusAuthenticated = "authenticated"
	AuthStatusAuthURL       = "authorization_required"
)

// AuthResult is the outcome of AuthenticateGoogle.
type AuthResult struct {
	Status           string     `json:"status"`
	AuthorizationURL string     `json:"authorization_url,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// AuthenticateGoogle either exchanges an authorization code for tokens,
// reuses or refreshes a stored token, or hands back the URL the user
// must visit to grant access.
func (a *App) AuthenticateGoogle(ctx context.Context, accountID, code string) (AuthResult, error) {
	accountID = a.account(accountID)
	mgr := a.manager(accountID)

	if code = strings.TrimSpace(code); code != "" {
		token, err := mgr.AuthenticateWithCode(ctx, code)
		if err != nil {
			logger.CommandError("authenticate_google", err.Error())
			return AuthResult{}, err
		}
		logger.CommandInfo("authenticate_google", "exchanged authorization code for account "+accountID)
		expires := token.ExpiresAt
		return AuthResult{Status: AuthStatusAuthenticated, ExpiresAt: &expires}, nil
	}

	res, err := mgr.EnsureToken(ctx)
	if err != nil {
		logger.CommandError("authenticate_google", err.Error())
		return AuthResult{}, err
	}
	if res.Status == oauth.StatusReauthenticationRequired {
		url, err := mgr.BuildAuthorizationURL(a.newID("state"))
		if err != nil {
			return AuthResult{}, err
		}
		logger.CommandInfo("authenticate_google", "authorization required for account "+accountID)
		return AuthResult{Status: AuthStatusAuthURL, AuthorizationURL: url}, nil
	}

	logger.CommandInfo("authenticate_google", "token "+res.Status.String()+" for account "+accountID)
	expires := res.Token.ExpiresAt
	return AuthResult{Status: AuthStatusAuthenticated, ExpiresAt: &expires}, nil
}

// accessToken returns a usable access token for the account, or ok=false
// when the user must re-authenticate. Transport failures surface as
// errors.
func (a *App) accessToken(ctx context.Context, accountID string) (string, bool, error) {
	res, err := a.manager(accountID).EnsureToken(ctx)
	if err != nil {
		return "", false, err
	}
	if res.Status == oauth.StatusReauthenticationRequired {
		return "", false, nil
	}
	return res.Token.AccessToken, true, nil
}
