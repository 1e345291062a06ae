package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/colinaird/pomblock/internal/errors"
)

// HTTPTokenClient is the production TokenClient over net/http.
type HTTPTokenClient struct {
	client *http.Client
}

func NewHTTPTokenClient() *HTTPTokenClient {
	return &HTTPTokenClient{client: &http.Client{Timeout: 30 * time.Second}}
}

func (c *HTTPTokenClient) ExchangeCode(ctx context.Context, req ExchangeRequest) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", req.Code)
	form.Set("client_id", req.ClientID)
	form.Set("client_secret", req.ClientSecret)
	form.Set("redirect_uri", req.RedirectURI)
	return c.post(ctx, req.TokenEndpoint, form)
}

func (c *HTTPTokenClient) Refresh(ctx context.Context, req RefreshRequest) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", req.RefreshToken)
	form.Set("client_id", req.ClientID)
	form.Set("client_secret", req.ClientSecret)
	return c.post(ctx, req.TokenEndpoint, form)
}

// tokenError is the OAuth error payload (RFC 6749 section 5.2).
type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (c *HTTPTokenClient) post(ctx context.Context, endpoint string, form url.Values) (TokenResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, apperrors.Wrap(apperrors.KindCredential, err, "failed to build token request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return TokenResponse{}, apperrors.Wrap(apperrors.KindGatewayTransient, err, "token endpoint request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return TokenResponse{}, apperrors.Wrap(apperrors.KindGatewayTransient, err, "failed to read token response")
	}

	if resp.StatusCode != http.StatusOK {
		var te tokenError
		if json.Unmarshal(body, &te) == nil && te.Error != "" {
			return TokenResponse{}, apperrors.New(apperrors.KindUnauthenticated, "token endpoint rejected request: %s (%s)", te.Error, te.Description)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return TokenResponse{}, apperrors.New(apperrors.KindGatewayTransient, "token endpoint returned %d", resp.StatusCode)
		}
		return TokenResponse{}, apperrors.New(apperrors.KindUnauthenticated, "token endpoint returned %d", resp.StatusCode)
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return TokenResponse{}, apperrors.Wrap(apperrors.KindSerialization, err, "failed to parse token response")
	}
	if tr.AccessToken == "" {
		return TokenResponse{}, apperrors.New(apperrors.KindUnauthenticated, "token response missing access token")
	}
	return tr, nil
}
