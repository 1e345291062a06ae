package models

import "time"

// OAuthToken is the stored credential for one calendar account.
type OAuthToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
}

// IsValidAt reports whether the access token is still usable at now,
// applying the given expiry leeway.
func (t OAuthToken) IsValidAt(now time.Time, leeway time.Duration) bool {
	if t.AccessToken == "" {
		return false
	}
	return now.Add(leeway).Before(t.ExpiresAt)
}
