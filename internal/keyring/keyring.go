package keyring

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/colinaird/pomblock/internal/constants"
	"github.com/colinaird/pomblock/internal/models"
	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when no token is stored for the account
	ErrNotFound = errors.New("token not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetToken retrieves the OAuth token for an account from the OS keyring.
// Returns ErrNotFound if no token is stored.
func GetToken(accountID string) (models.OAuthToken, error) {
	raw, err := keyring.Get(constants.KeyringService, accountID)
	if err != nil {
		if err == keyring.ErrNotFound {
			return models.OAuthToken{}, ErrNotFound
		}
		return models.OAuthToken{}, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	var token models.OAuthToken
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return models.OAuthToken{}, fmt.Errorf("failed to parse stored token: %w", err)
	}
	return token, nil
}

// SetToken stores the OAuth token for an account in the OS keyring.
func SetToken(accountID string, token models.OAuthToken) error {
	if token.AccessToken == "" {
		return errors.New("access token cannot be empty")
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}
	if err := keyring.Set(constants.KeyringService, accountID, string(raw)); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the OAuth token for an account from the OS keyring.
func DeleteToken(accountID string) error {
	err := keyring.Delete(constants.KeyringService, accountID)
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.KeyringService, "test-availability")
	// ErrNotFound means the keyring works but holds nothing for the probe key
	return err == nil || err == keyring.ErrNotFound
}
