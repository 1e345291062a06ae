package oauth

import (
	"sync"

	"github.com/colinaird/pomblock/internal/keyring"
	"github.com/colinaird/pomblock/internal/models"
)

// KeyringStore is the production TokenStore backed by the OS keyring.
type KeyringStore struct{}

func (KeyringStore) Load(accountID string) (models.OAuthToken, bool, error) {
	token, err := keyring.GetToken(accountID)
	if err == keyring.ErrNotFound {
		return models.OAuthToken{}, false, nil
	}
	if err != nil {
		return models.OAuthToken{}, false, err
	}
	return token, true, nil
}

func (KeyringStore) Save(accountID string, token models.OAuthToken) error {
	return keyring.SetToken(accountID, token)
}

func (KeyringStore) Delete(accountID string) error {
	err := keyring.DeleteToken(accountID)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

// MemoryStore is an in-memory TokenStore for tests and dry runs.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]models.OAuthToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]models.OAuthToken)}
}

func (s *MemoryStore) Load(accountID string) (models.OAuthToken, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[accountID]
	return token, ok, nil
}

func (s *MemoryStore) Save(accountID string, token models.OAuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[accountID] = token
	return nil
}

func (s *MemoryStore) Delete(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, accountID)
	return nil
}
