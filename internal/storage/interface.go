// Package storage defines the durable state surface behind the sync and
// generation engines.
package storage

import "github.com/colinaird/pomblock/internal/models"

// Provider persists sync state and suppressions. Implementations exist
// for SQLite and PostgreSQL.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Sync state, one record per calendar account
	GetSyncState(accountID string) (models.SyncState, bool, error)
	SaveSyncState(accountID string, state models.SyncState) error
	ClearSyncState(accountID string) error

	// Suppressions, keyed by block instance
	AddSuppressions(sups []models.Suppression) error
	GetSuppression(instanceKey string) (models.Suppression, bool, error)
	ListSuppressions() ([]models.Suppression, error)
	RemoveSuppression(instanceKey string) error
}
