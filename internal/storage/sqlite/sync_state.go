package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/colinaird/pomblock/internal/models"
)

func (s *Store) GetSyncState(accountID string) (models.SyncState, bool, error) {
	var token sql.NullString
	var lastSync string
	err := s.db.QueryRow(
		"SELECT continuation_token, last_sync_time FROM sync_state WHERE account_id = ?",
		accountID,
	).Scan(&token, &lastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncState{}, false, nil
	}
	if err != nil {
		return models.SyncState{}, false, fmt.Errorf("failed to read sync state: %w", err)
	}

	state := models.SyncState{ContinuationToken: token.String}
	if lastSync != "" {
		parsed, err := time.Parse(time.RFC3339, lastSync)
		if err != nil {
			return models.SyncState{}, false, fmt.Errorf("invalid last_sync_time %q: %w", lastSync, err)
		}
		state.LastSyncTime = parsed
	}
	return state, true, nil
}

func (s *Store) SaveSyncState(accountID string, state models.SyncState) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (account_id, continuation_token, last_sync_time)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			continuation_token = excluded.continuation_token,
			last_sync_time = excluded.last_sync_time`,
		accountID, state.ContinuationToken, state.LastSyncTime.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	return nil
}

func (s *Store) ClearSyncState(accountID string) error {
	if _, err := s.db.Exec("DELETE FROM sync_state WHERE account_id = ?", accountID); err != nil {
		return fmt.Errorf("failed to clear sync state: %w", err)
	}
	return nil
}
