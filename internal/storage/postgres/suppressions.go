package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/colinaird/pomblock/internal/models"
)

func (s *Store) AddSuppressions(sups []models.Suppression) error {
	if len(sups) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, sup := range sups {
		_, err := tx.Exec(`
			INSERT INTO suppressions (instance, reason, suppressed_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (instance) DO UPDATE SET
				reason = EXCLUDED.reason,
				suppressed_at = EXCLUDED.suppressed_at`,
			sup.InstanceKey, sup.Reason, sup.SuppressedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to add suppression %s: %w", sup.InstanceKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit suppressions: %w", err)
	}
	return nil
}

func (s *Store) GetSuppression(instanceKey string) (models.Suppression, bool, error) {
	var reason sql.NullString
	var suppressedAt string
	err := s.db.QueryRow(
		"SELECT reason, suppressed_at FROM suppressions WHERE instance = $1",
		instanceKey,
	).Scan(&reason, &suppressedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Suppression{}, false, nil
	}
	if err != nil {
		return models.Suppression{}, false, fmt.Errorf("failed to read suppression: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, suppressedAt)
	if err != nil {
		return models.Suppression{}, false, fmt.Errorf("invalid suppressed_at %q: %w", suppressedAt, err)
	}
	return models.Suppression{
		InstanceKey:  instanceKey,
		Reason:       reason.String,
		SuppressedAt: parsed,
	}, true, nil
}

func (s *Store) ListSuppressions() ([]models.Suppression, error) {
	rows, err := s.db.Query("SELECT instance, reason, suppressed_at FROM suppressions ORDER BY instance")
	if err != nil {
		return nil, fmt.Errorf("failed to list suppressions: %w", err)
	}
	defer rows.Close()

	var sups []models.Suppression
	for rows.Next() {
		var instance, suppressedAt string
		var reason sql.NullString
		if err := rows.Scan(&instance, &reason, &suppressedAt); err != nil {
			return nil, fmt.Errorf("failed to scan suppression: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, suppressedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid suppressed_at %q: %w", suppressedAt, err)
		}
		sups = append(sups, models.Suppression{
			InstanceKey:  instance,
			Reason:       reason.String,
			SuppressedAt: parsed,
		})
	}
	return sups, rows.Err()
}

func (s *Store) RemoveSuppression(instanceKey string) error {
	if _, err := s.db.Exec("DELETE FROM suppressions WHERE instance = $1", instanceKey); err != nil {
		return fmt.Errorf("failed to remove suppression: %w", err)
	}
	return nil
}
