package models

import (
	"strings"
	"time"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
)

func validationError(msg string) error {
	return apperrors.New(apperrors.KindInvalidConfig, "%s", msg)
}

func requireNonEmpty(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return validationError(field + " must not be empty")
	}
	return nil
}

func requireDate(value, field string) error {
	if _, err := time.Parse(constants.DateFormat, value); err != nil {
		return validationError(field + " must be a YYYY-MM-DD date")
	}
	return nil
}

func requireHHMM(value, field string) error {
	if _, err := time.Parse(constants.TimeFormat, value); err != nil {
		return validationError(field + " must be a HH:MM time")
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
