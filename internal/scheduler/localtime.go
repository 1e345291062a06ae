package scheduler

import (
	"strconv"
	"strings"
	"time"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
)

// ResolveLocalTime converts a date plus an HH:MM wall clock in the given
// zone into an absolute instant. During a DST fallback the wall clock
// occurs twice; the earlier instant is used. During a spring-forward the
// wall clock does not exist and the plan fails with a diagnostic.
func ResolveLocalTime(date, hhmm string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(constants.DateFormat, date, loc)
	if err != nil {
		return time.Time{}, apperrors.New(apperrors.KindInvalidConfig,
			"date must be YYYY-MM-DD, got %q", date)
	}
	hour, minute, err := parseHHMM(hhmm)
	if err != nil {
		return time.Time{}, err
	}

	candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	if candidate.Hour() != hour || candidate.Minute() != minute {
		return time.Time{}, apperrors.New(apperrors.KindInvalidConfig,
			"local time %s %s does not exist in %s (clock skips forward)",
			date, hhmm, loc)
	}
	// Fallback transitions repeat the wall clock an hour earlier on the
	// absolute timeline.
	if earlier := candidate.Add(-time.Hour); earlier.Hour() == hour && earlier.Minute() == minute {
		return earlier, nil
	}
	return candidate, nil
}

func parseHHMM(value string) (hour, minute int, err error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, apperrors.New(apperrors.KindInvalidConfig,
			"time of day must be HH:MM, got %q", value)
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, apperrors.New(apperrors.KindInvalidConfig,
			"time of day must be HH:MM, got %q", value)
	}
	return hour, minute, nil
}
