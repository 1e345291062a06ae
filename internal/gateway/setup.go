package gateway

import (
	"context"

	"github.com/colinaird/pomblock/internal/config"
	"github.com/colinaird/pomblock/internal/constants"
)

// SetupOutcome describes how the blocks calendar was obtained.
type SetupOutcome int

const (
	// OutcomeReused means a stored calendar id was still configured.
	OutcomeReused SetupOutcome = iota
	// OutcomeLinkedExisting means a remote calendar matched by name.
	OutcomeLinkedExisting
	// OutcomeCreated means a fresh calendar was created.
	OutcomeCreated
)

func (o SetupOutcome) String() string {
	switch o {
	case OutcomeReused:
		return "reused"
	case OutcomeLinkedExisting:
		return "linked_existing"
	case OutcomeCreated:
		return "created"
	default:
		return "unknown"
	}
}

// SetupResult pairs the outcome with the resolved calendar id.
type SetupResult struct {
	Outcome    SetupOutcome
	CalendarID string
}

// EnsureBlocksCalendar resolves the dedicated blocks calendar for an
// account, preferring the configured id, then an existing remote
// calendar with the configured name, then creating one.
func EnsureBlocksCalendar(ctx context.Context, cfg *config.Store, gw Gateway, accountID, accessToken string) (SetupResult, error) {
	if err := cfg.EnsureDefaults(); err != nil {
		return SetupResult{}, err
	}

	calendars, err := cfg.LoadCalendars()
	if err != nil {
		return SetupResult{}, err
	}
	if id := calendars.BlocksCalendarID(accountID); id != "" {
		return SetupResult{Outcome: OutcomeReused, CalendarID: id}, nil
	}

	policies, err := cfg.LoadPolicies()
	if err != nil {
		return SetupResult{}, err
	}
	appCfg, err := cfg.LoadApp()
	if err != nil {
		return SetupResult{}, err
	}
	name := appCfg.BlocksCalendarName
	if name == "" {
		name = constants.DefaultBlocksCalendarName
	}
	timezone := policies.Policy.Timezone

	remote, err := gw.ListCalendars(ctx, accessToken)
	if err != nil {
		return SetupResult{}, err
	}
	for _, cal := range remote {
		if cal.Summary == name {
			calendars.SetBlocksCalendarID(accountID, cal.ID)
			if err := cfg.SaveCalendars(calendars); err != nil {
				return SetupResult{}, err
			}
			return SetupResult{Outcome: OutcomeLinkedExisting, CalendarID: cal.ID}, nil
		}
	}

	created, err := gw.CreateCalendar(ctx, accessToken, name, timezone)
	if err != nil {
		return SetupResult{}, err
	}
	calendars.SetBlocksCalendarID(accountID, created.ID)
	if err := cfg.SaveCalendars(calendars); err != nil {
		return SetupResult{}, err
	}
	return SetupResult{Outcome: OutcomeCreated, CalendarID: created.ID}, nil
}
