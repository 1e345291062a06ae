package gateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

// Private metadata keys round-tripped through the calendar service.
const (
	keyBlockID       = "bs_block_id"
	keyInstance      = "bs_instance"
	keyDate          = "bs_date"
	keyBlockType     = "bs_block_type"
	keyFirmness      = "bs_firmness"
	keySource        = "bs_source"
	keySourceID      = "bs_source_id"
	keyPlannedCycles = "bs_planned_cycles"
)

// BlockInstanceKey returns the block instance an event carries in its
// private metadata, or "" for plain calendar events.
func BlockInstanceKey(event models.RemoteEvent) string {
	return strings.TrimSpace(event.Private[keyInstance])
}

// EncodeBlockEvent renders a block as a calendar event carrying the
// block's identity in private metadata.
func EncodeBlockEvent(block models.Block) models.RemoteEvent {
	private := map[string]string{
		keyBlockID:       block.ID,
		keyInstance:      block.InstanceKey,
		keyDate:          block.Date,
		keyBlockType:     string(block.BlockType),
		keyFirmness:      string(block.Firmness),
		keySource:        string(block.Source),
		keyPlannedCycles: strconv.Itoa(block.PlannedCycles),
	}
	if id := strings.TrimSpace(block.SourceID); id != "" {
		private[keySourceID] = id
	}

	return models.RemoteEvent{
		Summary:     "[PomBlock] Work Block",
		Description: fmt.Sprintf("instance: %s, firmness: %s", block.InstanceKey, block.Firmness),
		Status:      "confirmed",
		Start:       models.EventTime{DateTime: block.StartAt.UTC().Format(time.RFC3339)},
		End:         models.EventTime{DateTime: block.EndAt.UTC().Format(time.RFC3339)},
		Private:     private,
	}
}

// DecodeBlockEvent reconstructs a block from a calendar event. Events
// without an instance key are not blocks and decode to (nil, nil).
// Absent optional metadata falls back to defaults; malformed values are
// errors.
func DecodeBlockEvent(event models.RemoteEvent) (*models.Block, error) {
	instance := strings.TrimSpace(event.Private[keyInstance])
	if instance == "" {
		return nil, nil
	}

	startAt, err := parseEventTime(event.Start.DateTime, "start.dateTime")
	if err != nil {
		return nil, err
	}
	endAt, err := parseEventTime(event.End.DateTime, "end.dateTime")
	if err != nil {
		return nil, err
	}
	if !endAt.After(startAt) {
		return nil, apperrors.New(apperrors.KindSerialization, "invalid block event: end is not after start")
	}

	blockID := strings.TrimSpace(event.Private[keyBlockID])
	if blockID == "" {
		blockID = event.NormalizedID()
	}
	if blockID == "" {
		blockID = instance
	}

	date := strings.TrimSpace(event.Private[keyDate])
	if date == "" {
		date = startAt.Format(constants.DateFormat)
	}

	blockType, err := decodeBlockType(event.Private[keyBlockType])
	if err != nil {
		return nil, err
	}
	firmness, err := decodeFirmness(event.Private[keyFirmness])
	if err != nil {
		return nil, err
	}
	cycles, err := decodePlannedCycles(event.Private[keyPlannedCycles])
	if err != nil {
		return nil, err
	}

	source := models.BlockSource(strings.TrimSpace(event.Private[keySource]))
	if source == "" {
		source = models.SourceCalendar
	}

	return &models.Block{
		ID:              blockID,
		InstanceKey:     instance,
		Date:            date,
		StartAt:         startAt,
		EndAt:           endAt,
		BlockType:       blockType,
		Firmness:        firmness,
		PlannedCycles:   cycles,
		Source:          source,
		SourceID:        strings.TrimSpace(event.Private[keySourceID]),
		CalendarEventID: event.NormalizedID(),
	}, nil
}

func parseEventTime(value, field string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.KindSerialization, err, "invalid calendar event %s %q", field, value)
	}
	return t.UTC(), nil
}

func decodeBlockType(value string) (models.BlockType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return models.BlockDeep, nil
	case "deep":
		return models.BlockDeep, nil
	case "shallow":
		return models.BlockShallow, nil
	case "admin":
		return models.BlockAdmin, nil
	case "learning":
		return models.BlockLearning, nil
	default:
		return "", apperrors.New(apperrors.KindSerialization, "invalid %s value %q", keyBlockType, value)
	}
}

func decodeFirmness(value string) (models.Firmness, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return models.FirmnessDraft, nil
	case "draft":
		return models.FirmnessDraft, nil
	case "soft":
		return models.FirmnessSoft, nil
	case "hard":
		return models.FirmnessHard, nil
	default:
		return "", apperrors.New(apperrors.KindSerialization, "invalid %s value %q", keyFirmness, value)
	}
}

func decodePlannedCycles(value string) (int, error) {
	if strings.TrimSpace(value) == "" {
		return 1, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindSerialization, err, "invalid %s value %q", keyPlannedCycles, value)
	}
	if parsed <= 0 {
		return 0, apperrors.New(apperrors.KindSerialization, "invalid %s value %q: must be positive", keyPlannedCycles, value)
	}
	return parsed, nil
}
