package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/colinaird/pomblock/internal/constants"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/models"
)

// envelope is the common schema wrapper every config file carries.
type envelope struct {
	Schema int `json:"schema"`
}

// AppConfig holds workspace-level application settings.
type AppConfig struct {
	Schema             int    `json:"schema"`
	DefaultAccount     string `json:"default_account"`
	BlocksCalendarName string `json:"blocks_calendar_name"`
	Debug              bool   `json:"debug"`
}

// CalendarsConfig maps accounts to their dedicated blocks calendar. The
// singular LegacyBlocksCalendarID field is read for files written before
// multi-account support and migrated into the map on first save.
type CalendarsConfig struct {
	Schema                 int               `json:"schema"`
	BlocksCalendarIDs      map[string]string `json:"blocks_calendar_ids,omitempty"`
	LegacyBlocksCalendarID string            `json:"blocks_calendar_id,omitempty"`
	BusyCalendarIDs        []string          `json:"busy_calendar_ids,omitempty"`
}

// BlocksCalendarID resolves the blocks calendar for an account, falling
// back to the legacy singular field for the default account.
func (c CalendarsConfig) BlocksCalendarID(accountID string) string {
	if id, ok := c.BlocksCalendarIDs[accountID]; ok {
		return id
	}
	if accountID == constants.DefaultAccount {
		return c.LegacyBlocksCalendarID
	}
	return ""
}

// SetBlocksCalendarID records the mapping and clears the legacy field.
func (c *CalendarsConfig) SetBlocksCalendarID(accountID, calendarID string) {
	if c.BlocksCalendarIDs == nil {
		c.BlocksCalendarIDs = make(map[string]string)
	}
	c.BlocksCalendarIDs[accountID] = calendarID
	c.LegacyBlocksCalendarID = ""
}

// PoliciesConfig holds the base policy.
type PoliciesConfig struct {
	Schema int           `json:"schema"`
	Policy models.Policy `json:"policy"`
}

// TemplatesConfig holds the block templates.
type TemplatesConfig struct {
	Schema    int               `json:"schema"`
	Templates []models.Template `json:"templates"`
}

// RoutinesConfig holds the recurring routines.
type RoutinesConfig struct {
	Schema   int              `json:"schema"`
	Routines []models.Routine `json:"routines"`
}

// OverridesConfig holds per-date policy overrides keyed by YYYY-MM-DD.
type OverridesConfig struct {
	Schema    int                              `json:"schema"`
	Overrides map[string]models.PolicyOverride `json:"overrides,omitempty"`
}

// Store reads and writes the workspace's JSON config files.
type Store struct {
	dir string
}

// NewStore returns a config store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, err, "failed to create config directory %s", dir)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir resolves the platform config directory for the app.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, err, "failed to resolve user config directory")
	}
	return filepath.Join(base, constants.AppName), nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name constants.ConfigName) string {
	return filepath.Join(s.dir, string(name))
}

// load reads and decodes one config file into out, verifying the schema
// version. Missing files report KindIO with os.IsNotExist preserved.
func (s *Store) load(name constants.ConfigName, out any) error {
	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Wrap(apperrors.KindIO, err, "failed to read %s", name)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return apperrors.Wrap(apperrors.KindSerialization, err, "failed to parse %s", name)
	}
	if env.Schema != constants.ConfigSchemaVersion {
		return apperrors.New(apperrors.KindInvalidConfig, "%s has unsupported schema %d, want %d", name, env.Schema, constants.ConfigSchemaVersion)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrap(apperrors.KindSerialization, err, "failed to parse %s", name)
	}
	return nil
}

// save atomically writes one config file via a temp-file rename.
func (s *Store) save(name constants.ConfigName, in any) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.KindSerialization, err, "failed to serialize %s", name)
	}
	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return apperrors.Wrap(apperrors.KindIO, err, "failed to write %s", name)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperrors.Wrap(apperrors.KindIO, err, "failed to replace %s", name)
	}
	return nil
}

func (s *Store) exists(name constants.ConfigName) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// EnsureDefaults writes any missing config files with their defaults.
// Existing files are never touched.
func (s *Store) EnsureDefaults() error {
	if !s.exists(constants.ConfigApp) {
		if err := s.SaveApp(AppConfig{
			Schema:             constants.ConfigSchemaVersion,
			DefaultAccount:     constants.DefaultAccount,
			BlocksCalendarName: constants.DefaultBlocksCalendarName,
		}); err != nil {
			return err
		}
	}
	if !s.exists(constants.ConfigCalendars) {
		if err := s.SaveCalendars(CalendarsConfig{Schema: constants.ConfigSchemaVersion}); err != nil {
			return err
		}
	}
	if !s.exists(constants.ConfigPolicies) {
		if err := s.SavePolicies(PoliciesConfig{Schema: constants.ConfigSchemaVersion, Policy: DefaultPolicy()}); err != nil {
			return err
		}
	}
	if !s.exists(constants.ConfigTemplates) {
		if err := s.SaveTemplates(TemplatesConfig{Schema: constants.ConfigSchemaVersion}); err != nil {
			return err
		}
	}
	if !s.exists(constants.ConfigRoutines) {
		if err := s.SaveRoutines(RoutinesConfig{Schema: constants.ConfigSchemaVersion}); err != nil {
			return err
		}
	}
	if !s.exists(constants.ConfigOverrides) {
		if err := s.SaveOverrides(OverridesConfig{Schema: constants.ConfigSchemaVersion}); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPolicy returns the out-of-the-box policy.
func DefaultPolicy() models.Policy {
	return models.Policy{
		WorkHours: models.WorkHours{
			Start: constants.DefaultWorkStart,
			End:   constants.DefaultWorkEnd,
			Days:  []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		},
		Timezone:              constants.DefaultTimezone,
		Generation:            models.GenerationPolicy{RespectSuppression: true},
		BlockDurationMinutes:  constants.DefaultBlockDurationMin,
		BreakDurationMinutes:  constants.DefaultBreakDurationMin,
		MinBlockGapMinutes:    constants.DefaultMinBlockGapMin,
		MaxAutoBlocksPerDay:   constants.DefaultMaxAutoBlocksPerDay,
		MaxRelocationsPerSync: constants.DefaultMaxRelocations,
	}
}

func (s *Store) LoadApp() (AppConfig, error) {
	var cfg AppConfig
	err := s.load(constants.ConfigApp, &cfg)
	return cfg, err
}

func (s *Store) SaveApp(cfg AppConfig) error {
	cfg.Schema = constants.ConfigSchemaVersion
	return s.save(constants.ConfigApp, cfg)
}

func (s *Store) LoadCalendars() (CalendarsConfig, error) {
	var cfg CalendarsConfig
	err := s.load(constants.ConfigCalendars, &cfg)
	return cfg, err
}

func (s *Store) SaveCalendars(cfg CalendarsConfig) error {
	cfg.Schema = constants.ConfigSchemaVersion
	return s.save(constants.ConfigCalendars, cfg)
}

func (s *Store) LoadPolicies() (PoliciesConfig, error) {
	var cfg PoliciesConfig
	err := s.load(constants.ConfigPolicies, &cfg)
	return cfg, err
}

func (s *Store) SavePolicies(cfg PoliciesConfig) error {
	cfg.Schema = constants.ConfigSchemaVersion
	return s.save(constants.ConfigPolicies, cfg)
}

func (s *Store) LoadTemplates() (TemplatesConfig, error) {
	var cfg TemplatesConfig
	err := s.load(constants.ConfigTemplates, &cfg)
	return cfg, err
}

func (s *Store) SaveTemplates(cfg TemplatesConfig) error {
	cfg.Schema = constants.ConfigSchemaVersion
	return s.save(constants.ConfigTemplates, cfg)
}

func (s *Store) LoadRoutines() (RoutinesConfig, error) {
	var cfg RoutinesConfig
	err := s.load(constants.ConfigRoutines, &cfg)
	return cfg, err
}

func (s *Store) SaveRoutines(cfg RoutinesConfig) error {
	cfg.Schema = constants.ConfigSchemaVersion
	return s.save(constants.ConfigRoutines, cfg)
}

func (s *Store) LoadOverrides() (OverridesConfig, error) {
	var cfg OverridesConfig
	err := s.load(constants.ConfigOverrides, &cfg)
	return cfg, err
}

func (s *Store) SaveOverrides(cfg OverridesConfig) error {
	cfg.Schema = constants.ConfigSchemaVersion
	return s.save(constants.ConfigOverrides, cfg)
}

// PolicyFor composes the effective policy for a date by applying the
// matching override, if any.
func (s *Store) PolicyFor(date string) (models.Policy, error) {
	policies, err := s.LoadPolicies()
	if err != nil {
		return models.Policy{}, err
	}
	overrides, err := s.LoadOverrides()
	if err != nil {
		return policies.Policy, err
	}
	if ov, ok := overrides.Overrides[date]; ok {
		return policies.Policy.Apply(&ov), nil
	}
	return policies.Policy, nil
}
