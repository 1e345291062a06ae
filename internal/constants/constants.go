package constants

// ConfigName identifies a JSON config file in the workspace config dir.
type ConfigName string

const (
	AppName        = "pomblock"
	Version        = "v0.3.0"
	DefaultAccount = "default"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time-of-day format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// KeyringService is the OS keyring service name for OAuth tokens
	KeyringService = "pomblock.oauth.google"

	// Config files
	ConfigApp       ConfigName = "app.json"
	ConfigCalendars ConfigName = "calendars.json"
	ConfigPolicies  ConfigName = "policies.json"
	ConfigTemplates ConfigName = "templates.json"
	ConfigRoutines  ConfigName = "routines.json"
	ConfigOverrides ConfigName = "overrides.json"

	// ConfigSchemaVersion is the only schema accepted in config files
	ConfigSchemaVersion = 1

	// Policy defaults
	DefaultWorkStart           = "09:00"
	DefaultWorkEnd             = "18:00"
	DefaultTimezone            = "UTC"
	DefaultBlockDurationMin    = 50
	DefaultBreakDurationMin    = 10
	DefaultMinBlockGapMin      = 5
	DefaultMaxAutoBlocksPerDay = 12
	DefaultMaxRelocations      = 50
	DefaultBlocksCalendarName  = "Blocks"

	// Pomodoro constants
	PomodoroFocusSeconds    = 25 * 60
	PomodoroMinBreakSeconds = 60

	// BlockCreationConcurrency bounds the remote-create fan-out
	BlockCreationConcurrency = 4

	// BlockGenerationTargetMs is the generate-to-confirm degradation threshold
	BlockGenerationTargetMs = 30_000

	// Sync retry defaults
	SyncMaxAttempts = 3
	SyncBaseDelayMs = 200

	// Suppression reasons
	ReasonUserDeleted       = "user_deleted"
	ReasonCalendarCancelled = "calendar_cancelled"
)
