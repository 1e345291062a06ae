package main

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/colinaird/pomblock/internal/app"
	"github.com/colinaird/pomblock/internal/cli"
	"github.com/colinaird/pomblock/internal/config"
	apperrors "github.com/colinaird/pomblock/internal/errors"
	"github.com/colinaird/pomblock/internal/gateway"
	"github.com/colinaird/pomblock/internal/logger"
	"github.com/colinaird/pomblock/internal/oauth"
	"github.com/colinaird/pomblock/internal/storage"
	"github.com/colinaird/pomblock/internal/storage/postgres"
	"github.com/colinaird/pomblock/internal/storage/sqlite"
)

var CLI struct {
	Version  kong.VersionFlag `help:"Print version and exit."`
	Debug    bool             `help:"Verbose logging to stderr."`
	Dir      string           `help:"Config and data directory. Defaults to ~/.config/pomblock." type:"path"`
	Database string           `help:"Suppression database: a file path for SQLite or a postgres:// URL." env:"POMBLOCK_DATABASE"`

	Auth     cli.AuthCmd        `cmd:"" help:"Authenticate a Google Calendar account."`
	Sync     cli.SyncCmd        `cmd:"" help:"Pull calendar events and relocate displaced blocks."`
	Events   cli.EventsCmd      `cmd:"" help:"List the synced calendar mirror."`
	Generate cli.GenerateCmd    `cmd:"" help:"Fill a day with blocks from templates and routines."`
	Blocks   cli.BlockListCmd   `cmd:"" help:"Show the blocks of a day."`
	Approve  cli.ApproveCmd     `cmd:"" help:"Promote draft blocks to soft."`
	Adjust   cli.AdjustCmd      `cmd:"" help:"Move or resize a block."`
	Delete   cli.BlockDeleteCmd `cmd:"" help:"Delete a block and suppress its regeneration."`
	Relocate cli.RelocateCmd    `cmd:"" help:"Relocate one block around remote conflicts."`
	Task     struct {
		Add    cli.TaskAddCmd    `cmd:"" help:"Add a task."`
		Edit   cli.TaskEditCmd   `cmd:"" help:"Edit a task."`
		Delete cli.TaskDeleteCmd `cmd:"" help:"Delete a task."`
		Split  cli.TaskSplitCmd  `cmd:"" help:"Split a task into parts."`
		Carry  cli.TaskCarryCmd  `cmd:"" help:"Carry an unfinished task to another block."`
		List   cli.TaskListCmd   `cmd:"" help:"List tasks."`
	} `cmd:"" help:"Manage tasks."`
	Pom struct {
		Start    cli.PomStartCmd    `cmd:"" help:"Start a pomodoro session in a block."`
		Advance  cli.PomAdvanceCmd  `cmd:"" help:"Finish the current phase."`
		Pause    cli.PomPauseCmd    `cmd:"" help:"Pause the session."`
		Resume   cli.PomResumeCmd   `cmd:"" help:"Resume a paused session."`
		Complete cli.PomCompleteCmd `cmd:"" help:"End the session early."`
		Status   cli.PomStatusCmd   `cmd:"" help:"Show the session state."`
	} `cmd:"" help:"Run pomodoro sessions."`
	Reflect cli.ReflectCmd `cmd:"" help:"Summarize pomodoro logs for a window."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("pomblock"),
		kong.Description("Time-blocking companion with Google Calendar sync and pomodoro sessions"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	apperrors.Fatal(run(ctx))
}

func run(ctx *kong.Context) error {
	dir := CLI.Dir
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return err
		}
	}

	if err := logger.Init(logger.Config{Debug: CLI.Debug, WorkspaceDir: dir}); err != nil {
		return err
	}

	cfgStore, err := config.NewStore(dir)
	if err != nil {
		return err
	}
	if err := cfgStore.EnsureDefaults(); err != nil {
		return err
	}

	store, err := openStore(dir, CLI.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	oauthConfig, err := oauth.ConfigFromEnv()
	if err != nil {
		return err
	}

	application := app.New(cfgStore, store, gateway.NewGoogleGateway(),
		oauthConfig, oauth.KeyringStore{}, oauth.NewHTTPTokenClient()).
		WithIDGenerator(func(prefix string) string {
			return prefix + "-" + uuid.NewString()
		})

	return ctx.Run(&cli.Context{App: application})
}

func openStore(dir, database string) (storage.Provider, error) {
	if strings.HasPrefix(database, "postgres://") || strings.HasPrefix(database, "postgresql://") {
		if ok, err := postgres.ValidateConnString(database); !ok {
			return nil, err
		}
		store := postgres.New(database)
		if err := store.Init(); err != nil {
			return nil, err
		}
		return store, nil
	}

	path := database
	if path == "" {
		path = filepath.Join(dir, "pomblock.db")
	}
	store := sqlite.New(path)
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}
