package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/cli/backups"
	"github.com/julianstephens/habitlit/internal/cli/habits"
	"github.com/julianstephens/habitlit/internal/cli/settings"
	"github.com/julianstephens/habitlit/internal/cli/stats"
	"github.com/julianstephens/habitlit/internal/cli/system"
	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/constants"
	clierrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigFile string `help:"Path to the YAML config file (default: $HABITLIT_CONFIG or ~/.config/habitlit/config.yaml)." type:"string"`
	Debug      bool   `help:"Enable debug logging to stderr."`

	Init     system.InitCmd       `cmd:"" help:"Initialize habitlit storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive statistics TUI." default:"1"`
	Habit    habits.HabitCmd      `cmd:"" help:"Manage habits and completions."`
	Stats    stats.StatsCmd       `cmd:"" help:"Show the statistics calendar."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Backup   backups.BackupCmd    `cmd:"" help:"Manage SQLite backups."`
	Daemon   system.DaemonCmd     `cmd:"" help:"Run the reminder daemon."`
	Keyring  system.KeyringCmd    `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Notify   system.NotifyCmd     `cmd:"" hidden:"" help:"Send a notification (used internally)."`
}

// Commands that must run without a loaded store.
var skipLoad = []string{"init", "keyring", "notify", "doctor", "backup restore"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with weekday reminders and a statistics calendar"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(config.Path(CLI.ConfigFile))
	if err != nil {
		clierrors.Fatal(err)
	}
	if CLI.Debug {
		cfg.Log.Debug = true
	}
	if err := logger.Init(logger.Config{Debug: cfg.Log.Debug, ConfigDir: cfg.Log.Dir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		clierrors.Fatal(err)
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:  store,
		Config: cfg,
	}

	if needsLoad(ctx.Command()) {
		if err := store.Load(); err != nil {
			clierrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		clierrors.Fatal(err)
	}
}

func needsLoad(command string) bool {
	for _, name := range skipLoad {
		if command == name || strings.HasPrefix(command, name+" ") {
			return false
		}
	}
	return true
}

// openStore picks PostgreSQL when a connection string is configured or stored
// in the keyring, and SQLite otherwise.
func openStore(cfg *config.Config) (storage.Provider, error) {
	connStr, err := keyring.ResolveConnectionString(cfg.Database.URL)
	if err != nil {
		logger.Debug("Keyring lookup failed, using configured storage", "error", err)
		connStr = cfg.Database.URL
	}
	if connStr == "" {
		return sqlite.NewStore(cfg.Database.Path), nil
	}

	if _, err := postgres.ValidateConnString(connStr); err != nil {
		// Credentials are only acceptable when they come from the encrypted keyring
		fromConfig := cfg.UsesPostgres()
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) || fromConfig {
			return nil, err
		}
	}
	return postgres.New(connStr), nil
}
