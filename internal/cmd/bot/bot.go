// Package bot parses bot command flags and starts the Discord runtime.
package bot

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	discord "github.com/hexfall/ritualwar/internal/bot"
	"github.com/hexfall/ritualwar/internal/game/clock"
	gameconfig "github.com/hexfall/ritualwar/internal/game/config"
	"github.com/hexfall/ritualwar/internal/game/engine"
	"github.com/hexfall/ritualwar/internal/game/storage/sqlite"
	entrypoint "github.com/hexfall/ritualwar/internal/platform/cmd"
)

// Config holds bot command configuration.
type Config struct {
	DiscordToken     string `env:"RITUAL_WAR_DISCORD_TOKEN"`
	DatabasePath     string `env:"RITUAL_WAR_DB_PATH" envDefault:"ritual_war.db"`
	OwnerID          string `env:"RITUAL_WAR_OWNER_ID"`
	ReminderSchedule string `env:"RITUAL_WAR_REMINDER_SCHEDULE" envDefault:"0 8 * * *"`
	Timezone         string `env:"RITUAL_WAR_TIMEZONE"`
	LogLevel         string `env:"RITUAL_WAR_LOG_LEVEL" envDefault:"info"`
}

// ParseConfig parses environment and flags into a Config. The Discord token
// is environment-only; secrets do not belong on the command line.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "Path to the sqlite database file")
	fs.StringVar(&cfg.OwnerID, "owner", cfg.OwnerID, "Discord user id allowed to run owner commands")
	fs.StringVar(&cfg.ReminderSchedule, "reminder-schedule", cfg.ReminderSchedule, "Cron spec for the daily reminder, in the game timezone (empty disables)")
	fs.StringVar(&cfg.Timezone, "timezone", cfg.Timezone, "Game timezone (overrides the built-in default)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// Run wires storage, engine and Discord transport and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	if strings.TrimSpace(cfg.DiscordToken) == "" {
		return errors.New("RITUAL_WAR_DISCORD_TOKEN is required")
	}

	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rules := gameconfig.Default()
	if cfg.Timezone != "" {
		rules.Timezone = cfg.Timezone
	}
	gameClock, err := clock.New(rules, nil)
	if err != nil {
		return fmt.Errorf("load game timezone: %w", err)
	}

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	gameEngine := engine.New(store, rules, gameClock)

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBot, func(ctx context.Context) error {
		b, err := discord.New(discord.Options{
			Token:            cfg.DiscordToken,
			OwnerID:          cfg.OwnerID,
			ReminderSchedule: cfg.ReminderSchedule,
			Logger:           logger,
		}, gameEngine, store, rules, gameClock)
		if err != nil {
			return err
		}
		if err := b.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		logger.Info("shutting down")
		return b.Stop()
	})
}
