// Package bot is the Discord transport for the game: slash command routing,
// embed rendering, public announcements and the daily reminder scheduler.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/hexfall/ritualwar/internal/game/clock"
	"github.com/hexfall/ritualwar/internal/game/config"
	"github.com/hexfall/ritualwar/internal/game/engine"
	"github.com/hexfall/ritualwar/internal/game/storage"
)

// Options carries the transport-level settings the bot needs beyond its game
// collaborators.
type Options struct {
	Token            string
	OwnerID          string
	ReminderSchedule string // cron spec in the game timezone; empty disables reminders
	Logger           *slog.Logger
}

// Bot owns the Discord session and routes interactions to the game engine.
// It does not own the store's lifecycle; the caller closes it.
type Bot struct {
	session   *discordgo.Session
	engine    *engine.Engine
	store     storage.Store
	rules     config.Rules
	clock     *clock.Clock
	logger    *slog.Logger
	ownerID   string
	commands  []*discordgo.ApplicationCommand
	scheduler *scheduler
}

// New creates a Bot over an existing engine and store.
func New(opts Options, gameEngine *engine.Engine, store storage.Store, rules config.Rules, gameClock *clock.Clock) (*Bot, error) {
	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bot{
		session: session,
		engine:  gameEngine,
		store:   store,
		rules:   rules,
		clock:   gameClock,
		logger:  logger,
		ownerID: opts.OwnerID,
	}
	if opts.ReminderSchedule != "" {
		b.scheduler = newScheduler(opts.ReminderSchedule, b)
	}

	b.registerHandlers()
	return b, nil
}

// Start opens the Discord connection, registers slash commands and starts the
// reminder scheduler.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.logger.Info("connected to Discord", "user", b.session.State.User.Username)

	if err := b.registerCommands(); err != nil {
		return err
	}

	if b.scheduler != nil {
		if err := b.scheduler.start(ctx); err != nil {
			return fmt.Errorf("failed to start reminder scheduler: %w", err)
		}
	}
	return nil
}

// Stop shuts down the scheduler and the Discord session.
func (b *Bot) Stop() error {
	if b.scheduler != nil {
		b.scheduler.stop()
	}
	if b.session != nil {
		return b.session.Close()
	}
	return nil
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction processes slash command interactions.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	b.logger.Debug("received command", "command", data.Name, "guild", i.GuildID)

	switch data.Name {
	case "join":
		b.handleJoin(s, i)
	case "leave":
		b.handleLeave(s, i)
	case "hex":
		b.handleHex(s, i)
	case "shield":
		b.handleShield(s, i)
	case "mend":
		b.handleMend(s, i)
	case "inspect":
		b.handleInspect(s, i)
	case "leaderboard":
		b.handleLeaderboard(s, i)
	case "claimhex":
		b.handleClaim(s, i, storage.TypeHex)
	case "claimmend":
		b.handleClaim(s, i, storage.TypeMend)
	case "unclaim":
		b.handleUnclaim(s, i)
	case "admin_setchannel":
		b.handleSetChannel(s, i)
	case "admin_reset_game":
		b.handleResetGame(s, i)
	case "admin_advance_day":
		b.handleAdvanceDay(s, i)
	case "admin_force_winner":
		b.handleForceWinner(s, i)
	default:
		b.logger.Warn("unknown command", "command", data.Name)
	}
}

// registerCommands registers all slash commands with Discord globally.
func (b *Bot) registerCommands() error {
	b.logger.Info("registering slash commands")

	definitions := commandDefinitions()
	registered := make([]*discordgo.ApplicationCommand, 0, len(definitions))
	for _, cmd := range definitions {
		created, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registered = append(registered, created)
		b.logger.Debug("registered command", "name", cmd.Name)
	}

	b.commands = registered
	b.logger.Info("slash commands registered", "count", len(registered))
	return nil
}

// interactionUserID returns the invoking user's id for guild or DM contexts.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// guildID returns the interaction's guild scope, with a stable key for DMs.
func guildID(i *discordgo.InteractionCreate) string {
	if i.GuildID == "" {
		return "DM"
	}
	return i.GuildID
}
