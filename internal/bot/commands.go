package bot

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hexfall/ritualwar/internal/game/engine"
	"github.com/hexfall/ritualwar/internal/game/storage"
	apperrors "github.com/hexfall/ritualwar/internal/platform/errors"
)

const handlerTimeout = 10 * time.Second

func signatureTypeChoices() []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Hex", Value: string(storage.TypeHex)},
		{Name: "Mend", Value: string(storage.TypeMend)},
	}
}

func targetOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "target",
		Description: description,
		Required:    required,
	}
}

// Slash command definitions.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "join",
			Description: "Join the Ritual War",
		},
		{
			Name:        "leave",
			Description: "Leave the Ritual War",
		},
		{
			Name:        "hex",
			Description: "Cast Hex on a target",
			Options:     []*discordgo.ApplicationCommandOption{targetOption("The player to hex", true)},
		},
		{
			Name:        "shield",
			Description: "Cast Shield to protect yourself",
		},
		{
			Name:        "mend",
			Description: "Cast Mend to heal a target",
			Options:     []*discordgo.ApplicationCommandOption{targetOption("The player to mend", true)},
		},
		{
			Name:        "inspect",
			Description: "Inspect a player's status",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "player",
					Description: "The player to inspect (leave empty for self)",
					Required:    false,
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "View the current game state",
		},
		{
			Name:        "claimhex",
			Description: "Publicly claim you hexed a player",
			Options:     []*discordgo.ApplicationCommandOption{targetOption("The player you claim to have hexed", true)},
		},
		{
			Name:        "claimmend",
			Description: "Publicly claim you mended a player",
			Options:     []*discordgo.ApplicationCommandOption{targetOption("The player you claim to have mended", true)},
		},
		{
			Name:        "unclaim",
			Description: "Remove a public claim",
			Options: []*discordgo.ApplicationCommandOption{
				targetOption("The target to remove your claim from", true),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "Which claim to remove",
					Required:    true,
					Choices:     signatureTypeChoices(),
				},
			},
		},
		{
			Name:        "admin_setchannel",
			Description: "[ADMIN] Set the channel for public game messages",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "The channel where public game messages should be sent",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
			},
		},
		{
			Name:        "admin_reset_game",
			Description: "[ADMIN] Reset the entire game state",
		},
		{
			Name:        "admin_advance_day",
			Description: "[ADMIN] Clear all daily action limits for testing",
		},
		{
			Name:        "admin_force_winner",
			Description: "[ADMIN] Declare a winner",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "winner",
					Description: "The player who should win",
					Required:    true,
				},
			},
		},
	}
}

// optionTargetID reads the user option with the given name without a member
// fetch; slash command payloads already carry the resolved user.
func optionTargetID(i *discordgo.InteractionCreate, name string) string {
	for _, option := range i.ApplicationCommandData().Options {
		if option.Name == name && option.Type == discordgo.ApplicationCommandOptionUser {
			return option.UserValue(nil).ID
		}
	}
	return ""
}

// deliverResult sends the actor's ephemeral reply, publishes the public line
// when present, and announces a victory when the action decided the game.
func (b *Bot) deliverResult(s *discordgo.Session, i *discordgo.InteractionCreate, result engine.ActionResult) {
	if !result.Success {
		b.respondEmbed(s, i, errorEmbed(result.Message), true)
		return
	}

	b.respondMessage(s, i, result.Message, true)
	if result.PublicMessage != "" {
		b.sendPublicMessage(i, result.PublicMessage)
	}
	if result.WinnerID != "" {
		b.sendVictoryAnnouncement(i, result.WinnerID)
	}
}

// reportFault logs a storage-level failure and shows a generic error; the
// specific cause is not the player's problem.
func (b *Bot) reportFault(s *discordgo.Session, i *discordgo.InteractionCreate, command string, err error) {
	b.logger.Error("command failed", "command", command, "guild", guildID(i), "code", apperrors.CodeOf(err), "error", err)
	b.respondEmbed(s, i, errorEmbed("Something went wrong. Please try again."), true)
}

func (b *Bot) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	result, err := b.engine.Join(ctx, guildID(i), interactionUserID(i))
	if err != nil {
		b.reportFault(s, i, "join", err)
		return
	}
	b.deliverResult(s, i, result)
}

func (b *Bot) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	result, err := b.engine.Leave(ctx, guildID(i), interactionUserID(i))
	if err != nil {
		b.reportFault(s, i, "leave", err)
		return
	}
	b.deliverResult(s, i, result)
}

func (b *Bot) handleHex(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	result, err := b.engine.Hex(ctx, guildID(i), interactionUserID(i), optionTargetID(i, "target"), false)
	if err != nil {
		b.reportFault(s, i, "hex", err)
		return
	}
	b.deliverResult(s, i, result)
}

func (b *Bot) handleShield(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	result, err := b.engine.Shield(ctx, guildID(i), interactionUserID(i), false)
	if err != nil {
		b.reportFault(s, i, "shield", err)
		return
	}
	b.deliverResult(s, i, result)
}

func (b *Bot) handleMend(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	result, err := b.engine.Mend(ctx, guildID(i), interactionUserID(i), optionTargetID(i, "target"), false)
	if err != nil {
		b.reportFault(s, i, "mend", err)
		return
	}
	b.deliverResult(s, i, result)
}

func (b *Bot) handleInspect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	viewerID := interactionUserID(i)
	targetID := optionTargetID(i, "player")
	if targetID == "" {
		targetID = viewerID
	}

	status, err := b.engine.PlayerStatus(ctx, guildID(i), viewerID, targetID)
	if err != nil {
		if errors.Is(err, engine.ErrTargetNotInGame) {
			b.respondEmbed(s, i, errorEmbed("Player is not in the game."), true)
			return
		}
		b.reportFault(s, i, "inspect", err)
		return
	}

	var lockouts storage.Lockouts
	if viewerID == targetID {
		lockouts, err = b.engine.Lockouts(ctx, guildID(i), viewerID)
		if err != nil {
			b.reportFault(s, i, "inspect", err)
			return
		}
	}

	b.respondEmbed(s, i, b.inspectEmbed(status, viewerID == targetID, lockouts), true)
}

func (b *Bot) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	board, err := b.engine.Leaderboard(ctx, guildID(i))
	if err != nil {
		b.reportFault(s, i, "leaderboard", err)
		return
	}
	b.respondEmbed(s, i, b.leaderboardEmbed(board), false)
}

func (b *Bot) handleClaim(s *discordgo.Session, i *discordgo.InteractionCreate, sigType storage.SignatureType) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	result, err := b.engine.Claim(ctx, guildID(i), interactionUserID(i), optionTargetID(i, "target"), sigType)
	if err != nil {
		b.reportFault(s, i, "claim", err)
		return
	}
	b.deliverResult(s, i, result)
}

func (b *Bot) handleUnclaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var action string
	for _, option := range i.ApplicationCommandData().Options {
		if option.Name == "action" {
			action = option.StringValue()
		}
	}
	sigType := storage.SignatureType(action)
	if !sigType.Valid() {
		b.respondEmbed(s, i, errorEmbed("Unknown action. Choose Hex or Mend."), true)
		return
	}

	result, err := b.engine.Unclaim(ctx, guildID(i), interactionUserID(i), optionTargetID(i, "target"), sigType)
	if err != nil {
		b.reportFault(s, i, "unclaim", err)
		return
	}
	if !result.Success {
		b.respondEmbed(s, i, errorEmbed(result.Message), true)
		return
	}
	b.respondEmbed(s, i, successEmbed(result.Message), true)
}
