package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hexfall/ritualwar/internal/game/storage"
)

// isOwner gates owner-only admin commands. An unset owner id disables them.
func (b *Bot) isOwner(userID string) bool {
	return b.ownerID != "" && userID == b.ownerID
}

func hasAdministrator(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// handleSetChannel stores the guild's public announcement channel.
func (b *Bot) handleSetChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !hasAdministrator(i) {
		b.respondMessage(s, i, "❌ Only server administrators can set the game channel.", true)
		return
	}

	var channel *discordgo.Channel
	for _, option := range i.ApplicationCommandData().Options {
		if option.Name == "channel" {
			channel = option.ChannelValue(s)
		}
	}
	if channel == nil {
		b.respondEmbed(s, i, errorEmbed("No channel provided."), true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.store.SetState(ctx, guildID(i), storage.StateKeyPublicChannel, channel.ID); err != nil {
		b.reportFault(s, i, "admin_setchannel", err)
		return
	}

	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "✅ Channel Set Successfully",
		Description: fmt.Sprintf("Public game messages will now be sent to <#%s>", channel.ID),
		Color:       colorSuccess,
	}, true)

	testEmbed := &discordgo.MessageEmbed{
		Title:       "🎭 Ritual War Channel Configured",
		Description: "This channel has been set for public game messages!",
		Color:       colorGame,
	}
	if _, err := s.ChannelMessageSendEmbed(channel.ID, testEmbed); err != nil {
		b.logger.Warn("failed to send channel test message", "guild", guildID(i), "channel", channel.ID, "error", err)
	}
}

// handleResetGame wipes all guild game data.
func (b *Bot) handleResetGame(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.isOwner(interactionUserID(i)) {
		b.respondMessage(s, i, "❌ This command is restricted to bot owners.", true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.engine.ResetGame(ctx, guildID(i)); err != nil {
		b.logger.Error("game reset failed", "guild", guildID(i), "error", err)
		b.respondEmbed(s, i, errorEmbed("Failed to reset game. Check logs for details."), true)
		return
	}

	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🔄 Game Reset Complete",
		Description: "All game data has been cleared. Players can now use `/join` to start a new game!",
		Color:       colorSuccess,
	}, false)
}

// handleAdvanceDay clears every player's daily action limit.
func (b *Bot) handleAdvanceDay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.isOwner(interactionUserID(i)) {
		b.respondMessage(s, i, "❌ This command is restricted to bot owners.", true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	count, err := b.engine.AdvanceDay(ctx, guildID(i))
	if err != nil {
		b.reportFault(s, i, "admin_advance_day", err)
		return
	}

	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📅 Day Advanced",
		Description: fmt.Sprintf("All %d players can now act again. Daily action limits have been reset.", count),
		Color:       colorInfo,
	}, true)
}

// handleForceWinner announces a victory without touching game state.
func (b *Bot) handleForceWinner(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.isOwner(interactionUserID(i)) {
		b.respondMessage(s, i, "❌ This command is restricted to bot owners.", true)
		return
	}

	winnerID := optionTargetID(i, "winner")
	if winnerID == "" {
		b.respondEmbed(s, i, errorEmbed("No winner provided."), true)
		return
	}

	b.respondMessage(s, i, fmt.Sprintf("🎉 Forced victory for <@%s>!", winnerID), true)
	b.sendVictoryAnnouncement(i, winnerID)
}
