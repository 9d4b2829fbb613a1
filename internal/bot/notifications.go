package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hexfall/ritualwar/internal/game/storage"

	"github.com/bwmarrin/discordgo"
)

// publicChannelID resolves the guild's configured announcement channel, or ""
// when none is set.
func (b *Bot) publicChannelID(ctx context.Context, guild string) string {
	channelID, err := b.store.GetState(ctx, guild, storage.StateKeyPublicChannel)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.logger.Warn("failed to load public channel", "guild", guild, "error", err)
		}
		return ""
	}
	return channelID
}

// sendPublicMessage posts to the configured public channel, falling back to
// the channel the interaction came from.
func (b *Bot) sendPublicMessage(i *discordgo.InteractionCreate, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	channelID := b.publicChannelID(ctx, guildID(i))
	if channelID == "" {
		channelID = i.ChannelID
	}
	if channelID == "" {
		return
	}

	if _, err := b.session.ChannelMessageSend(channelID, content); err != nil {
		b.logger.Warn("failed to send public message", "guild", guildID(i), "channel", channelID, "error", err)
	}
}

// sendVictoryAnnouncement posts the end-of-game banner to the public channel.
func (b *Bot) sendVictoryAnnouncement(i *discordgo.InteractionCreate, winnerID string) {
	embed := &discordgo.MessageEmbed{
		Title:       "🏆 Ritual War Champion",
		Description: fmt.Sprintf("<@%s> is the last Mage standing!", winnerID),
		Color:       colorGame,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	channelID := b.publicChannelID(ctx, guildID(i))
	if channelID == "" {
		channelID = i.ChannelID
	}
	if channelID == "" {
		return
	}

	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.logger.Warn("failed to send victory announcement", "guild", guildID(i), "error", err)
	}
}
