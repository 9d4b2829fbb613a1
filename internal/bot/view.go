package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/hexfall/ritualwar/internal/game/engine"
	"github.com/hexfall/ritualwar/internal/game/storage"
)

const (
	colorError   = 0xff0000
	colorSuccess = 0x00ff00
	colorGame    = 0x800080
	colorInfo    = 0x0099ff
)

func errorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: message,
		Color:       colorError,
	}
}

func successEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Success",
		Description: message,
		Color:       colorSuccess,
	}
}

func trainLine(train engine.TrainStatus) string {
	if train.Count == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%s)", train.Count, train.Freshness)
}

// inspectEmbed renders a player's status. Veil hours and signature lockouts
// only appear on self-inspection.
func (b *Bot) inspectEmbed(status engine.PlayerStatus, self bool, lockouts storage.Lockouts) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🔮 Mage Status",
		Description: fmt.Sprintf("<@%s>", status.UserID),
		Color:       colorGame,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Doom", Value: fmt.Sprintf("%d/%d", status.Doom, b.rules.Threshold), Inline: true},
			{Name: "Hex Marks", Value: trainLine(status.HexTrain), Inline: true},
			{Name: "Mend Marks", Value: trainLine(status.MendTrain), Inline: true},
		},
	}

	if !self {
		return embed
	}

	veil := "None"
	if status.VeilHoursRemaining != nil {
		veil = fmt.Sprintf("%.1f hours remaining", *status.VeilHoursRemaining)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Veil", Value: veil, Inline: true,
	})

	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Hex Lockouts", Value: mentionList(lockouts.Hex), Inline: true},
		&discordgo.MessageEmbedField{Name: "Mend Lockouts", Value: mentionList(lockouts.Mend), Inline: true},
	)
	return embed
}

func mentionList(userIDs []string) string {
	if len(userIDs) == 0 {
		return "None"
	}
	mentions := make([]string, len(userIDs))
	for i, id := range userIDs {
		mentions[i] = fmt.Sprintf("<@%s>", id)
	}
	return strings.Join(mentions, ", ")
}

// leaderboardEmbed renders the guild standings ordered by ascending doom.
func (b *Bot) leaderboardEmbed(board engine.Leaderboard) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎭 Ritual War Leaderboard",
		Color: colorGame,
	}

	if len(board.Entries) == 0 {
		embed.Description = "No one has joined the Ritual War yet. Use `/join` to enter!"
		return embed
	}

	var sb strings.Builder
	for idx, entry := range board.Entries {
		sb.WriteString(fmt.Sprintf("%d. <@%s> — %d/%d Doom · Hex: %s · Mend: %s\n",
			idx+1, entry.UserID, entry.Doom, b.rules.Threshold,
			trainLine(entry.HexTrain), trainLine(entry.MendTrain)))
	}
	embed.Description = sb.String()

	if board.RosterLocked {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "The roster is locked. No new players can join.",
		}
	}
	return embed
}

// Response helpers.

func (b *Bot) respondMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		b.logger.Warn("failed to respond to interaction", "error", err)
	}
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		b.logger.Warn("failed to respond to interaction", "error", err)
	}
}
