package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduler posts the daily action reminder to every guild with a configured
// public channel. The cron spec runs in the game timezone so reminders track
// the same day boundary as the action limit.
type scheduler struct {
	bot  *Bot
	spec string
	cron *cron.Cron
}

func newScheduler(spec string, b *Bot) *scheduler {
	return &scheduler{bot: b, spec: spec}
}

func (s *scheduler) start(ctx context.Context) error {
	s.cron = cron.New(cron.WithLocation(s.bot.clock.Location()))
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.bot.logger.Info("reminder scheduler started", "schedule", s.spec, "timezone", s.bot.clock.Location().String())
	return nil
}

func (s *scheduler) stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *scheduler) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, guild := range s.bot.session.State.Guilds {
		s.remindGuild(ctx, guild.ID)
	}
}

// remindGuild mentions every active player who still has their action today.
// Guilds with no configured channel are skipped; there is nowhere to post.
func (s *scheduler) remindGuild(ctx context.Context, guild string) {
	channelID := s.bot.publicChannelID(ctx, guild)
	if channelID == "" {
		return
	}

	eligible, err := s.bot.engine.ReminderEligible(ctx, guild)
	if err != nil {
		s.bot.logger.Error("reminder eligibility check failed", "guild", guild, "error", err)
		return
	}
	if len(eligible) == 0 {
		return
	}

	mentions := make([]string, len(eligible))
	for i, player := range eligible {
		mentions[i] = fmt.Sprintf("<@%s>", player.UserID)
	}
	content := fmt.Sprintf("⏰ Daily reminder! These mages have not used their action today: %s",
		strings.Join(mentions, ", "))

	if _, err := s.bot.session.ChannelMessageSend(channelID, content); err != nil {
		s.bot.logger.Warn("failed to send reminder", "guild", guild, "channel", channelID, "error", err)
		return
	}
	s.bot.logger.Info("sent daily reminder", "guild", guild, "players", len(eligible))
}
