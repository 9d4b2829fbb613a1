package bot

import (
	"strings"
	"testing"

	"github.com/hexfall/ritualwar/internal/game/config"
	"github.com/hexfall/ritualwar/internal/game/engine"
	"github.com/hexfall/ritualwar/internal/game/storage"
)

func newViewBot() *Bot {
	return &Bot{rules: config.Default()}
}

func TestTrainLine(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		train engine.TrainStatus
		want  string
	}{
		{"empty", engine.TrainStatus{Count: 0, Freshness: "Expired"}, "0"},
		{"single", engine.TrainStatus{Count: 1, Freshness: "Fresh"}, "1 (Fresh)"},
		{"many", engine.TrainStatus{Count: 3, Freshness: "Warm"}, "3 (Warm)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := trainLine(tc.train); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMentionList(t *testing.T) {
	t.Parallel()
	if got := mentionList(nil); got != "None" {
		t.Fatalf("expected None for empty list, got %q", got)
	}
	if got := mentionList([]string{"1", "2"}); got != "<@1>, <@2>" {
		t.Fatalf("expected joined mentions, got %q", got)
	}
}

func TestLeaderboardEmbed(t *testing.T) {
	t.Parallel()
	b := newViewBot()

	empty := b.leaderboardEmbed(engine.Leaderboard{})
	if !strings.Contains(empty.Description, "/join") {
		t.Fatalf("expected empty board to prompt joining, got %q", empty.Description)
	}

	board := engine.Leaderboard{
		Entries: []engine.LeaderboardEntry{
			{UserID: "alice", Doom: 2, HexTrain: engine.TrainStatus{Count: 1, Freshness: "Fresh"}},
			{UserID: "bob", Doom: 5},
		},
		RosterLocked: true,
	}
	embed := b.leaderboardEmbed(board)
	if !strings.Contains(embed.Description, "<@alice> — 2/12 Doom") {
		t.Fatalf("expected alice row, got %q", embed.Description)
	}
	if !strings.Contains(embed.Description, "Hex: 1 (Fresh)") {
		t.Fatalf("expected hex train in row, got %q", embed.Description)
	}
	if embed.Footer == nil || !strings.Contains(embed.Footer.Text, "locked") {
		t.Fatalf("expected roster lock footer, got %+v", embed.Footer)
	}
}

func TestInspectEmbedHidesPrivateFields(t *testing.T) {
	t.Parallel()
	b := newViewBot()
	hours := 12.5
	status := engine.PlayerStatus{
		UserID:             "alice",
		Doom:               3,
		HexTrain:           engine.TrainStatus{Count: 2, Freshness: "Warm"},
		VeilHoursRemaining: &hours,
	}
	lockouts := storage.Lockouts{Hex: []string{"bob"}}

	self := b.inspectEmbed(status, true, lockouts)
	if len(self.Fields) != 6 {
		t.Fatalf("expected 6 fields on self inspect, got %d", len(self.Fields))
	}
	if self.Fields[3].Value != "12.5 hours remaining" {
		t.Fatalf("expected veil hours, got %q", self.Fields[3].Value)
	}

	other := b.inspectEmbed(status, false, storage.Lockouts{})
	if len(other.Fields) != 3 {
		t.Fatalf("expected 3 fields on foreign inspect, got %d", len(other.Fields))
	}
}

func TestCommandDefinitionsCoverDispatch(t *testing.T) {
	t.Parallel()
	want := []string{
		"join", "leave", "hex", "shield", "mend", "inspect", "leaderboard",
		"claimhex", "claimmend", "unclaim",
		"admin_setchannel", "admin_reset_game", "admin_advance_day", "admin_force_winner",
	}
	defs := commandDefinitions()
	if len(defs) != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), len(defs))
	}
	byName := make(map[string]bool, len(defs))
	for _, def := range defs {
		byName[def.Name] = true
	}
	for _, name := range want {
		if !byName[name] {
			t.Fatalf("missing command definition %q", name)
		}
	}
}
