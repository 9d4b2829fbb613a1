package engine

import (
	apperrors "github.com/hexfall/ritualwar/internal/platform/errors"
)

// TrainStatus describes the live signature train of one type on a target.
type TrainStatus struct {
	Count     int
	Freshness string
}

// ActionResult is the outcome of one game action. Failures are expected,
// user-correctable outcomes; Message is addressed to the actor and
// PublicMessage, set only on success, to the whole guild.
type ActionResult struct {
	Success       bool
	Code          apperrors.Code // set on failure
	Message       string
	PublicMessage string

	DoomChange            *int
	NewDoom               *int
	Eliminated            bool
	ReflexShieldTriggered bool
	WinnerID              string
}

// PlayerStatus is the inspect view of one player. VeilHoursRemaining is set
// only when a player inspects themselves.
type PlayerStatus struct {
	UserID             string
	Doom               int
	HexTrain           TrainStatus
	MendTrain          TrainStatus
	VeilHoursRemaining *float64
}

// LeaderboardEntry is one row of the guild leaderboard.
type LeaderboardEntry struct {
	UserID    string
	Doom      int
	HexTrain  TrainStatus
	MendTrain TrainStatus
}

// Leaderboard lists active players ordered by ascending doom.
type Leaderboard struct {
	Entries      []LeaderboardEntry
	RosterLocked bool
}

func success(message, publicMessage string) ActionResult {
	return ActionResult{Success: true, Message: message, PublicMessage: publicMessage}
}

func failure(err *apperrors.Error) ActionResult {
	return ActionResult{Success: false, Code: err.Code, Message: err.Message}
}

func intPtr(value int) *int {
	return &value
}
