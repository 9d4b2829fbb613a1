// Package storage defines the persistence boundary for game state. All
// operations are scoped by guild id; implementations must commit each call
// atomically.
package storage

import (
	"context"
	"time"

	apperrors "github.com/hexfall/ritualwar/internal/platform/errors"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
)

// SignatureType identifies the action behind a signature or claim.
type SignatureType string

const (
	// TypeHex marks a damaging signature.
	TypeHex SignatureType = "hex"
	// TypeMend marks a healing signature.
	TypeMend SignatureType = "mend"
)

// Valid reports whether the type is a known signature type.
func (t SignatureType) Valid() bool {
	return t == TypeHex || t == TypeMend
}

// StateKeyRosterLocked is the guild-state key set on first elimination.
const StateKeyRosterLocked = "roster_locked"

// StateKeyPublicChannel is the guild-state key for the announcement channel.
const StateKeyPublicChannel = "public_channel"

// Player is one (user, guild) game membership row.
type Player struct {
	UserID        string
	GuildID       string
	JoinedAt      time.Time
	Doom          int
	VeilUntil     *time.Time
	LastActionDay string // calendar-day key in the game timezone; empty when never acted
	Active        bool
}

// Signature records one signer's live hex/mend contribution to a target.
// The (target, signer, guild, type) key is unique; re-applying refreshes
// ExpiresAt.
type Signature struct {
	TargetID  string
	SignerID  string
	GuildID   string
	Type      SignatureType
	ExpiresAt time.Time
}

// Claim is a claimant's public assertion of train contribution. It expires
// with the oldest signature of its train.
type Claim struct {
	TargetID   string
	GuildID    string
	Type       SignatureType
	ClaimantID string
	ExpiresAt  time.Time
}

// Lockouts lists targets a user cannot re-sign due to their own live
// signatures, split by type.
type Lockouts struct {
	Hex  []string
	Mend []string
}

// PlayerStore persists player membership rows.
type PlayerStore interface {
	GetPlayer(ctx context.Context, guildID, userID string) (Player, error)
	CreatePlayer(ctx context.Context, player Player) error
	UpdatePlayer(ctx context.Context, player Player) error
	ActivePlayers(ctx context.Context, guildID string) ([]Player, error)
	// ReminderEligible returns active players whose last action day differs
	// from dayKey. Stale reads are acceptable; the scheduler tolerates them.
	ReminderEligible(ctx context.Context, guildID, dayKey string) ([]Player, error)
}

// SignatureStore persists signature rows. Reads purge expired rows first so
// stale signatures never leak into a result.
type SignatureStore interface {
	Signatures(ctx context.Context, guildID, targetID string, sigType SignatureType, now time.Time) ([]Signature, error)
	HasSignature(ctx context.Context, guildID, targetID, signerID string, sigType SignatureType, now time.Time) (bool, error)
	AddSignature(ctx context.Context, signature Signature) error
	ClearSignatures(ctx context.Context, guildID, signerID string) error
	UserLockouts(ctx context.Context, guildID, userID string, now time.Time) (Lockouts, error)
}

// ClaimStore persists claim rows with the same read-time expiry as signatures.
type ClaimStore interface {
	Claims(ctx context.Context, guildID, targetID string, sigType SignatureType, now time.Time) ([]Claim, error)
	AddClaim(ctx context.Context, claim Claim) error
	RemoveClaim(ctx context.Context, guildID, targetID string, sigType SignatureType, claimantID string) error
	ClearClaims(ctx context.Context, guildID, claimantID string) error
}

// StateStore persists per-guild key/value flags.
type StateStore interface {
	GetState(ctx context.Context, guildID, key string) (string, error)
	SetState(ctx context.Context, guildID, key, value string) error
	IsRosterLocked(ctx context.Context, guildID string) (bool, error)
	LockRoster(ctx context.Context, guildID string) error
}

// Store is the composite persistence contract for one game database.
type Store interface {
	PlayerStore
	SignatureStore
	ClaimStore
	StateStore
	// PurgeExpired deletes signatures and claims whose expiry has passed.
	PurgeExpired(ctx context.Context, guildID string, now time.Time) error
	// ClearAllGameData wipes every table's rows for one guild.
	ClearAllGameData(ctx context.Context, guildID string) error
	Close() error
}
