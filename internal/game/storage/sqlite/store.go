// Package sqlite provides the SQLite-backed game store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hexfall/ritualwar/internal/game/storage"
	"github.com/hexfall/ritualwar/internal/game/storage/sqlite/migrations"
	sqlitemigrate "github.com/hexfall/ritualwar/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for game state.
type Store struct {
	sqlDB *sql.DB
}

func toUnix(value time.Time) int64 {
	return value.UTC().Unix()
}

func fromUnix(value int64) time.Time {
	return time.Unix(value, 0).UTC()
}

// Open opens a game SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

const playerColumns = "user_id, guild_id, joined_at, doom, veil_until, last_action_day, active"

func scanPlayer(scanner interface{ Scan(...any) error }) (storage.Player, error) {
	var (
		player        storage.Player
		joinedAt      int64
		veilUntil     sql.NullInt64
		lastActionDay sql.NullString
		active        int
	)
	err := scanner.Scan(&player.UserID, &player.GuildID, &joinedAt, &player.Doom, &veilUntil, &lastActionDay, &active)
	if err != nil {
		return storage.Player{}, err
	}
	player.JoinedAt = fromUnix(joinedAt)
	if veilUntil.Valid {
		until := fromUnix(veilUntil.Int64)
		player.VeilUntil = &until
	}
	if lastActionDay.Valid {
		player.LastActionDay = lastActionDay.String
	}
	player.Active = active != 0
	return player, nil
}

func playerArgs(player storage.Player) (veilUntil sql.NullInt64, lastActionDay sql.NullString, active int) {
	if player.VeilUntil != nil {
		veilUntil = sql.NullInt64{Int64: toUnix(*player.VeilUntil), Valid: true}
	}
	if player.LastActionDay != "" {
		lastActionDay = sql.NullString{String: player.LastActionDay, Valid: true}
	}
	if player.Active {
		active = 1
	}
	return veilUntil, lastActionDay, active
}

// GetPlayer returns one player row or storage.ErrNotFound.
func (s *Store) GetPlayer(ctx context.Context, guildID, userID string) (storage.Player, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Player{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE guild_id = ? AND user_id = ?",
		guildID, userID,
	)
	player, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Player{}, storage.ErrNotFound
		}
		return storage.Player{}, fmt.Errorf("get player: %w", err)
	}
	return player, nil
}

// CreatePlayer inserts a new player row.
func (s *Store) CreatePlayer(ctx context.Context, player storage.Player) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	veilUntil, lastActionDay, active := playerArgs(player)
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO players ("+playerColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		player.UserID, player.GuildID, toUnix(player.JoinedAt), player.Doom, veilUntil, lastActionDay, active,
	)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

// UpdatePlayer overwrites the mutable fields of a player row.
func (s *Store) UpdatePlayer(ctx context.Context, player storage.Player) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	veilUntil, lastActionDay, active := playerArgs(player)
	_, err := s.sqlDB.ExecContext(ctx,
		"UPDATE players SET doom = ?, veil_until = ?, last_action_day = ?, active = ? WHERE guild_id = ? AND user_id = ?",
		player.Doom, veilUntil, lastActionDay, active, player.GuildID, player.UserID,
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

// ActivePlayers returns every active player in a guild.
func (s *Store) ActivePlayers(ctx context.Context, guildID string) ([]storage.Player, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryPlayers(ctx,
		"SELECT "+playerColumns+" FROM players WHERE guild_id = ? AND active = 1 ORDER BY user_id",
		guildID,
	)
}

// ReminderEligible returns active players who have not acted on dayKey.
func (s *Store) ReminderEligible(ctx context.Context, guildID, dayKey string) ([]storage.Player, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryPlayers(ctx,
		"SELECT "+playerColumns+" FROM players WHERE guild_id = ? AND active = 1 AND (last_action_day IS NULL OR last_action_day != ?) ORDER BY user_id",
		guildID, dayKey,
	)
}

func (s *Store) queryPlayers(ctx context.Context, query string, args ...any) ([]storage.Player, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []storage.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// PurgeExpired deletes signatures and claims whose expiry has passed.
func (s *Store) PurgeExpired(ctx context.Context, guildID string, now time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	cutoff := toUnix(now)
	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM signatures WHERE guild_id = ? AND expires_at <= ?", guildID, cutoff,
	); err != nil {
		return fmt.Errorf("purge signatures: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM claims WHERE guild_id = ? AND expires_at <= ?", guildID, cutoff,
	); err != nil {
		return fmt.Errorf("purge claims: %w", err)
	}
	return nil
}

// Signatures returns live signatures of one type on a target.
func (s *Store) Signatures(ctx context.Context, guildID, targetID string, sigType storage.SignatureType, now time.Time) ([]storage.Signature, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := s.PurgeExpired(ctx, guildID, now); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT target_id, signer_id, guild_id, type, expires_at FROM signatures WHERE guild_id = ? AND target_id = ? AND type = ? ORDER BY signer_id",
		guildID, targetID, string(sigType),
	)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	var signatures []storage.Signature
	for rows.Next() {
		var (
			signature storage.Signature
			sigTypeDB string
			expiresAt int64
		)
		if err := rows.Scan(&signature.TargetID, &signature.SignerID, &signature.GuildID, &sigTypeDB, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		signature.Type = storage.SignatureType(sigTypeDB)
		signature.ExpiresAt = fromUnix(expiresAt)
		signatures = append(signatures, signature)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return signatures, nil
}

// HasSignature reports whether a signer holds a live signature of a type on a target.
func (s *Store) HasSignature(ctx context.Context, guildID, targetID, signerID string, sigType storage.SignatureType, now time.Time) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	if err := s.PurgeExpired(ctx, guildID, now); err != nil {
		return false, err
	}

	var count int
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM signatures WHERE guild_id = ? AND target_id = ? AND signer_id = ? AND type = ?",
		guildID, targetID, signerID, string(sigType),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count signatures: %w", err)
	}
	return count > 0, nil
}

// AddSignature inserts a signature or refreshes its expiry.
func (s *Store) AddSignature(ctx context.Context, signature storage.Signature) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !signature.Type.Valid() {
		return fmt.Errorf("invalid signature type %q", signature.Type)
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT OR REPLACE INTO signatures (target_id, signer_id, guild_id, type, expires_at) VALUES (?, ?, ?, ?, ?)",
		signature.TargetID, signature.SignerID, signature.GuildID, string(signature.Type), toUnix(signature.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("add signature: %w", err)
	}
	return nil
}

// ClearSignatures removes every signature a user signed in a guild.
func (s *Store) ClearSignatures(ctx context.Context, guildID, signerID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM signatures WHERE guild_id = ? AND signer_id = ?", guildID, signerID,
	)
	if err != nil {
		return fmt.Errorf("clear signatures: %w", err)
	}
	return nil
}

// UserLockouts returns the targets a user holds live signatures on, by type.
func (s *Store) UserLockouts(ctx context.Context, guildID, userID string, now time.Time) (storage.Lockouts, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Lockouts{}, err
	}
	if err := s.PurgeExpired(ctx, guildID, now); err != nil {
		return storage.Lockouts{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT target_id, type FROM signatures WHERE guild_id = ? AND signer_id = ? ORDER BY target_id",
		guildID, userID,
	)
	if err != nil {
		return storage.Lockouts{}, fmt.Errorf("query lockouts: %w", err)
	}
	defer rows.Close()

	var lockouts storage.Lockouts
	for rows.Next() {
		var targetID, sigType string
		if err := rows.Scan(&targetID, &sigType); err != nil {
			return storage.Lockouts{}, fmt.Errorf("scan lockout: %w", err)
		}
		switch storage.SignatureType(sigType) {
		case storage.TypeHex:
			lockouts.Hex = append(lockouts.Hex, targetID)
		case storage.TypeMend:
			lockouts.Mend = append(lockouts.Mend, targetID)
		}
	}
	if err := rows.Err(); err != nil {
		return storage.Lockouts{}, fmt.Errorf("iterate lockouts: %w", err)
	}
	return lockouts, nil
}

// Claims returns live claims of one type on a target.
func (s *Store) Claims(ctx context.Context, guildID, targetID string, sigType storage.SignatureType, now time.Time) ([]storage.Claim, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := s.PurgeExpired(ctx, guildID, now); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT target_id, guild_id, type, claimant_id, expires_at FROM claims WHERE guild_id = ? AND target_id = ? AND type = ? ORDER BY claimant_id",
		guildID, targetID, string(sigType),
	)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var claims []storage.Claim
	for rows.Next() {
		var (
			claim     storage.Claim
			claimType string
			expiresAt int64
		)
		if err := rows.Scan(&claim.TargetID, &claim.GuildID, &claimType, &claim.ClaimantID, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claim.Type = storage.SignatureType(claimType)
		claim.ExpiresAt = fromUnix(expiresAt)
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claims, nil
}

// AddClaim inserts a claim row.
func (s *Store) AddClaim(ctx context.Context, claim storage.Claim) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !claim.Type.Valid() {
		return fmt.Errorf("invalid claim type %q", claim.Type)
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO claims (target_id, guild_id, type, claimant_id, expires_at) VALUES (?, ?, ?, ?, ?)",
		claim.TargetID, claim.GuildID, string(claim.Type), claim.ClaimantID, toUnix(claim.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("add claim: %w", err)
	}
	return nil
}

// RemoveClaim deletes one claimant's claim on a (target, type).
func (s *Store) RemoveClaim(ctx context.Context, guildID, targetID string, sigType storage.SignatureType, claimantID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM claims WHERE guild_id = ? AND target_id = ? AND type = ? AND claimant_id = ?",
		guildID, targetID, string(sigType), claimantID,
	)
	if err != nil {
		return fmt.Errorf("remove claim: %w", err)
	}
	return nil
}

// ClearClaims removes every claim a user holds in a guild.
func (s *Store) ClearClaims(ctx context.Context, guildID, claimantID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM claims WHERE guild_id = ? AND claimant_id = ?", guildID, claimantID,
	)
	if err != nil {
		return fmt.Errorf("clear claims: %w", err)
	}
	return nil
}

// GetState returns one guild-state value or storage.ErrNotFound.
func (s *Store) GetState(ctx context.Context, guildID, key string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}

	var value string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT value FROM guild_state WHERE guild_id = ? AND key = ?", guildID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get state: %w", err)
	}
	return value, nil
}

// SetState upserts one guild-state value.
func (s *Store) SetState(ctx context.Context, guildID, key, value string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT OR REPLACE INTO guild_state (guild_id, key, value) VALUES (?, ?, ?)",
		guildID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// IsRosterLocked reports whether the guild's roster lock flag is set.
func (s *Store) IsRosterLocked(ctx context.Context, guildID string) (bool, error) {
	value, err := s.GetState(ctx, guildID, storage.StateKeyRosterLocked)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return value == "1", nil
}

// LockRoster sets the guild's roster lock flag.
func (s *Store) LockRoster(ctx context.Context, guildID string) error {
	return s.SetState(ctx, guildID, storage.StateKeyRosterLocked, "1")
}

// ClearAllGameData wipes every table's rows for one guild.
func (s *Store) ClearAllGameData(ctx context.Context, guildID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	for _, table := range []string{"players", "signatures", "claims", "guild_state"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE guild_id = ?", guildID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
