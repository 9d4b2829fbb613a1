package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hexfall/ritualwar/internal/game/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPlayerLifecycle(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	joined := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.GetPlayer(ctx, "guild-1", "user-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	player := storage.Player{
		UserID:   "user-1",
		GuildID:  "guild-1",
		JoinedAt: joined,
		Active:   true,
	}
	if err := store.CreatePlayer(ctx, player); err != nil {
		t.Fatalf("create player: %v", err)
	}

	got, err := store.GetPlayer(ctx, "guild-1", "user-1")
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if !got.Active || got.Doom != 0 || got.VeilUntil != nil || got.LastActionDay != "" {
		t.Fatalf("expected fresh player defaults, got %+v", got)
	}
	if !got.JoinedAt.Equal(joined) {
		t.Fatalf("expected joined at %v, got %v", joined, got.JoinedAt)
	}

	veil := joined.Add(24 * time.Hour)
	got.Doom = 5
	got.VeilUntil = &veil
	got.LastActionDay = "2026-03-01"
	got.Active = false
	if err := store.UpdatePlayer(ctx, got); err != nil {
		t.Fatalf("update player: %v", err)
	}

	updated, err := store.GetPlayer(ctx, "guild-1", "user-1")
	if err != nil {
		t.Fatalf("get updated player: %v", err)
	}
	if updated.Doom != 5 || updated.Active || updated.LastActionDay != "2026-03-01" {
		t.Fatalf("expected updated fields, got %+v", updated)
	}
	if updated.VeilUntil == nil || !updated.VeilUntil.Equal(veil) {
		t.Fatalf("expected veil until %v, got %v", veil, updated.VeilUntil)
	}
}

func TestPlayersAreGuildScoped(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	joined := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, guild := range []string{"guild-1", "guild-2"} {
		if err := store.CreatePlayer(ctx, storage.Player{UserID: "user-1", GuildID: guild, JoinedAt: joined, Active: true}); err != nil {
			t.Fatalf("create player in %s: %v", guild, err)
		}
	}

	players, err := store.ActivePlayers(ctx, "guild-1")
	if err != nil {
		t.Fatalf("active players: %v", err)
	}
	if len(players) != 1 || players[0].GuildID != "guild-1" {
		t.Fatalf("expected one guild-1 player, got %+v", players)
	}
}

func TestActivePlayersExcludesInactive(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	joined := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	active := storage.Player{UserID: "user-1", GuildID: "guild-1", JoinedAt: joined, Active: true}
	inactive := storage.Player{UserID: "user-2", GuildID: "guild-1", JoinedAt: joined, Active: false}
	for _, player := range []storage.Player{active, inactive} {
		if err := store.CreatePlayer(ctx, player); err != nil {
			t.Fatalf("create player %s: %v", player.UserID, err)
		}
	}

	players, err := store.ActivePlayers(ctx, "guild-1")
	if err != nil {
		t.Fatalf("active players: %v", err)
	}
	if len(players) != 1 || players[0].UserID != "user-1" {
		t.Fatalf("expected only user-1, got %+v", players)
	}
}

func TestReminderEligible(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	joined := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	players := []storage.Player{
		{UserID: "acted", GuildID: "guild-1", JoinedAt: joined, LastActionDay: "2026-03-01", Active: true},
		{UserID: "idle", GuildID: "guild-1", JoinedAt: joined, Active: true},
		{UserID: "stale", GuildID: "guild-1", JoinedAt: joined, LastActionDay: "2026-02-28", Active: true},
		{UserID: "gone", GuildID: "guild-1", JoinedAt: joined, Active: false},
	}
	for _, player := range players {
		if err := store.CreatePlayer(ctx, player); err != nil {
			t.Fatalf("create player %s: %v", player.UserID, err)
		}
	}

	eligible, err := store.ReminderEligible(ctx, "guild-1", "2026-03-01")
	if err != nil {
		t.Fatalf("reminder eligible: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible players, got %d", len(eligible))
	}
	if eligible[0].UserID != "idle" || eligible[1].UserID != "stale" {
		t.Fatalf("expected idle and stale, got %+v", eligible)
	}
}

func TestSignatureUpsertAndExpiry(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	signature := storage.Signature{
		TargetID:  "target-1",
		SignerID:  "signer-1",
		GuildID:   "guild-1",
		Type:      storage.TypeHex,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.AddSignature(ctx, signature); err != nil {
		t.Fatalf("add signature: %v", err)
	}

	// Re-adding refreshes expiry rather than duplicating.
	signature.ExpiresAt = now.Add(24 * time.Hour)
	if err := store.AddSignature(ctx, signature); err != nil {
		t.Fatalf("refresh signature: %v", err)
	}

	signatures, err := store.Signatures(ctx, "guild-1", "target-1", storage.TypeHex, now)
	if err != nil {
		t.Fatalf("signatures: %v", err)
	}
	if len(signatures) != 1 {
		t.Fatalf("expected 1 signature after refresh, got %d", len(signatures))
	}
	if !signatures[0].ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("expected refreshed expiry, got %v", signatures[0].ExpiresAt)
	}

	// A read at expiry purges the row.
	signatures, err = store.Signatures(ctx, "guild-1", "target-1", storage.TypeHex, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("signatures after expiry: %v", err)
	}
	if len(signatures) != 0 {
		t.Fatalf("expected expired signature purged, got %d", len(signatures))
	}
}

func TestHasSignature(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.AddSignature(ctx, storage.Signature{
		TargetID: "target-1", SignerID: "signer-1", GuildID: "guild-1",
		Type: storage.TypeHex, ExpiresAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("add signature: %v", err)
	}

	has, err := store.HasSignature(ctx, "guild-1", "target-1", "signer-1", storage.TypeHex, now)
	if err != nil {
		t.Fatalf("has signature: %v", err)
	}
	if !has {
		t.Fatal("expected live signature")
	}

	has, err = store.HasSignature(ctx, "guild-1", "target-1", "signer-1", storage.TypeMend, now)
	if err != nil {
		t.Fatalf("has mend signature: %v", err)
	}
	if has {
		t.Fatal("expected no mend signature")
	}

	has, err = store.HasSignature(ctx, "guild-1", "target-1", "signer-1", storage.TypeHex, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("has signature after expiry: %v", err)
	}
	if has {
		t.Fatal("expected signature to expire on read")
	}
}

func TestClearSignaturesOnLeave(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, target := range []string{"target-1", "target-2"} {
		if err := store.AddSignature(ctx, storage.Signature{
			TargetID: target, SignerID: "leaver", GuildID: "guild-1",
			Type: storage.TypeHex, ExpiresAt: now.Add(time.Hour),
		}); err != nil {
			t.Fatalf("add signature on %s: %v", target, err)
		}
	}

	if err := store.ClearSignatures(ctx, "guild-1", "leaver"); err != nil {
		t.Fatalf("clear signatures: %v", err)
	}

	for _, target := range []string{"target-1", "target-2"} {
		signatures, err := store.Signatures(ctx, "guild-1", target, storage.TypeHex, now)
		if err != nil {
			t.Fatalf("signatures on %s: %v", target, err)
		}
		if len(signatures) != 0 {
			t.Fatalf("expected signatures cleared on %s, got %d", target, len(signatures))
		}
	}
}

func TestUserLockouts(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	signatures := []storage.Signature{
		{TargetID: "target-1", SignerID: "user-1", GuildID: "guild-1", Type: storage.TypeHex, ExpiresAt: now.Add(time.Hour)},
		{TargetID: "target-2", SignerID: "user-1", GuildID: "guild-1", Type: storage.TypeMend, ExpiresAt: now.Add(time.Hour)},
		{TargetID: "target-3", SignerID: "someone-else", GuildID: "guild-1", Type: storage.TypeHex, ExpiresAt: now.Add(time.Hour)},
	}
	for _, signature := range signatures {
		if err := store.AddSignature(ctx, signature); err != nil {
			t.Fatalf("add signature: %v", err)
		}
	}

	lockouts, err := store.UserLockouts(ctx, "guild-1", "user-1", now)
	if err != nil {
		t.Fatalf("user lockouts: %v", err)
	}
	if len(lockouts.Hex) != 1 || lockouts.Hex[0] != "target-1" {
		t.Fatalf("expected hex lockout on target-1, got %+v", lockouts.Hex)
	}
	if len(lockouts.Mend) != 1 || lockouts.Mend[0] != "target-2" {
		t.Fatalf("expected mend lockout on target-2, got %+v", lockouts.Mend)
	}
}

func TestClaimLifecycle(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	claim := storage.Claim{
		TargetID:   "target-1",
		GuildID:    "guild-1",
		Type:       storage.TypeHex,
		ClaimantID: "claimant-1",
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := store.AddClaim(ctx, claim); err != nil {
		t.Fatalf("add claim: %v", err)
	}

	claims, err := store.Claims(ctx, "guild-1", "target-1", storage.TypeHex, now)
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if len(claims) != 1 || claims[0].ClaimantID != "claimant-1" {
		t.Fatalf("expected claimant-1's claim, got %+v", claims)
	}

	if err := store.RemoveClaim(ctx, "guild-1", "target-1", storage.TypeHex, "claimant-1"); err != nil {
		t.Fatalf("remove claim: %v", err)
	}
	claims, err = store.Claims(ctx, "guild-1", "target-1", storage.TypeHex, now)
	if err != nil {
		t.Fatalf("claims after remove: %v", err)
	}
	if len(claims) != 0 {
		t.Fatalf("expected no claims, got %d", len(claims))
	}
}

func TestClaimsExpireWithTrain(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.AddClaim(ctx, storage.Claim{
		TargetID: "target-1", GuildID: "guild-1", Type: storage.TypeHex,
		ClaimantID: "claimant-1", ExpiresAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("add claim: %v", err)
	}

	claims, err := store.Claims(ctx, "guild-1", "target-1", storage.TypeHex, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("claims at expiry: %v", err)
	}
	if len(claims) != 0 {
		t.Fatalf("expected claim purged at expiry, got %d", len(claims))
	}
}

func TestGuildState(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.GetState(ctx, "guild-1", storage.StateKeyPublicChannel); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.SetState(ctx, "guild-1", storage.StateKeyPublicChannel, "chan-1"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := store.SetState(ctx, "guild-1", storage.StateKeyPublicChannel, "chan-2"); err != nil {
		t.Fatalf("overwrite state: %v", err)
	}

	value, err := store.GetState(ctx, "guild-1", storage.StateKeyPublicChannel)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if value != "chan-2" {
		t.Fatalf("expected chan-2, got %q", value)
	}
}

func TestRosterLock(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	locked, err := store.IsRosterLocked(ctx, "guild-1")
	if err != nil {
		t.Fatalf("is roster locked: %v", err)
	}
	if locked {
		t.Fatal("expected unlocked roster")
	}

	if err := store.LockRoster(ctx, "guild-1"); err != nil {
		t.Fatalf("lock roster: %v", err)
	}

	locked, err = store.IsRosterLocked(ctx, "guild-1")
	if err != nil {
		t.Fatalf("is roster locked after lock: %v", err)
	}
	if !locked {
		t.Fatal("expected locked roster")
	}

	// The lock is guild-scoped.
	locked, err = store.IsRosterLocked(ctx, "guild-2")
	if err != nil {
		t.Fatalf("is roster locked other guild: %v", err)
	}
	if locked {
		t.Fatal("expected other guild unlocked")
	}
}

func TestClearAllGameData(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.CreatePlayer(ctx, storage.Player{UserID: "user-1", GuildID: "guild-1", JoinedAt: now, Active: true}); err != nil {
		t.Fatalf("create player: %v", err)
	}
	if err := store.CreatePlayer(ctx, storage.Player{UserID: "user-1", GuildID: "guild-2", JoinedAt: now, Active: true}); err != nil {
		t.Fatalf("create player other guild: %v", err)
	}
	if err := store.AddSignature(ctx, storage.Signature{
		TargetID: "user-1", SignerID: "user-2", GuildID: "guild-1",
		Type: storage.TypeHex, ExpiresAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("add signature: %v", err)
	}
	if err := store.LockRoster(ctx, "guild-1"); err != nil {
		t.Fatalf("lock roster: %v", err)
	}

	if err := store.ClearAllGameData(ctx, "guild-1"); err != nil {
		t.Fatalf("clear all game data: %v", err)
	}

	if _, err := store.GetPlayer(ctx, "guild-1", "user-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected player wiped, got %v", err)
	}
	locked, err := store.IsRosterLocked(ctx, "guild-1")
	if err != nil {
		t.Fatalf("is roster locked after reset: %v", err)
	}
	if locked {
		t.Fatal("expected roster lock wiped")
	}

	// Other guilds are untouched.
	if _, err := store.GetPlayer(ctx, "guild-2", "user-1"); err != nil {
		t.Fatalf("expected guild-2 player intact, got %v", err)
	}
}
