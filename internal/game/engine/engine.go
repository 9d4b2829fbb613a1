// Package engine implements the Ritual War rule engine: membership, daily
// actions, signature trains, claims, elimination and win detection.
//
// Expected, user-correctable outcomes come back as failed ActionResults; only
// storage faults surface as Go errors (CodeStorageUnavailable). Mutating
// operations are serialized per guild, so an action's read-then-write round
// trips cannot interleave with another action in the same guild. A storage
// fault in the middle of a multi-step action still leaves the earlier writes
// in place; callers see the fault and the next action proceeds from the
// stored state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hexfall/ritualwar/internal/game/clock"
	"github.com/hexfall/ritualwar/internal/game/config"
	"github.com/hexfall/ritualwar/internal/game/storage"
	apperrors "github.com/hexfall/ritualwar/internal/platform/errors"
)

var (
	// ErrNotInGame indicates the acting user is not an active player.
	ErrNotInGame = apperrors.New(apperrors.CodeNotInGame, "You are not in the game.")
	// ErrTargetNotInGame indicates the targeted user is not an active player.
	ErrTargetNotInGame = apperrors.New(apperrors.CodeTargetNotInGame, "Target is not in the game.")
	// ErrAlreadyJoined indicates the user is already an active player.
	ErrAlreadyJoined = apperrors.New(apperrors.CodeAlreadyJoined, "You are already in the game!")
	// ErrRosterLocked indicates new joins are blocked after the first elimination.
	ErrRosterLocked = apperrors.New(apperrors.CodeRosterLocked, "The roster is locked. No new players can join after the first elimination.")
	// ErrSelfTarget indicates a hex aimed at its own caster.
	ErrSelfTarget = apperrors.New(apperrors.CodeSelfTarget, "You cannot target yourself with Hex.")
	// ErrAlreadyActedToday indicates the daily action was already spent.
	ErrAlreadyActedToday = apperrors.New(apperrors.CodeAlreadyActedToday, "You have already acted today. Wait until tomorrow to act again.")
)

// Engine applies game rules against a guild-scoped store.
type Engine struct {
	store storage.Store
	rules config.Rules
	clock *clock.Clock
	locks *guildLocks
}

// New builds an engine over a store with an injected rule set and clock.
func New(store storage.Store, rules config.Rules, gameClock *clock.Clock) *Engine {
	return &Engine{
		store: store,
		rules: rules,
		clock: gameClock,
		locks: newGuildLocks(),
	}
}

func storageFailure(op string, err error) error {
	return apperrors.Wrap(apperrors.CodeStorageUnavailable, op, err)
}

// targetNotInGameError matches ErrTargetNotInGame by code and carries the
// target id for callers that handle the error rather than a result.
func targetNotInGameError(targetID string) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeTargetNotInGame, ErrTargetNotInGame.Message,
		map[string]string{"target": targetID})
}

func duplicateSignatureError(sigType storage.SignatureType) *apperrors.Error {
	label := "Hex"
	if sigType == storage.TypeMend {
		label = "Mend"
	}
	return apperrors.New(apperrors.CodeDuplicateSignature,
		fmt.Sprintf("You already have an active %s signature on this target.", label))
}

func actionName(sigType storage.SignatureType) string {
	if sigType == storage.TypeMend {
		return "mended"
	}
	return "hexed"
}

func marksText(label string, train TrainStatus) string {
	plural := "s"
	if train.Count == 1 {
		plural = ""
	}
	text := fmt.Sprintf("%d %s Mark%s", train.Count, label, plural)
	if train.Count > 0 {
		text += fmt.Sprintf(" (%s)", train.Freshness)
	}
	return text
}

// playerCanActToday checks the daily limit against an already-fetched player.
func (e *Engine) playerCanActToday(player storage.Player, bypassDailyLimit bool) *apperrors.Error {
	if !player.Active {
		return ErrNotInGame
	}
	if bypassDailyLimit {
		return nil
	}
	if player.LastActionDay == e.clock.TodayKey() {
		return ErrAlreadyActedToday
	}
	return nil
}

// CanActToday reports whether a user may act today. It returns a domain error
// (NotInGame, AlreadyActedToday) when they cannot, nil when they can.
func (e *Engine) CanActToday(ctx context.Context, guildID, userID string, bypassDailyLimit bool) error {
	player, err := e.store.GetPlayer(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotInGame
		}
		return storageFailure("get player", err)
	}
	if domainErr := e.playerCanActToday(player, bypassDailyLimit); domainErr != nil {
		return domainErr
	}
	return nil
}

// Join adds a user to the game, or reactivates their previous record. The
// roster lock only blocks users who never held a record; rejoining is always
// permitted.
func (e *Engine) Join(ctx context.Context, guildID, userID string) (ActionResult, error) {
	defer e.locks.acquire(guildID)()

	existing, err := e.store.GetPlayer(ctx, guildID, userID)
	found := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return ActionResult{}, storageFailure("get player", err)
	}
	if found && existing.Active {
		return failure(ErrAlreadyJoined), nil
	}

	if found {
		existing.Active = true
		existing.Doom = 0
		existing.VeilUntil = nil
		existing.LastActionDay = ""
		if err := e.store.UpdatePlayer(ctx, existing); err != nil {
			return ActionResult{}, storageFailure("update player", err)
		}
	} else {
		locked, err := e.store.IsRosterLocked(ctx, guildID)
		if err != nil {
			return ActionResult{}, storageFailure("check roster lock", err)
		}
		if locked {
			return failure(ErrRosterLocked), nil
		}
		if err := e.store.CreatePlayer(ctx, storage.Player{
			UserID:   userID,
			GuildID:  guildID,
			JoinedAt: e.clock.Now(),
			Active:   true,
		}); err != nil {
			return ActionResult{}, storageFailure("create player", err)
		}
	}

	return success(
		"You have joined the Ritual War! Use `/leaderboard` to see the current state.",
		fmt.Sprintf("<@%s> has joined the Ritual War!", userID),
	), nil
}

// Leave deactivates a player and purges their signatures and claims.
func (e *Engine) Leave(ctx context.Context, guildID, userID string) (ActionResult, error) {
	defer e.locks.acquire(guildID)()

	player, err := e.store.GetPlayer(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure(ErrNotInGame), nil
		}
		return ActionResult{}, storageFailure("get player", err)
	}
	if !player.Active {
		return failure(ErrNotInGame), nil
	}

	player.Active = false
	if err := e.store.UpdatePlayer(ctx, player); err != nil {
		return ActionResult{}, storageFailure("update player", err)
	}
	if err := e.store.ClearSignatures(ctx, guildID, userID); err != nil {
		return ActionResult{}, storageFailure("clear signatures", err)
	}
	if err := e.store.ClearClaims(ctx, guildID, userID); err != nil {
		return ActionResult{}, storageFailure("clear claims", err)
	}

	return success(
		"You have left the Ritual War.",
		fmt.Sprintf("<@%s> has left the Ritual War!", userID),
	), nil
}

// TrainStatus reports the live signature train of one type on a target.
func (e *Engine) TrainStatus(ctx context.Context, guildID, targetID string, sigType storage.SignatureType) (TrainStatus, error) {
	return e.trainStatus(ctx, guildID, targetID, sigType)
}

func (e *Engine) trainStatus(ctx context.Context, guildID, targetID string, sigType storage.SignatureType) (TrainStatus, error) {
	signatures, err := e.store.Signatures(ctx, guildID, targetID, sigType, e.clock.Now())
	if err != nil {
		return TrainStatus{}, storageFailure("get signatures", err)
	}
	if len(signatures) == 0 {
		return TrainStatus{Count: 0, Freshness: clock.FreshnessExpired}, nil
	}

	oldest := oldestExpiry(signatures)
	createdAt := oldest.Add(-time.Duration(e.rules.SignatureTTLHours) * time.Hour)
	return TrainStatus{
		Count:     len(signatures),
		Freshness: e.clock.Freshness(e.clock.HoursSince(createdAt)),
	}, nil
}

func oldestExpiry(signatures []storage.Signature) time.Time {
	oldest := signatures[0].ExpiresAt
	for _, signature := range signatures[1:] {
		if signature.ExpiresAt.Before(oldest) {
			oldest = signature.ExpiresAt
		}
	}
	return oldest
}

// Hex attacks a target: damage scales with the existing hex train, Reflex
// Shield may fire defensively, Veil halves the final damage, and reaching the
// doom threshold eliminates the target and locks the roster on the guild's
// first elimination.
func (e *Engine) Hex(ctx context.Context, guildID, actorID, targetID string, bypassDailyLimit bool) (ActionResult, error) {
	defer e.locks.acquire(guildID)()

	if actorID == targetID {
		return failure(ErrSelfTarget), nil
	}

	actor, err := e.store.GetPlayer(ctx, guildID, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure(ErrNotInGame), nil
		}
		return ActionResult{}, storageFailure("get actor", err)
	}
	if !actor.Active {
		return failure(ErrNotInGame), nil
	}

	target, err := e.store.GetPlayer(ctx, guildID, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure(ErrTargetNotInGame), nil
		}
		return ActionResult{}, storageFailure("get target", err)
	}
	if !target.Active {
		return failure(ErrTargetNotInGame), nil
	}

	if domainErr := e.playerCanActToday(actor, bypassDailyLimit); domainErr != nil {
		return failure(domainErr), nil
	}

	hasSignature, err := e.store.HasSignature(ctx, guildID, targetID, actorID, storage.TypeHex, e.clock.Now())
	if err != nil {
		return ActionResult{}, storageFailure("check signature", err)
	}
	if hasSignature {
		return failure(duplicateSignatureError(storage.TypeHex)), nil
	}

	hexTrain, err := e.trainStatus(ctx, guildID, targetID, storage.TypeHex)
	if err != nil {
		return ActionResult{}, err
	}
	mendTrain, err := e.trainStatus(ctx, guildID, targetID, storage.TypeMend)
	if err != nil {
		return ActionResult{}, err
	}

	rawDamage := 1 + hexTrain.Count

	// Reflex Shield: fires before damage lands when the blow would eliminate
	// a target who still has their daily action. It spends that action.
	reflexTriggered := false
	if target.Doom+rawDamage >= e.rules.Threshold && e.playerCanActToday(target, false) == nil {
		reflexTriggered = true
		target.Doom = max(0, target.Doom-e.rules.ShieldCleanse)
		veilUntil := e.clock.After(e.rules.SignatureTTLHours)
		target.VeilUntil = &veilUntil
		target.LastActionDay = e.clock.TodayKey()
		if err := e.store.UpdatePlayer(ctx, target); err != nil {
			return ActionResult{}, storageFailure("update target", err)
		}
	}

	veilActive := target.VeilUntil != nil && target.VeilUntil.After(e.clock.Now())
	finalDamage := rawDamage
	if veilActive {
		finalDamage = int(math.Floor(float64(rawDamage) * e.rules.VeilReduction))
	}

	target.Doom += finalDamage
	eliminated := target.Doom >= e.rules.Threshold
	if eliminated {
		target.Active = false
		locked, err := e.store.IsRosterLocked(ctx, guildID)
		if err != nil {
			return ActionResult{}, storageFailure("check roster lock", err)
		}
		if !locked {
			if err := e.store.LockRoster(ctx, guildID); err != nil {
				return ActionResult{}, storageFailure("lock roster", err)
			}
		}
	}
	if err := e.store.UpdatePlayer(ctx, target); err != nil {
		return ActionResult{}, storageFailure("update target", err)
	}

	actor.LastActionDay = e.clock.TodayKey()
	if err := e.store.UpdatePlayer(ctx, actor); err != nil {
		return ActionResult{}, storageFailure("update actor", err)
	}

	if err := e.store.AddSignature(ctx, storage.Signature{
		TargetID:  targetID,
		SignerID:  actorID,
		GuildID:   guildID,
		Type:      storage.TypeHex,
		ExpiresAt: e.clock.After(e.rules.SignatureTTLHours),
	}); err != nil {
		return ActionResult{}, storageFailure("add signature", err)
	}

	hexTrainAfter, err := e.trainStatus(ctx, guildID, targetID, storage.TypeHex)
	if err != nil {
		return ActionResult{}, err
	}

	winnerID, err := e.CheckGameEnd(ctx, guildID)
	if err != nil {
		return ActionResult{}, err
	}

	veilText := ""
	if veilActive && rawDamage != finalDamage {
		veilText = " (Veil reduced damage)"
	}
	reflexText := ""
	if reflexTriggered {
		reflexText = " Your target triggered Reflex Shield before your Hex resolved!"
	}

	message := fmt.Sprintf("Your Hex deals %d damage to <@%s>. They are now at %d/%d Doom.%s%s",
		finalDamage, targetID, target.Doom, e.rules.Threshold, veilText, reflexText)
	if eliminated {
		message += fmt.Sprintf(" <@%s> has been eliminated!", targetID)
	}

	publicMessage := fmt.Sprintf("A Hex strikes <@%s> for %d Doom. <@%s> is now %d/%d. %s. %s.",
		targetID, finalDamage, targetID, target.Doom, e.rules.Threshold,
		marksText("Hex", hexTrainAfter), marksText("Mend", mendTrain))
	if eliminated {
		publicMessage += fmt.Sprintf(" <@%s> has been eliminated from the Ritual War!", targetID)
		if winnerID != "" {
			publicMessage += fmt.Sprintf("\n\n🎉 **RITUAL WAR COMPLETE!** 🎉\n<@%s> is the last Mage standing and wins the game!", winnerID)
		}
	}

	result := success(message, publicMessage)
	result.DoomChange = intPtr(finalDamage)
	result.NewDoom = intPtr(target.Doom)
	result.Eliminated = eliminated
	result.ReflexShieldTriggered = reflexTriggered
	result.WinnerID = winnerID
	return result, nil
}

// Shield cleanses the caster's doom and grants Veil, spending the daily action.
func (e *Engine) Shield(ctx context.Context, guildID, userID string, bypassDailyLimit bool) (ActionResult, error) {
	defer e.locks.acquire(guildID)()

	player, err := e.store.GetPlayer(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure(ErrNotInGame), nil
		}
		return ActionResult{}, storageFailure("get player", err)
	}
	if !player.Active {
		return failure(ErrNotInGame), nil
	}
	if domainErr := e.playerCanActToday(player, bypassDailyLimit); domainErr != nil {
		return failure(domainErr), nil
	}

	oldDoom := player.Doom
	player.Doom = max(0, player.Doom-e.rules.ShieldCleanse)
	veilUntil := e.clock.After(e.rules.SignatureTTLHours)
	player.VeilUntil = &veilUntil
	player.LastActionDay = e.clock.TodayKey()
	if err := e.store.UpdatePlayer(ctx, player); err != nil {
		return ActionResult{}, storageFailure("update player", err)
	}

	healed := oldDoom - player.Doom
	result := success(
		fmt.Sprintf("Shield cleanses %d Doom and grants you Veil for %d hours. You are now at %d/%d Doom.",
			healed, e.rules.SignatureTTLHours, player.Doom, e.rules.Threshold),
		fmt.Sprintf("<@%s> casts Shield and is now at %d/%d Doom.", userID, player.Doom, e.rules.Threshold),
	)
	result.DoomChange = intPtr(-healed)
	result.NewDoom = intPtr(player.Doom)
	return result, nil
}

// Mend heals a target: healing scales with the existing mend train. Mend has
// no Reflex Shield or Veil interaction and cannot eliminate. Targeting
// yourself is not restricted.
func (e *Engine) Mend(ctx context.Context, guildID, actorID, targetID string, bypassDailyLimit bool) (ActionResult, error) {
	defer e.locks.acquire(guildID)()

	actor, err := e.store.GetPlayer(ctx, guildID, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure(ErrNotInGame), nil
		}
		return ActionResult{}, storageFailure("get actor", err)
	}
	if !actor.Active {
		return failure(ErrNotInGame), nil
	}

	target, err := e.store.GetPlayer(ctx, guildID, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure(ErrTargetNotInGame), nil
		}
		return ActionResult{}, storageFailure("get target", err)
	}
	if !target.Active {
		return failure(ErrTargetNotInGame), nil
	}

	if domainErr := e.playerCanActToday(actor, bypassDailyLimit); domainErr != nil {
		return failure(domainErr), nil
	}

	hasSignature, err := e.store.HasSignature(ctx, guildID, targetID, actorID, storage.TypeMend, e.clock.Now())
	if err != nil {
		return ActionResult{}, storageFailure("check signature", err)
	}
	if hasSignature {
		return failure(duplicateSignatureError(storage.TypeMend)), nil
	}

	hexTrain, err := e.trainStatus(ctx, guildID, targetID, storage.TypeHex)
	if err != nil {
		return ActionResult{}, err
	}
	mendTrain, err := e.trainStatus(ctx, guildID, targetID, storage.TypeMend)
	if err != nil {
		return ActionResult{}, err
	}

	healing := 1 + mendTrain.Count
	oldDoom := target.Doom
	target.Doom = max(0, target.Doom-healing)
	actualHealing := oldDoom - target.Doom
	if err := e.store.UpdatePlayer(ctx, target); err != nil {
		return ActionResult{}, storageFailure("update target", err)
	}

	// If actor == target the same row is written twice; the second write wins
	// and carries the healed doom because actor was fetched before the heal.
	if actorID == targetID {
		actor.Doom = target.Doom
	}
	actor.LastActionDay = e.clock.TodayKey()
	if err := e.store.UpdatePlayer(ctx, actor); err != nil {
		return ActionResult{}, storageFailure("update actor", err)
	}

	if err := e.store.AddSignature(ctx, storage.Signature{
		TargetID:  targetID,
		SignerID:  actorID,
		GuildID:   guildID,
		Type:      storage.TypeMend,
		ExpiresAt: e.clock.After(e.rules.SignatureTTLHours),
	}); err != nil {
		return ActionResult{}, storageFailure("add signature", err)
	}

	mendTrainAfter, err := e.trainStatus(ctx, guildID, targetID, storage.TypeMend)
	if err != nil {
		return ActionResult{}, err
	}

	result := success(
		fmt.Sprintf("Your Mend heals %d Doom from <@%s>. They are now at %d/%d Doom.",
			actualHealing, targetID, target.Doom, e.rules.Threshold),
		fmt.Sprintf("A Mend heals <@%s> for %d Doom. <@%s> is now %d/%d. %s. %s.",
			targetID, actualHealing, targetID, target.Doom, e.rules.Threshold,
			marksText("Hex", hexTrain), marksText("Mend", mendTrainAfter)),
	)
	result.DoomChange = intPtr(-actualHealing)
	result.NewDoom = intPtr(target.Doom)
	return result, nil
}

// Claim publicly asserts a contribution to a target's train. Claims are
// bounded by the train size and expire with the train's oldest signature.
func (e *Engine) Claim(ctx context.Context, guildID, claimantID, targetID string, sigType storage.SignatureType) (ActionResult, error) {
	defer e.locks.acquire(guildID)()

	if result, err := e.checkClaimParties(ctx, guildID, claimantID, targetID); err != nil || !result.Success {
		return result, err
	}

	signatures, err := e.store.Signatures(ctx, guildID, targetID, sigType, e.clock.Now())
	if err != nil {
		return ActionResult{}, storageFailure("get signatures", err)
	}
	claims, err := e.store.Claims(ctx, guildID, targetID, sigType, e.clock.Now())
	if err != nil {
		return ActionResult{}, storageFailure("get claims", err)
	}

	if len(signatures) == 0 {
		return failure(apperrors.New(apperrors.CodeNoActiveTrain,
			fmt.Sprintf("There is no active %s train on <@%s>.", sigType, targetID))), nil
	}
	if len(claims) >= len(signatures) {
		return failure(apperrors.New(apperrors.CodeTrainFull,
			fmt.Sprintf("The %s train on <@%s> already has the maximum number of claims (%d).", sigType, targetID, len(signatures)))), nil
	}
	for _, claim := range claims {
		if claim.ClaimantID == claimantID {
			return failure(apperrors.New(apperrors.CodeAlreadyClaimed,
				fmt.Sprintf("You have already claimed the %s train on <@%s>.", sigType, targetID))), nil
		}
	}

	if err := e.store.AddClaim(ctx, storage.Claim{
		TargetID:   targetID,
		GuildID:    guildID,
		Type:       sigType,
		ClaimantID: claimantID,
		ExpiresAt:  oldestExpiry(signatures),
	}); err != nil {
		return ActionResult{}, storageFailure("add claim", err)
	}

	action := actionName(sigType)
	return success(
		fmt.Sprintf("You have publicly claimed to have %s <@%s>.", action, targetID),
		fmt.Sprintf("<@%s> claims to have %s <@%s>.", claimantID, action, targetID),
	), nil
}

// Unclaim removes a claimant's claim on a (target, type).
func (e *Engine) Unclaim(ctx context.Context, guildID, claimantID, targetID string, sigType storage.SignatureType) (ActionResult, error) {
	defer e.locks.acquire(guildID)()

	if result, err := e.checkClaimParties(ctx, guildID, claimantID, targetID); err != nil || !result.Success {
		return result, err
	}

	claims, err := e.store.Claims(ctx, guildID, targetID, sigType, e.clock.Now())
	if err != nil {
		return ActionResult{}, storageFailure("get claims", err)
	}
	held := false
	for _, claim := range claims {
		if claim.ClaimantID == claimantID {
			held = true
			break
		}
	}
	if !held {
		return failure(apperrors.New(apperrors.CodeNoClaim,
			fmt.Sprintf("You have no claim on the %s train for <@%s>.", sigType, targetID))), nil
	}

	if err := e.store.RemoveClaim(ctx, guildID, targetID, sigType, claimantID); err != nil {
		return ActionResult{}, storageFailure("remove claim", err)
	}

	return success(
		fmt.Sprintf("You have removed your claim to have %s <@%s>.", actionName(sigType), targetID),
		"",
	), nil
}

// checkClaimParties validates that claimant and target are active players.
// The returned result is a success placeholder when both check out.
func (e *Engine) checkClaimParties(ctx context.Context, guildID, claimantID, targetID string) (ActionResult, error) {
	claimant, err := e.store.GetPlayer(ctx, guildID, claimantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure(ErrNotInGame), nil
		}
		return ActionResult{}, storageFailure("get claimant", err)
	}
	if !claimant.Active {
		return failure(ErrNotInGame), nil
	}

	target, err := e.store.GetPlayer(ctx, guildID, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return failure(ErrTargetNotInGame), nil
		}
		return ActionResult{}, storageFailure("get target", err)
	}
	if !target.Active {
		return failure(ErrTargetNotInGame), nil
	}

	return ActionResult{Success: true}, nil
}

// CheckGameEnd returns the sole remaining active player's id, or "" when zero
// or two-plus players remain.
func (e *Engine) CheckGameEnd(ctx context.Context, guildID string) (string, error) {
	players, err := e.store.ActivePlayers(ctx, guildID)
	if err != nil {
		return "", storageFailure("get active players", err)
	}
	if len(players) == 1 {
		return players[0].UserID, nil
	}
	return "", nil
}

// ResetGame wipes all guild data for a fresh start.
func (e *Engine) ResetGame(ctx context.Context, guildID string) error {
	defer e.locks.acquire(guildID)()

	if err := e.store.ClearAllGameData(ctx, guildID); err != nil {
		return storageFailure("clear game data", err)
	}
	return nil
}

// AdvanceDay clears every active player's daily action limit and returns how
// many players were reset. Used by admins to simulate day rollover.
func (e *Engine) AdvanceDay(ctx context.Context, guildID string) (int, error) {
	defer e.locks.acquire(guildID)()

	players, err := e.store.ActivePlayers(ctx, guildID)
	if err != nil {
		return 0, storageFailure("get active players", err)
	}
	for _, player := range players {
		player.LastActionDay = ""
		if err := e.store.UpdatePlayer(ctx, player); err != nil {
			return 0, storageFailure("update player", err)
		}
	}
	return len(players), nil
}

// PlayerStatus returns the inspect view of a target. Veil hours are only
// revealed on self-inspection.
func (e *Engine) PlayerStatus(ctx context.Context, guildID, viewerID, targetID string) (PlayerStatus, error) {
	target, err := e.store.GetPlayer(ctx, guildID, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return PlayerStatus{}, targetNotInGameError(targetID)
		}
		return PlayerStatus{}, storageFailure("get target", err)
	}
	if !target.Active {
		return PlayerStatus{}, targetNotInGameError(targetID)
	}

	hexTrain, err := e.trainStatus(ctx, guildID, targetID, storage.TypeHex)
	if err != nil {
		return PlayerStatus{}, err
	}
	mendTrain, err := e.trainStatus(ctx, guildID, targetID, storage.TypeMend)
	if err != nil {
		return PlayerStatus{}, err
	}

	status := PlayerStatus{
		UserID:    targetID,
		Doom:      target.Doom,
		HexTrain:  hexTrain,
		MendTrain: mendTrain,
	}
	if viewerID == targetID && target.VeilUntil != nil {
		hours := e.clock.HoursUntil(*target.VeilUntil)
		if hours > 0 {
			status.VeilHoursRemaining = &hours
		}
	}
	return status, nil
}

// Leaderboard lists active players by ascending doom with their trains.
func (e *Engine) Leaderboard(ctx context.Context, guildID string) (Leaderboard, error) {
	players, err := e.store.ActivePlayers(ctx, guildID)
	if err != nil {
		return Leaderboard{}, storageFailure("get active players", err)
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Doom < players[j].Doom
	})

	board := Leaderboard{}
	for _, player := range players {
		hexTrain, err := e.trainStatus(ctx, guildID, player.UserID, storage.TypeHex)
		if err != nil {
			return Leaderboard{}, err
		}
		mendTrain, err := e.trainStatus(ctx, guildID, player.UserID, storage.TypeMend)
		if err != nil {
			return Leaderboard{}, err
		}
		board.Entries = append(board.Entries, LeaderboardEntry{
			UserID:    player.UserID,
			Doom:      player.Doom,
			HexTrain:  hexTrain,
			MendTrain: mendTrain,
		})
	}

	locked, err := e.store.IsRosterLocked(ctx, guildID)
	if err != nil {
		return Leaderboard{}, storageFailure("check roster lock", err)
	}
	board.RosterLocked = locked
	return board, nil
}

// Lockouts lists the targets a user cannot re-sign, by type.
func (e *Engine) Lockouts(ctx context.Context, guildID, userID string) (storage.Lockouts, error) {
	lockouts, err := e.store.UserLockouts(ctx, guildID, userID, e.clock.Now())
	if err != nil {
		return storage.Lockouts{}, storageFailure("get lockouts", err)
	}
	return lockouts, nil
}

// ReminderEligible lists active players who have not acted today.
func (e *Engine) ReminderEligible(ctx context.Context, guildID string) ([]storage.Player, error) {
	players, err := e.store.ReminderEligible(ctx, guildID, e.clock.TodayKey())
	if err != nil {
		return nil, storageFailure("get reminder eligible", err)
	}
	return players, nil
}
