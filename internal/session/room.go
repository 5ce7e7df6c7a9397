package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/player"
	"github.com/MRamiBalles/ShiftEngine/server/internal/engine"
	"github.com/MRamiBalles/ShiftEngine/server/internal/events"
)

// Resolution is the outcome of one accepted dice roll.
type Resolution struct {
	PlayerID string           `json:"player_id"`
	Dice     int              `json:"dice"`
	Logs     []engine.RuleLog `json:"logs"`
	State    game.State       `json:"state"`
}

// PlayerJoined is the feed payload of a join.
type PlayerJoined struct {
	PlayerID string     `json:"player_id"`
	Message  string     `json:"message"`
	State    game.State `json:"state"`
}

// Shout is the feed payload of a room broadcast message.
type Shout struct {
	SenderID  string `json:"sender_id"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// maxShoutLength bounds shout messages, in bytes.
const maxShoutLength = 280

// Room is one game. All methods are safe for concurrent use; resolutions
// for the same room never overlap.
type Room struct {
	mu    sync.Mutex
	id    string
	pack  string
	state game.State
	deps  *Registry
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// Pack returns the rule pack the room was created with.
func (r *Room) Pack() string { return r.pack }

// Snapshot returns the current state. The caller must not mutate it.
func (r *Room) Snapshot() game.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Join adds a player. The first player to join holds the turn.
func (r *Room) Join(ctx context.Context, playerID string) (game.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.PlayerIndex(playerID) >= 0 {
		return r.state, fmt.Errorf("%s in room %s: %w", playerID, r.id, ErrAlreadyJoined)
	}
	if r.state.Status == game.StatusFinished {
		return r.state, fmt.Errorf("room %s: %w", r.id, ErrGameFinished)
	}
	if len(r.state.Players) >= r.deps.opts.MaxPlayers {
		return r.state, fmt.Errorf("room %s: %w", r.id, ErrRoomFull)
	}

	next := r.state.Clone()
	next.Players = append(next.Players, player.New(playerID, player.ColorFor(len(next.Players))))
	if next.CurrentTurn == "" {
		next.CurrentTurn = playerID
	}
	r.commit(ctx, next)

	r.deps.feed.Append(events.GameEvent{
		Type:    events.EventTypePlayerJoined,
		RoomID:  r.id,
		ActorID: playerID,
		Payload: PlayerJoined{PlayerID: playerID, Message: "a new player has arrived", State: next},
	})
	r.deps.logger.Event("PLAYER_JOINED", playerID, "joined room "+r.id)
	return next, nil
}

// Leave removes a player. If they held the turn it passes to the player
// that followed them; in a finished game the turn is cleared.
func (r *Room) Leave(ctx context.Context, playerID string) (game.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.state.PlayerIndex(playerID)
	if i < 0 {
		return r.state, fmt.Errorf("%s in room %s: %w", playerID, r.id, ErrPlayerNotInRoom)
	}

	next := r.state.Clone()
	next.Players = slices.Delete(next.Players, i, i+1)
	delete(next.Skips, playerID)
	switch {
	case len(next.Players) == 0, next.CurrentTurn == playerID && next.Status == game.StatusFinished:
		next.CurrentTurn = ""
	case next.CurrentTurn == playerID:
		// walk from the predecessor so the follower is considered first
		next.CurrentTurn = nextTurn(&next, next.Players[(i-1+len(next.Players))%len(next.Players)].ID)
	}
	r.commit(ctx, next)
	r.sync(playerID, next)
	r.deps.logger.Event("PLAYER_LEFT", playerID, "left room "+r.id)
	return next, nil
}

// Roll rolls the room die for playerID and resolves the move.
func (r *Room) Roll(ctx context.Context, playerID string) (Resolution, error) {
	return r.RollValue(ctx, playerID, r.deps.opts.Roller.Roll())
}

// RollValue resolves a move of dice tiles for playerID.
func (r *Room) RollValue(ctx context.Context, playerID string, dice int) (Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkRoll(playerID, dice); err != nil {
		r.deps.metrics.RecordRejectedRoll()
		return Resolution{}, err
	}

	start := time.Now()
	resolved, logs := r.deps.resolver.ResolveDiceRoll(r.state, playerID, dice)
	next := Advance(resolved, playerID, logs)
	next.TurnNumber++
	r.deps.metrics.RecordRoll(time.Since(start), ruleEffects(logs), engine.Truncated(logs))
	if next.Status == game.StatusFinished {
		r.deps.metrics.RecordGameFinished()
		r.deps.logger.Event("GAME_FINISHED", playerID, "won room "+r.id)
	}
	r.commit(ctx, next)

	res := Resolution{PlayerID: playerID, Dice: dice, Logs: logs, State: next}
	r.deps.feed.Append(events.GameEvent{
		Type:    events.EventTypeDiceResolved,
		RoomID:  r.id,
		ActorID: playerID,
		Payload: res,
	})
	r.deps.logger.Event("DICE_RESOLVED", playerID, fmt.Sprintf("rolled %d in room %s, %d log entries", dice, r.id, len(logs)))
	return res, nil
}

func (r *Room) checkRoll(playerID string, dice int) error {
	if r.state.Status == game.StatusFinished {
		return fmt.Errorf("room %s: %w", r.id, ErrGameFinished)
	}
	if r.state.PlayerIndex(playerID) < 0 {
		return fmt.Errorf("%s in room %s: %w", playerID, r.id, ErrPlayerNotInRoom)
	}
	if r.state.CurrentTurn != playerID {
		return fmt.Errorf("%s in room %s, turn belongs to %s: %w", playerID, r.id, r.state.CurrentTurn, ErrNotYourTurn)
	}
	if !validDice(dice) {
		return fmt.Errorf("%d: %w", dice, ErrInvalidDice)
	}
	return nil
}

// Reset restarts the game with the same roster and a fresh copy of the
// room's rule pack.
func (r *Room) Reset(ctx context.Context) (game.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.deps.newGame(r.id, r.pack)
	for i, p := range r.state.Players {
		next.Players = append(next.Players, player.New(p.ID, player.ColorFor(i)))
	}
	if len(next.Players) > 0 {
		next.CurrentTurn = next.Players[0].ID
	}
	r.commit(ctx, next)
	r.sync("", next)
	r.deps.logger.Event("ROOM_RESET", "", "reset room "+r.id)
	return next, nil
}

// Shout broadcasts a chat message to the room.
func (r *Room) Shout(playerID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyShout
	}
	message = truncateRunes(message, maxShoutLength)

	r.mu.Lock()
	member := r.state.PlayerIndex(playerID) >= 0
	r.mu.Unlock()
	if !member {
		return fmt.Errorf("%s in room %s: %w", playerID, r.id, ErrPlayerNotInRoom)
	}

	now := time.Now()
	r.deps.feed.Append(events.GameEvent{
		Type:      events.EventTypeShout,
		RoomID:    r.id,
		ActorID:   playerID,
		Timestamp: now,
		Payload:   Shout{SenderID: playerID, Message: message, Timestamp: now.UnixMilli()},
	})
	return nil
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// commit installs next and saves it. A failed save is logged; the room
// keeps running on the in-memory state. Must hold r.mu.
func (r *Room) commit(ctx context.Context, next game.State) {
	r.state = next

	ctx, cancel := context.WithTimeout(ctx, r.deps.opts.SaveTimeout)
	defer cancel()

	start := time.Now()
	err := r.deps.store.Save(ctx, next)
	r.deps.metrics.RecordSnapshotWrite(time.Since(start), err)
	if err != nil {
		r.deps.logger.Errorf("failed to save snapshot of room %s: %v", r.id, err)
	}
}

func (r *Room) sync(actorID string, state game.State) {
	r.deps.feed.Append(events.GameEvent{
		Type:    events.EventTypeStateSync,
		RoomID:  r.id,
		ActorID: actorID,
		Payload: state,
	})
}

// ruleEffects counts log entries produced by declared rules.
func ruleEffects(logs []engine.RuleLog) int {
	n := 0
	for _, l := range logs {
		if l.RuleID != engine.DiceRuleID && l.RuleID != engine.EngineRuleID {
			n++
		}
	}
	return n
}
