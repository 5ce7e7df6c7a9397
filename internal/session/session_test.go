package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
	"github.com/MRamiBalles/ShiftEngine/server/internal/events"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/metrics"
)

type memStore struct {
	mu    sync.Mutex
	saved map[string]game.State
	fail  error
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]game.State)}
}

func (m *memStore) Save(_ context.Context, s game.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saved[s.RoomID] = s
	return nil
}

func (m *memStore) Load(_ context.Context, id string) (game.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[id]
	return s, ok, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, id)
	return nil
}

type packs map[string][]rules.Rule

func (p packs) Pack(name string) ([]rules.Rule, bool) {
	r, ok := p[name]
	return r, ok
}

func newTestRegistry(t *testing.T, pack []rules.Rule) (*Registry, *memStore, *metrics.Collector) {
	t.Helper()
	store := newMemStore()
	m := metrics.New()
	reg := NewRegistry(Options{
		BoardLength: 20,
		MaxPlayers:  2,
		DefaultPack: "test",
		Store:       store,
		Rules:       packs{"test": pack},
		Metrics:     m,
		Roller:      RollerFunc(func() int { return 3 }),
	})
	return reg, store, m
}

func joinBoth(t *testing.T, reg *Registry) *Room {
	t.Helper()
	ctx := context.Background()
	room, _, err := reg.JoinOrCreate(ctx, "alpha", "p1")
	if err != nil {
		t.Fatalf("join p1: %v", err)
	}
	if _, _, err := reg.JoinOrCreate(ctx, "alpha", "p2"); err != nil {
		t.Fatalf("join p2: %v", err)
	}
	return room
}

func TestJoinOrCreate(t *testing.T) {
	reg, store, _ := newTestRegistry(t, nil)
	room := joinBoth(t, reg)

	s := room.Snapshot()
	if len(s.Players) != 2 || s.CurrentTurn != "p1" || s.Status != game.StatusPlaying {
		t.Fatalf("Unexpected state after joins: %+v", s)
	}
	if s.Players[0].Color == s.Players[1].Color {
		t.Errorf("Expected distinct colors, got %s twice", s.Players[0].Color)
	}
	if len(s.Tiles) != 20 {
		t.Errorf("Expected a 20-tile board, got %d", len(s.Tiles))
	}

	// rejoining is a reconnect, not an error
	if _, again, err := reg.JoinOrCreate(context.Background(), "alpha", "p1"); err != nil || len(again.Players) != 2 {
		t.Errorf("Expected idempotent rejoin, got err=%v players=%d", err, len(again.Players))
	}

	_, _, err := reg.JoinOrCreate(context.Background(), "alpha", "p3")
	if !errors.Is(err, ErrRoomFull) {
		t.Errorf("Expected ErrRoomFull, got %v", err)
	}
	if saved, ok, _ := store.Load(context.Background(), "alpha"); !ok || len(saved.Players) != 2 {
		t.Errorf("Expected snapshot with 2 players, got %+v", saved)
	}
}

func TestRollRejections(t *testing.T) {
	reg, _, m := newTestRegistry(t, nil)
	room := joinBoth(t, reg)
	ctx := context.Background()

	tests := []struct {
		name   string
		player string
		dice   int
		want   error
	}{
		{"wrong turn", "p2", 3, ErrNotYourTurn},
		{"stranger", "p9", 3, ErrPlayerNotInRoom},
		{"zero dice", "p1", 0, ErrInvalidDice},
		{"seven", "p1", 7, ErrInvalidDice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := room.RollValue(ctx, tt.player, tt.dice); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
	if m.RejectedRolls != int64(len(tests)) {
		t.Errorf("Expected %d rejected rolls, got %d", len(tests), m.RejectedRolls)
	}
}

func TestRollRotatesTurns(t *testing.T) {
	reg, _, m := newTestRegistry(t, nil)
	room := joinBoth(t, reg)
	ctx := context.Background()

	res, err := room.Roll(ctx, "p1")
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if res.Dice != 3 || res.State.CurrentTurn != "p2" || res.State.TurnNumber != 1 {
		t.Errorf("Unexpected resolution: dice=%d turn=%s number=%d", res.Dice, res.State.CurrentTurn, res.State.TurnNumber)
	}
	if pos, _ := res.State.PlayerPosition("p1"); pos != 3 {
		t.Errorf("Expected p1 at 3, got %d", pos)
	}

	if _, err := room.RollValue(ctx, "p2", 2); err != nil {
		t.Fatalf("roll p2: %v", err)
	}
	if got := room.Snapshot().CurrentTurn; got != "p1" {
		t.Errorf("Expected turn back to p1, got %s", got)
	}
	if m.DiceRolls != 2 || m.SnapshotWrites < 2 {
		t.Errorf("Expected metrics to record rolls and writes, got rolls=%d writes=%d", m.DiceRolls, m.SnapshotWrites)
	}
}

func TestWinFinishesGame(t *testing.T) {
	reg, _, m := newTestRegistry(t, []rules.Rule{
		{ID: "portal", Trigger: rules.OnLand, TileIndex: rules.Tile(2), Effects: []rules.Effect{{Type: rules.Teleport, Value: 19}}},
	})
	room := joinBoth(t, reg)
	ctx := context.Background()

	res, err := room.RollValue(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if res.State.Status != game.StatusFinished || res.State.Winner != "p1" || res.State.CurrentTurn != "p1" {
		t.Fatalf("Expected p1 to win, got status=%s winner=%s turn=%s", res.State.Status, res.State.Winner, res.State.CurrentTurn)
	}
	if _, err := room.RollValue(ctx, "p2", 1); !errors.Is(err, ErrGameFinished) {
		t.Errorf("Expected ErrGameFinished, got %v", err)
	}
	if m.GamesFinished != 1 {
		t.Errorf("Expected one finished game, got %d", m.GamesFinished)
	}

	reset, err := room.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Status != game.StatusPlaying || reset.CurrentTurn != "p1" || len(reset.ActiveRules) != 1 {
		t.Errorf("Unexpected state after reset: %+v", reset)
	}
	if pos, _ := reset.PlayerPosition("p1"); pos != 0 {
		t.Errorf("Expected reset position 0, got %d", pos)
	}
}

func TestFlowControlMarkers(t *testing.T) {
	reg, _, _ := newTestRegistry(t, []rules.Rule{
		{ID: "bonus", Trigger: rules.OnLand, TileIndex: rules.Tile(1), Effects: []rules.Effect{{Type: rules.ExtraTurn}}},
		{ID: "mud", Trigger: rules.OnLand, TileIndex: rules.Tile(4), Effects: []rules.Effect{{Type: rules.SkipTurn}}},
	})
	room := joinBoth(t, reg)
	ctx := context.Background()

	res, err := room.RollValue(ctx, "p1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.State.CurrentTurn != "p1" {
		t.Fatalf("Expected extra turn to keep p1, got %s", res.State.CurrentTurn)
	}

	// p1 lands in the mud at 4 and hands over to p2
	if res, err = room.RollValue(ctx, "p1", 3); err != nil {
		t.Fatal(err)
	}
	if res.State.CurrentTurn != "p2" {
		t.Fatalf("Expected p2, got %s", res.State.CurrentTurn)
	}

	// rotation passes over p1 once
	if res, err = room.RollValue(ctx, "p2", 2); err != nil {
		t.Fatal(err)
	}
	if res.State.CurrentTurn != "p2" {
		t.Fatalf("Expected p1 to be skipped, got %s", res.State.CurrentTurn)
	}
	if res, err = room.RollValue(ctx, "p2", 2); err != nil {
		t.Fatal(err)
	}
	if res.State.CurrentTurn != "p1" {
		t.Errorf("Expected p1 back after one skip, got %s", res.State.CurrentTurn)
	}
}

func TestLeavePassesTurn(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)
	room := joinBoth(t, reg)
	ctx := context.Background()

	s, err := room.Leave(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if s.CurrentTurn != "p2" || len(s.Players) != 1 {
		t.Errorf("Expected p2 to hold the turn alone, got %+v", s)
	}
	if _, err := room.Leave(ctx, "p1"); !errors.Is(err, ErrPlayerNotInRoom) {
		t.Errorf("Expected ErrPlayerNotInRoom, got %v", err)
	}
	s, _ = room.Leave(ctx, "p2")
	if s.CurrentTurn != "" {
		t.Errorf("Expected empty room without turn holder, got %q", s.CurrentTurn)
	}
}

func TestWinnerLeavingClearsTurn(t *testing.T) {
	reg, _, _ := newTestRegistry(t, []rules.Rule{
		{ID: "portal", Trigger: rules.OnLand, TileIndex: rules.Tile(2), Effects: []rules.Effect{{Type: rules.Teleport, Value: 19}}},
	})
	room := joinBoth(t, reg)
	ctx := context.Background()

	if _, err := room.RollValue(ctx, "p1", 2); err != nil {
		t.Fatal(err)
	}
	s, err := room.Leave(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if s.CurrentTurn != "" {
		t.Errorf("Expected departed winner to release the turn, got %q", s.CurrentTurn)
	}
	if s.Status != game.StatusFinished || s.Winner != "p1" {
		t.Errorf("Expected finished game to keep its winner, got status=%s winner=%s", s.Status, s.Winner)
	}
}

func TestShoutTruncatesOnRuneBoundary(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)
	room := joinBoth(t, reg)

	msg := "a" + strings.Repeat("é", maxShoutLength)
	if err := room.Shout("p1", msg); err != nil {
		t.Fatal(err)
	}
	feed := reg.Feed().ByRoom("alpha")
	got := feed[len(feed)-1].Payload.(Shout).Message
	if !utf8.ValidString(got) {
		t.Fatalf("Expected valid UTF-8, got %q", got)
	}
	if len(got) != maxShoutLength-1 {
		t.Errorf("Expected %d bytes, got %d", maxShoutLength-1, len(got))
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"日本", 4, "日"},
		{"é", 1, ""},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFeedReceivesRoomEvents(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)
	room := joinBoth(t, reg)
	ctx := context.Background()

	if _, err := room.RollValue(ctx, "p1", 4); err != nil {
		t.Fatal(err)
	}
	if err := room.Shout("p2", "  nice roll  "); err != nil {
		t.Fatal(err)
	}
	if err := room.Shout("p2", "   "); !errors.Is(err, ErrEmptyShout) {
		t.Errorf("Expected ErrEmptyShout, got %v", err)
	}

	var types []events.EventType
	for _, e := range reg.Feed().ByRoom("alpha") {
		types = append(types, e.Type)
	}
	want := []events.EventType{events.EventTypePlayerJoined, events.EventTypePlayerJoined, events.EventTypeDiceResolved, events.EventTypeShout}
	if len(types) != len(want) {
		t.Fatalf("Expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
	last := reg.Feed().ByRoom("alpha")[3].Payload.(Shout)
	if last.Message != "nice roll" || last.SenderID != "p2" {
		t.Errorf("Unexpected shout payload %+v", last)
	}
}

func TestRestoreFromSnapshot(t *testing.T) {
	reg, store, _ := newTestRegistry(t, nil)
	room := joinBoth(t, reg)
	ctx := context.Background()
	if _, err := room.RollValue(ctx, "p1", 5); err != nil {
		t.Fatal(err)
	}

	fresh := NewRegistry(Options{Store: store, MaxPlayers: 2})
	restored, err := fresh.Restore(ctx, "alpha")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	s := restored.Snapshot()
	if s.CurrentTurn != "p2" || s.TurnNumber != 1 || restored.Pack() != "test" {
		t.Errorf("Unexpected restored state: turn=%s number=%d pack=%s", s.CurrentTurn, s.TurnNumber, restored.Pack())
	}
	if _, err := fresh.Restore(ctx, "missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	reg, store, _ := newTestRegistry(t, nil)
	ctx := context.Background()

	if _, err := reg.Create(ctx, "", ""); !errors.Is(err, ErrInvalidRoomID) {
		t.Errorf("Expected ErrInvalidRoomID, got %v", err)
	}
	if _, err := reg.Create(ctx, "b-room", "missing-pack"); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Create(ctx, "a-room", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Create(ctx, "a-room", ""); !errors.Is(err, ErrRoomExists) {
		t.Errorf("Expected ErrRoomExists, got %v", err)
	}

	list := reg.List()
	if len(list) != 2 || list[0].RoomID != "a-room" || list[0].Pack != "test" {
		t.Errorf("Unexpected listing %+v", list)
	}

	if err := reg.Remove(ctx, "a-room"); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Get("a-room"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
	if _, ok, _ := store.Load(ctx, "a-room"); ok {
		t.Error("Expected snapshot to be deleted")
	}
	if err := reg.Remove(ctx, "a-room"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound on second remove, got %v", err)
	}
}

func TestSaveFailureKeepsRoomRunning(t *testing.T) {
	reg, store, m := newTestRegistry(t, nil)
	room := joinBoth(t, reg)
	store.fail = errors.New("disk full")

	if _, err := room.RollValue(context.Background(), "p1", 1); err != nil {
		t.Fatalf("Expected roll to succeed despite save failure, got %v", err)
	}
	if m.SnapshotErrors != 1 {
		t.Errorf("Expected one snapshot error, got %d", m.SnapshotErrors)
	}
}

func TestConcurrentRollsAreSerialized(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)
	room := joinBoth(t, reg)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := room.RollValue(ctx, "p1", 1); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if accepted != 1 {
		t.Errorf("Expected exactly one accepted roll for p1, got %d", accepted)
	}
}
