package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/board"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/engine"
	"github.com/MRamiBalles/ShiftEngine/server/internal/events"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/logger"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/metrics"
)

// Options configures a Registry. Zero fields take defaults.
type Options struct {
	BoardLength int
	MaxPlayers  int
	DefaultPack string
	SaveTimeout time.Duration

	Resolver *engine.Resolver
	Roller   Roller
	Store    Store
	Rules    RuleSource
	Feed     *events.EventLog
	Metrics  *metrics.Collector
	Logger   *logger.Logger
}

// Summary is the listing view of a room.
type Summary struct {
	RoomID      string      `json:"room_id"`
	Pack        string      `json:"pack"`
	Players     int         `json:"players"`
	Status      game.Status `json:"status"`
	CurrentTurn string      `json:"current_turn"`
	Winner      string      `json:"winner,omitempty"`
}

// Registry is the keyed store of live rooms.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	opts  Options

	resolver *engine.Resolver
	store    Store
	rules    RuleSource
	feed     *events.EventLog
	metrics  *metrics.Collector
	logger   *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.BoardLength < 2 {
		opts.BoardLength = board.DefaultLength
	}
	if opts.MaxPlayers < 1 {
		opts.MaxPlayers = 2
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 2 * time.Second
	}
	if opts.Roller == nil {
		opts.Roller = NewRandomRoller(uint64(time.Now().UnixNano()), 0x5348494654)
	}

	r := &Registry{
		rooms:    make(map[string]*Room),
		opts:     opts,
		resolver: opts.Resolver,
		store:    opts.Store,
		rules:    opts.Rules,
		feed:     opts.Feed,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if r.resolver == nil {
		r.resolver = engine.NewResolver()
	}
	if r.store == nil {
		r.store = nopStore{}
	}
	if r.rules == nil {
		r.rules = noRules{}
	}
	if r.feed == nil {
		r.feed = events.NewEventLog(0)
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	if r.logger == nil {
		r.logger = logger.Discard()
	}
	return r
}

// Feed returns the event log rooms append to.
func (r *Registry) Feed() *events.EventLog {
	return r.feed
}

func (r *Registry) newGame(roomID, pack string) game.State {
	active, ok := r.rules.Pack(pack)
	if !ok && pack != "" {
		r.logger.Warnf("rule pack %q not found, room %s starts without rules", pack, roomID)
	}
	state := game.New(roomID, r.opts.BoardLength, active)
	state.Pack = pack
	return state
}

func validRoomID(id string) bool {
	return id != "" && len(id) <= 64 && strings.TrimSpace(id) == id
}

// Create opens a new room playing pack. An empty pack selects the default.
func (r *Registry) Create(ctx context.Context, roomID, pack string) (*Room, error) {
	if !validRoomID(roomID) {
		return nil, fmt.Errorf("%q: %w", roomID, ErrInvalidRoomID)
	}
	if pack == "" {
		pack = r.opts.DefaultPack
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomID]; ok {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrRoomExists)
	}

	room := &Room{id: roomID, pack: pack, deps: r, state: r.newGame(roomID, pack)}
	room.commit(ctx, room.state)
	r.rooms[roomID] = room
	r.logger.Infof("room %s created with pack %q", roomID, pack)
	return room, nil
}

// Get returns a live room.
func (r *Registry) Get(roomID string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	return room, nil
}

// Restore brings a saved room back to life. Rooms already live are
// returned as is.
func (r *Registry) Restore(ctx context.Context, roomID string) (*Room, error) {
	if room, err := r.Get(roomID); err == nil {
		return room, nil
	}

	saved, ok, err := r.store.Load(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}
	if !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomID]; ok {
		return room, nil
	}
	pack := saved.Pack
	if pack == "" {
		pack = r.opts.DefaultPack
	}
	room := &Room{id: roomID, pack: pack, deps: r, state: saved}
	r.rooms[roomID] = room
	r.logger.Infof("room %s restored at turn %d", roomID, saved.TurnNumber)
	return room, nil
}

// JoinOrCreate finds, restores, or creates the room and joins playerID.
// Joining a room the player is already in is not an error.
func (r *Registry) JoinOrCreate(ctx context.Context, roomID, playerID string) (*Room, game.State, error) {
	room, err := r.Restore(ctx, roomID)
	if errors.Is(err, ErrRoomNotFound) {
		room, err = r.Create(ctx, roomID, "")
		if errors.Is(err, ErrRoomExists) {
			room, err = r.Get(roomID)
		}
	}
	if err != nil {
		return nil, game.State{}, err
	}

	state, err := room.Join(ctx, playerID)
	if errors.Is(err, ErrAlreadyJoined) {
		return room, state, nil
	}
	if err != nil {
		return nil, state, err
	}
	return room, state, nil
}

// Remove closes a room and deletes its snapshot.
func (r *Registry) Remove(ctx context.Context, roomID string) error {
	r.mu.Lock()
	_, ok := r.rooms[roomID]
	delete(r.rooms, roomID)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	if err := r.store.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete snapshot of room %s: %w", roomID, err)
	}
	return nil
}

// List summarizes live rooms ordered by id.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		s := room.Snapshot()
		out = append(out, Summary{
			RoomID:      room.id,
			Pack:        room.pack,
			Players:     len(s.Players),
			Status:      s.Status,
			CurrentTurn: s.CurrentTurn,
			Winner:      s.Winner,
		})
	}
	slices.SortFunc(out, func(a, b Summary) int { return strings.Compare(a.RoomID, b.RoomID) })
	return out
}
