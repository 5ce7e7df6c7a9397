// Package events provides the append-only feed of room events.
// Session operations append to it; the WebSocket hub polls it and fans the
// events out to the members of each room. The feed is memory only.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a room event. Values double as the
// wire message types pushed to clients.
type EventType string

const (
	EventTypePlayerJoined EventType = "player_joined_room"
	EventTypeStateSync    EventType = "game_state_sync"
	EventTypeDiceResolved EventType = "dice_resolved"
	EventTypeShout        EventType = "incoming_shout"
)

// DefaultRetention is the number of events kept in memory.
const DefaultRetention = 4096

// GameEvent represents an immutable record of something that happened in a
// room.
type GameEvent struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RoomID    string    `json:"room_id"`
	ActorID   string    `json:"actor_id"` // Who performed the action
	Payload   any       `json:"payload"`  // Event-specific data
}

// EventLog is the in-memory append-only log of room events. Only the most
// recent events are retained; sequence numbers keep increasing.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	next      int64
	retention int
}

// NewEventLog creates a log keeping at most retention events. A value
// below 1 selects DefaultRetention.
func NewEventLog(retention int) *EventLog {
	if retention < 1 {
		retention = DefaultRetention
	}
	return &EventLog{
		events:    make([]GameEvent, 0, 64),
		next:      1,
		retention: retention,
	}
}

// Append stamps and stores an event, returning the stored copy.
func (el *EventLog) Append(event GameEvent) GameEvent {
	el.mu.Lock()
	defer el.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Seq = el.next
	el.next++

	el.events = append(el.events, event)
	if over := len(el.events) - el.retention; over > 0 {
		el.events = append(el.events[:0:0], el.events[over:]...)
	}
	return event
}

// Since returns the events with a sequence number above seq, oldest first.
// Events already dropped by retention are skipped silently.
func (el *EventLog) Since(seq int64) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	for i, e := range el.events {
		if e.Seq > seq {
			out := make([]GameEvent, len(el.events)-i)
			copy(out, el.events[i:])
			return out
		}
	}
	return nil
}

// ByRoom returns the retained events of one room.
func (el *EventLog) ByRoom(roomID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.RoomID == roomID {
			result = append(result, e)
		}
	}
	return result
}

// Last returns the sequence number of the newest event, or 0.
func (el *EventLog) Last() int64 {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.next - 1
}
