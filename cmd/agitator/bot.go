package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// turnView is the part of a game state a bot needs.
type turnView struct {
	CurrentTurn string `json:"current_turn"`
	Status      string `json:"status"`
	Winner      string `json:"winner"`
}

// stateOf extracts the game state carried by a server frame, if any.
func stateOf(env envelope) (turnView, bool) {
	var v turnView
	switch env.Type {
	case "game_state_sync":
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return v, false
		}
		return v, true
	case "room_joined", "player_joined_room", "dice_resolved":
		var wrapped struct {
			State *turnView `json:"state"`
		}
		if err := json.Unmarshal(env.Payload, &wrapped); err != nil || wrapped.State == nil {
			return v, false
		}
		return *wrapped.State, true
	}
	return v, false
}

type bot struct {
	id     string
	roomID string
	config Config
	stats  *Stats
}

func (b *bot) run(ctx context.Context) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.config.ServerURL, nil)
	if err != nil {
		log.Printf("%s: connection failed: %v", b.id, err)
		atomic.AddInt64(&b.stats.Errors, 1)
		return
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := b.send(conn, "join_room", map[string]string{"player_id": b.id}); err != nil {
		return
	}

	var rolledAt time.Time
	rolls := 0
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&b.stats.Errors, 1)
			}
			return
		}
		atomic.AddInt64(&b.stats.Received, 1)

		if env.Type == "error" {
			atomic.AddInt64(&b.stats.Errors, 1)
			rolledAt = time.Time{}
			continue
		}
		if env.Type == "dice_resolved" && !rolledAt.IsZero() {
			b.stats.observe(time.Since(rolledAt))
			rolledAt = time.Time{}
		}

		state, ok := stateOf(env)
		if !ok {
			continue
		}
		if state.Status == "finished" {
			if state.Winner == b.id && env.Type == "dice_resolved" {
				atomic.AddInt64(&b.stats.Wins, 1)
			}
			if state.Winner == b.id {
				if err := b.send(conn, "reset_room", nil); err != nil {
					return
				}
			}
			continue
		}
		if state.CurrentTurn != b.id || !rolledAt.IsZero() {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.config.ThinkTime):
		}
		rolledAt = time.Now()
		if err := b.send(conn, "roll_dice", nil); err != nil {
			return
		}
		atomic.AddInt64(&b.stats.Rolls, 1)
		rolls++
		if b.config.ShoutEvery > 0 && rolls%b.config.ShoutEvery == 0 {
			_ = b.send(conn, "send_shout", map[string]string{"message": fmt.Sprintf("%s rolled %d times", b.id, rolls)})
		}
	}
}

func (b *bot) send(conn *websocket.Conn, msgType string, payload any) error {
	env := envelope{Type: msgType, RoomID: b.roomID}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = data
	}
	if err := conn.WriteJSON(env); err != nil {
		atomic.AddInt64(&b.stats.Errors, 1)
		return err
	}
	return nil
}
