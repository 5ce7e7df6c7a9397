package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
)

// dialect holds the statements that differ between backends.
type dialect struct {
	name   string
	upsert string
}

var sqliteDialect = dialect{
	name: "sqlite",
	upsert: `
		INSERT INTO room_snapshots (room_id, status, players, turn_number, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			status = excluded.status,
			players = excluded.players,
			turn_number = excluded.turn_number,
			state = excluded.state,
			updated_at = excluded.updated_at
	`,
}

var mysqlDialect = dialect{
	name: "mysql",
	upsert: `
		INSERT INTO room_snapshots (room_id, status, players, turn_number, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			players = VALUES(players),
			turn_number = VALUES(turn_number),
			state = VALUES(state),
			updated_at = VALUES(updated_at)
	`,
}

// SQLRoomRepository implements RoomRepository over database/sql. The state
// is stored as a JSON document next to a few indexed columns.
type SQLRoomRepository struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLRoomRepository(db *sql.DB, d dialect) *SQLRoomRepository {
	return &SQLRoomRepository{db: db, dialect: d, now: time.Now}
}

// Driver names the backend.
func (r *SQLRoomRepository) Driver() string {
	return r.dialect.name
}

func (r *SQLRoomRepository) Save(ctx context.Context, state game.State) error {
	if state.RoomID == "" {
		return ErrEmptyRoomID
	}
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", state.RoomID, err)
	}

	_, err = r.db.ExecContext(ctx, r.dialect.upsert,
		state.RoomID, string(state.Status), len(state.Players), state.TurnNumber,
		string(doc), r.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save room %s: %w", state.RoomID, err)
	}
	return nil
}

func (r *SQLRoomRepository) Load(ctx context.Context, roomID string) (game.State, bool, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT state FROM room_snapshots WHERE room_id = ?`, roomID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return game.State{}, false, nil
	}
	if err != nil {
		return game.State{}, false, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}

	var state game.State
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return game.State{}, false, fmt.Errorf("failed to decode room %s: %w", roomID, err)
	}
	return state, true, nil
}

func (r *SQLRoomRepository) Delete(ctx context.Context, roomID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM room_snapshots WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", roomID, err)
	}
	return nil
}

func (r *SQLRoomRepository) List(ctx context.Context) ([]RoomSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id, status, players, turn_number, updated_at
		FROM room_snapshots
		ORDER BY updated_at DESC, room_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var out []RoomSummary
	for rows.Next() {
		var s RoomSummary
		var status string
		if err := rows.Scan(&s.RoomID, &status, &s.Players, &s.TurnNumber, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		s.Status = game.Status(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLRoomRepository) Close() error {
	return r.db.Close()
}
