package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/infra/storage"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/metrics"
	"github.com/MRamiBalles/ShiftEngine/server/internal/rulepack"
	"github.com/MRamiBalles/ShiftEngine/server/internal/session"
)

// SnapshotReader is the read side of the snapshot store.
type SnapshotReader interface {
	Load(ctx context.Context, roomID string) (game.State, bool, error)
	List(ctx context.Context) ([]storage.RoomSummary, error)
}

// PackLister lists the loaded rule packs.
type PackLister interface {
	List() []rulepack.Summary
}

// API bundles what the HTTP handlers read from.
type API struct {
	Hub       *Hub
	Registry  *session.Registry
	Snapshots SnapshotReader
	Packs     PackLister
	Metrics   *metrics.Collector
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // browser clients are served from another origin in development
	},
}

// Handler builds the HTTP routes.
func (a *API) Handler() http.Handler {
	if a.Metrics == nil {
		a.Metrics = metrics.Get()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.health)
	mux.HandleFunc("GET /ws", a.serveWS)
	mux.HandleFunc("GET /api/rooms", a.listRooms)
	mux.HandleFunc("GET /api/rooms/{id}", a.getRoom)
	mux.HandleFunc("POST /api/rooms/{id}/reset", a.resetRoom)
	mux.HandleFunc("GET /api/rulepacks", a.listPacks)
	mux.Handle("GET /metrics", a.Metrics.Handler())
	mux.Handle("GET /metrics/prometheus", a.Metrics.PrometheusHandler())
	return mux
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "SHIFT engine is running (uptime: %s)\n", a.Metrics.Uptime())
}

func (a *API) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Hub.logger.Warnf("Failed to upgrade websocket connection: %v", err)
		a.Hub.metrics.RecordWSError()
		return
	}

	client := NewClient(a.Hub, conn)
	if !client.Register() {
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

type roomList struct {
	Rooms  []session.Summary     `json:"rooms"`
	Stored []storage.RoomSummary `json:"stored,omitempty"`
}

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	out := roomList{Rooms: a.Registry.List()}
	if a.Snapshots != nil {
		stored, err := a.Snapshots.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		out.Stored = stored
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if room, err := a.Registry.Get(id); err == nil {
		writeJSON(w, http.StatusOK, room.Snapshot())
		return
	}
	if a.Snapshots != nil {
		state, ok, err := a.Snapshots.Load(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		if ok {
			writeJSON(w, http.StatusOK, state)
			return
		}
	}
	writeError(w, http.StatusNotFound, CodeRoomNotFound, "room "+id+" not found")
}

func (a *API) resetRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	room, err := a.Registry.Restore(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, errorCode(err), err.Error())
		return
	}
	state, err := room.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) listPacks(w http.ResponseWriter, _ *http.Request) {
	var packs []rulepack.Summary
	if a.Packs != nil {
		packs = a.Packs.List()
	}
	if packs == nil {
		packs = []rulepack.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"packs": packs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorPayload{Code: code, Message: message})
}
