// Package metrics provides observability for the game server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector gathers performance metrics.
type Collector struct {
	// Resolution metrics
	DiceRolls        int64
	RollLatencySum   int64 // nanoseconds
	RollLatencyMax   int64
	RuleApplications int64
	ChainTruncations int64
	RejectedRolls    int64
	GamesFinished    int64
	LastRollTime     time.Time

	// Snapshot metrics
	SnapshotWrites    int64
	SnapshotWriteSum  int64
	SnapshotWriteMax  int64
	SnapshotErrors    int64
	SnapshotCacheHits int64
	SnapshotCacheMiss int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New returns an empty collector. Tests use their own; the server uses Get.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordRoll records one dice-roll resolution.
func (c *Collector) RecordRoll(latency time.Duration, ruleApplications int, truncated bool) {
	atomic.AddInt64(&c.DiceRolls, 1)
	atomic.AddInt64(&c.RollLatencySum, int64(latency))
	storeMax(&c.RollLatencyMax, int64(latency))
	atomic.AddInt64(&c.RuleApplications, int64(ruleApplications))
	if truncated {
		atomic.AddInt64(&c.ChainTruncations, 1)
	}

	c.mu.Lock()
	c.LastRollTime = time.Now()
	c.mu.Unlock()
}

// RecordRejectedRoll records a roll refused by turn or status checks.
func (c *Collector) RecordRejectedRoll() {
	atomic.AddInt64(&c.RejectedRolls, 1)
}

// RecordGameFinished records a win.
func (c *Collector) RecordGameFinished() {
	atomic.AddInt64(&c.GamesFinished, 1)
}

// RecordSnapshotWrite records a room snapshot save.
func (c *Collector) RecordSnapshotWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.SnapshotWrites, 1)
	atomic.AddInt64(&c.SnapshotWriteSum, int64(latency))
	storeMax(&c.SnapshotWriteMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.SnapshotErrors, 1)
	}
}

// RecordCacheLookup records a snapshot cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		atomic.AddInt64(&c.SnapshotCacheHits, 1)
	} else {
		atomic.AddInt64(&c.SnapshotCacheMiss, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Uptime renders the time since start for humans.
func (c *Collector) Uptime() string {
	return humanize.RelTime(c.StartTime, time.Now(), "", "")
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]any {
	c.mu.RLock()
	lastRoll := c.LastRollTime
	c.mu.RUnlock()

	rolls := atomic.LoadInt64(&c.DiceRolls)
	writes := atomic.LoadInt64(&c.SnapshotWrites)

	var rollAvg, writeAvg float64
	if rolls > 0 {
		rollAvg = float64(atomic.LoadInt64(&c.RollLatencySum)) / float64(rolls) / 1e6 // ms
	}
	if writes > 0 {
		writeAvg = float64(atomic.LoadInt64(&c.SnapshotWriteSum)) / float64(writes) / 1e6
	}
	last := ""
	if !lastRoll.IsZero() {
		last = lastRoll.Format(time.RFC3339)
	}

	return map[string]any{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),
		"uptime":         c.Uptime(),

		"rolls": map[string]any{
			"count":             rolls,
			"rejected":          atomic.LoadInt64(&c.RejectedRolls),
			"avg_latency_ms":    rollAvg,
			"max_latency_ms":    float64(atomic.LoadInt64(&c.RollLatencyMax)) / 1e6,
			"rule_applications": atomic.LoadInt64(&c.RuleApplications),
			"truncated_chains":  atomic.LoadInt64(&c.ChainTruncations),
			"games_finished":    atomic.LoadInt64(&c.GamesFinished),
			"last_roll":         last,
		},

		"snapshots": map[string]any{
			"written":          writes,
			"avg_write_lat_ms": writeAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.SnapshotWriteMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.SnapshotErrors),
			"cache_hits":       atomic.LoadInt64(&c.SnapshotCacheHits),
			"cache_misses":     atomic.LoadInt64(&c.SnapshotCacheMiss),
		},

		"websocket": map[string]any{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		_ = json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
		}
		gauge := func(name, help string, v float64) {
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %.2f\n\n", name, help, name, name, v)
		}

		counter("shift_dice_rolls_total", "Resolved dice rolls", atomic.LoadInt64(&c.DiceRolls))
		counter("shift_rejected_rolls_total", "Rolls refused before resolution", atomic.LoadInt64(&c.RejectedRolls))
		counter("shift_rule_applications_total", "Rules applied by the engine", atomic.LoadInt64(&c.RuleApplications))
		counter("shift_chain_truncations_total", "Chains stopped by the iteration cap", atomic.LoadInt64(&c.ChainTruncations))
		counter("shift_games_finished_total", "Games won", atomic.LoadInt64(&c.GamesFinished))
		gauge("shift_roll_latency_max_ms", "Maximum roll latency", float64(atomic.LoadInt64(&c.RollLatencyMax))/1e6)

		counter("shift_snapshot_writes_total", "Room snapshots saved", atomic.LoadInt64(&c.SnapshotWrites))
		counter("shift_snapshot_errors_total", "Room snapshot save failures", atomic.LoadInt64(&c.SnapshotErrors))

		gauge("shift_ws_connections", "Active WebSocket connections", float64(atomic.LoadInt64(&c.WSConnectionsActive)))
		fmt.Fprintf(w, "# HELP shift_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE shift_ws_messages_total counter\n")
		fmt.Fprintf(w, "shift_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "shift_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
