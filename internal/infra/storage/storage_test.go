package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/player"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

func sampleState(roomID string) game.State {
	s := game.New(roomID, 20, []rules.Rule{
		{ID: "boost", Title: "Boost", Trigger: rules.OnLand, TileIndex: rules.Tile(5), Effects: []rules.Effect{{Type: rules.MoveRelative, Value: 2}}},
	})
	s.Pack = "classic"
	p := player.New("p1", player.ColorFor(0))
	p.Position = 7
	p.Score = 3
	s.Players = []player.Player{p, player.New("p2", player.ColorFor(1))}
	s.CurrentTurn = "p2"
	s.TurnNumber = 4
	return s
}

// exerciseRepository runs the behaviour every backend must share.
func exerciseRepository(t *testing.T, repo RoomRepository) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := repo.Load(ctx, "missing"); err != nil || ok {
		t.Fatalf("Expected missing room, got ok=%v err=%v", ok, err)
	}
	if err := repo.Save(ctx, game.State{}); err != ErrEmptyRoomID {
		t.Errorf("Expected ErrEmptyRoomID, got %v", err)
	}

	want := sampleState("alpha")
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := repo.Load(ctx, "alpha")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}

	want.Players[0].Position = 12
	want.TurnNumber = 5
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _, _ = repo.Load(ctx, "alpha")
	if got.Players[0].Position != 12 {
		t.Errorf("Expected upsert to overwrite, got position %d", got.Players[0].Position)
	}

	if err := repo.Save(ctx, sampleState("beta")); err != nil {
		t.Fatalf("save beta: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(list))
	}
	for _, s := range list {
		if s.Players != 2 || s.Status != game.StatusPlaying {
			t.Errorf("Unexpected summary %+v", s)
		}
	}

	if err := repo.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "alpha"); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
	if _, ok, _ := repo.Load(ctx, "alpha"); ok {
		t.Error("Expected alpha to be gone")
	}
}

func TestMemoryRoomRepository(t *testing.T) {
	repo := NewMemoryRoomRepository()
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestMemoryRepositoryCopiesPlayers(t *testing.T) {
	repo := NewMemoryRoomRepository()
	s := sampleState("alpha")
	_ = repo.Save(context.Background(), s)
	s.Players[0].Position = 99

	got, _, _ := repo.Load(context.Background(), "alpha")
	if got.Players[0].Position == 99 {
		t.Error("Expected saved snapshot to be isolated from the caller")
	}
}

func TestSQLiteRoomRepository(t *testing.T) {
	repo, err := NewSQLiteRoomRepository(filepath.Join(t.TempDir(), "nested", "shift.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestSQLiteListOrder(t *testing.T) {
	repo, err := NewSQLiteRoomRepository(filepath.Join(t.TempDir(), "shift.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	clock := time.UnixMilli(1_700_000_000_000)
	repo.now = func() time.Time { return clock }
	ctx := context.Background()
	_ = repo.Save(ctx, sampleState("old"))
	clock = clock.Add(time.Second)
	_ = repo.Save(ctx, sampleState("new"))

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].RoomID != "new" || list[1].UpdatedAt != 1_700_000_000_000 {
		t.Errorf("Unexpected order %+v", list)
	}
}

func TestMySQLRoomRepository(t *testing.T) {
	dsn := os.Getenv("SHIFT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("SHIFT_TEST_MYSQL_DSN not set")
	}
	repo, err := NewMySQLRoomRepository(dsn, PoolSize{MaxOpen: 2, MaxIdle: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()
	_ = repo.Delete(ctx, "alpha")
	_ = repo.Delete(ctx, "beta")
	exerciseRepository(t, repo)
	_ = repo.Delete(ctx, "beta")
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("postgres", "", PoolSize{}); err == nil {
		t.Error("Expected error for unknown driver")
	}
	repo, err := Open("memory", "", PoolSize{})
	if err != nil || repo == nil {
		t.Errorf("Expected memory repository, got %v", err)
	}
}
