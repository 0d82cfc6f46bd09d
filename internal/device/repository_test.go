package device

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/manaam216/gemns-integration/internal/infrastructure/database"
)

// openTestRepo opens a bootstrapped SQLite repository in a temp directory.
func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrapping schema: %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func TestSQLiteRepository_SaveAndLoad(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	lastSeen := time.Date(2026, 8, 1, 12, 0, 3, 0, time.UTC)
	devices := []*Device{
		{
			ID:        "leak-01",
			Name:      "Utility Leak Sensor",
			Category:  CategorySensor,
			Transport: TransportBLE,
			Status:    StatusConnected,
			LastSeen:  lastSeen,
			Attributes: Attributes{
				"leak":    true,
				"counter": float64(7),
			},
			Port:            "tcp://127.0.0.1:20108",
			CreatedManually: true,
			CreatedAt:       lastSeen.Add(-time.Hour),
			UpdatedAt:       lastSeen,
		},
		{
			ID:        "relay-02",
			Category:  CategorySwitch,
			Transport: TransportZigbee,
			Status:    StatusOffline,
			CreatedAt: lastSeen,
			UpdatedAt: lastSeen,
		},
	}

	if err := repo.SaveAll(ctx, devices); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadAll() = %d devices, want 2", len(loaded))
	}

	byID := make(map[string]Device, len(loaded))
	for _, d := range loaded {
		byID[d.ID] = d
	}

	leak, ok := byID["leak-01"]
	if !ok {
		t.Fatal("leak-01 missing from snapshot")
	}
	if leak.Status != StatusConnected || leak.Category != CategorySensor {
		t.Errorf("leak-01 = %+v", leak)
	}
	if !leak.LastSeen.Equal(lastSeen) {
		t.Errorf("LastSeen = %v, want %v", leak.LastSeen, lastSeen)
	}
	if leak.Attributes["leak"] != true {
		t.Errorf("Attributes = %+v", leak.Attributes)
	}
	if leak.Port != "tcp://127.0.0.1:20108" {
		t.Errorf("Port = %q", leak.Port)
	}
	if !leak.CreatedManually {
		t.Error("CreatedManually not persisted")
	}

	relay := byID["relay-02"]
	if relay.CreatedManually {
		t.Error("relay-02 CreatedManually = true, want false")
	}
	if !relay.LastSeen.IsZero() {
		t.Errorf("relay-02 LastSeen = %v, want zero", relay.LastSeen)
	}
}

func TestSQLiteRepository_SaveAllReplaces(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []*Device{
		{ID: "a", Category: CategorySensor, Transport: TransportBLE, Status: StatusConnected, CreatedAt: now, UpdatedAt: now},
		{ID: "b", Category: CategorySensor, Transport: TransportBLE, Status: StatusConnected, CreatedAt: now, UpdatedAt: now},
	}
	if err := repo.SaveAll(ctx, first); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	second := []*Device{
		{ID: "c", Category: CategoryLight, Transport: TransportZigbee, Status: StatusPaired, CreatedAt: now, UpdatedAt: now},
	}
	if err := repo.SaveAll(ctx, second); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "c" {
		t.Errorf("LoadAll() = %+v, want only device c", loaded)
	}
}

func TestSQLiteRepository_LoadEmpty(t *testing.T) {
	repo := openTestRepo(t)

	loaded, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("LoadAll() on empty table = %d devices", len(loaded))
	}
}
