package audit_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/irkeyd/irkeyd/internal/audit"
	"github.com/irkeyd/irkeyd/internal/infrastructure/database"
	_ "github.com/irkeyd/irkeyd/migrations" // register embedded migrations
)

// newTestRepository returns a repository backed by a fresh migrated database.
func newTestRepository(t *testing.T) *audit.SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return audit.NewSQLiteRepository(db.DB)
}

func TestRecordGeneratesIDAndTimestamp(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	event := &audit.SignalEvent{Protocol: 1, Device: 2, Command: 3, Source: "gpio-ir0"}
	if err := repo.Record(ctx, event); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if event.ID == "" {
		t.Error("Record() did not generate an ID")
	}
	if event.ReceivedAt.IsZero() {
		t.Error("Record() did not set ReceivedAt")
	}
}

func TestListReturnsMostRecentFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		event := &audit.SignalEvent{
			Protocol:   1,
			Device:     2,
			Command:    int32(i),
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Record(ctx, event); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	result, err := repo.List(ctx, audit.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if result.Total != 3 {
		t.Errorf("Total = %d, want 3", result.Total)
	}
	if len(result.Events) != 3 {
		t.Fatalf("len(Events) = %d, want 3", len(result.Events))
	}
	if result.Events[0].Command != 2 {
		t.Errorf("first event command = %d, want most recent (2)", result.Events[0].Command)
	}
}

func TestListFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	events := []*audit.SignalEvent{
		{Protocol: 1, Device: 2, Command: 3, Matched: true, Emissions: 2, Source: "gpio-ir0"},
		{Protocol: 1, Device: 2, Command: 4, Source: "gpio-ir0"},
		{Protocol: 5, Device: 6, Command: 7, Matched: true, Emissions: 1, Source: "api"},
	}
	for _, e := range events {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	matched := true
	result, err := repo.List(ctx, audit.Filter{Matched: &matched})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 2 {
		t.Errorf("matched filter: Total = %d, want 2", result.Total)
	}

	protocol := int32(1)
	result, err = repo.List(ctx, audit.Filter{Protocol: &protocol, Matched: &matched})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Errorf("protocol+matched filter: Total = %d, want 1", result.Total)
	}

	result, err = repo.List(ctx, audit.Filter{Source: "api"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || result.Events[0].Protocol != 5 {
		t.Errorf("source filter returned %+v", result.Events)
	}
}

func TestListPagination(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		event := &audit.SignalEvent{
			Protocol:   1,
			Command:    int32(i),
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Record(ctx, event); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	result, err := repo.List(ctx, audit.Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if len(result.Events) != 2 {
		t.Errorf("len(Events) = %d, want 2", len(result.Events))
	}
}

func TestListEmpty(t *testing.T) {
	repo := newTestRepository(t)

	result, err := repo.List(context.Background(), audit.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Events == nil {
		t.Error("Events is nil, want empty slice")
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Total)
	}
}
