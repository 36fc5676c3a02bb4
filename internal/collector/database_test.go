package collector

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	db := setupTestDB(t)
	if db.db == nil {
		t.Fatal("Expected non-nil sql.DB")
	}
}

func TestInsertAndRecent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	received := time.UnixMilli(1700000000500).UTC()

	for i, name := range []string{"page_view", "cta_click", "conversion"} {
		id, err := db.Insert(ctx, StoredEvent{
			Event:      name,
			Variant:    "A",
			UserID:     "u1",
			TS:         1700000000000 + int64(i),
			Meta:       `{"page":"/x"}`,
			ReceivedAt: received,
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if id != int64(i+1) {
			t.Errorf("Expected id %d, got %d", i+1, id)
		}
	}

	events, err := db.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Event != "conversion" || events[1].Event != "cta_click" {
		t.Errorf("Expected newest first, got %s, %s", events[0].Event, events[1].Event)
	}
	if events[0].Meta != `{"page":"/x"}` || events[0].TS != 1700000000002 {
		t.Errorf("Unexpected row %+v", events[0])
	}
	if !events[0].ReceivedAt.Equal(received) {
		t.Errorf("Expected received %v, got %v", received, events[0].ReceivedAt)
	}
}

func TestRecentEmpty(t *testing.T) {
	db := setupTestDB(t)
	events, err := db.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", events)
	}
}

func TestSummary(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rows := []StoredEvent{
		{Event: "page_view", Variant: "A", UserID: "u1"},
		{Event: "page_view", Variant: "A", UserID: "u1"},
		{Event: "page_view", Variant: "A", UserID: "u2"},
		{Event: "page_view", Variant: "B", UserID: "u3"},
		{Event: "conversion", Variant: "B", UserID: "u3"},
	}
	for _, ev := range rows {
		ev.Meta = "{}"
		ev.ReceivedAt = time.Now()
		if _, err := db.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	summary, err := db.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	want := []SummaryRow{
		{Event: "conversion", Variant: "B", Count: 1, Users: 1},
		{Event: "page_view", Variant: "A", Count: 3, Users: 2},
		{Event: "page_view", Variant: "B", Count: 1, Users: 1},
	}
	if len(summary) != len(want) {
		t.Fatalf("Expected %d rows, got %v", len(want), summary)
	}
	for i := range want {
		if summary[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], summary[i])
		}
	}
}
