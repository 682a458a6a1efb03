package observability_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lexq/dbopen"
	"github.com/hazyhaar/lexq/observability"
)

func TestInitCreatesTables(t *testing.T) {
	db := dbopen.OpenMemory(t)
	if err := observability.Init(db); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, table := range []string{"business_event_logs", "http_request_logs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestLogEvent(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(observability.Schema))
	l := observability.NewEventLogger(db)
	ctx := context.Background()

	l.LogEvent(ctx, observability.BusinessEvent{
		EventType:  "paragraph.fetched",
		EntityType: "paragraph",
		EntityID:   "42",
		Action:     "create",
		Details:    `{"bytes":1280}`,
		Success:    true,
	})

	var eventType, entityID string
	var success int
	err := db.QueryRow(`
		SELECT event_type, entity_id, success FROM business_event_logs`,
	).Scan(&eventType, &entityID, &success)
	if err != nil {
		t.Fatalf("query event: %v", err)
	}
	if eventType != "paragraph.fetched" {
		t.Errorf("event_type = %q", eventType)
	}
	if entityID != "42" {
		t.Errorf("entity_id = %q", entityID)
	}
	if success != 1 {
		t.Errorf("success = %d, want 1", success)
	}
}

func TestLogEventSurvivesBrokenStore(t *testing.T) {
	// No schema applied: the insert fails, LogEvent must not panic.
	db := dbopen.OpenMemory(t)
	l := observability.NewEventLogger(db)
	l.LogEvent(context.Background(), observability.BusinessEvent{
		EventType: "search.performed",
		Action:    "search",
		Success:   true,
	})
}

func TestLogRequest(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(observability.Schema))
	l := observability.NewEventLogger(db)

	l.LogRequest(context.Background(), observability.RequestLog{
		Method:     "POST",
		Path:       "/api/v1/paragraphs/search",
		StatusCode: 200,
		DurationMs: 12,
		IPAddress:  "127.0.0.1",
		UserAgent:  "lexqctl/1.0",
	})

	var method, path string
	var status int
	err := db.QueryRow(`SELECT method, path, status_code FROM http_request_logs`).
		Scan(&method, &path, &status)
	if err != nil {
		t.Fatalf("query request log: %v", err)
	}
	if method != "POST" || status != 200 {
		t.Errorf("got %s %d", method, status)
	}
	if path != "/api/v1/paragraphs/search" {
		t.Errorf("path = %q", path)
	}
}

func TestCleanup(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(observability.Schema))
	ctx := context.Background()

	old := time.Now().Unix() - 40*86400
	fresh := time.Now().Unix()
	for i, ts := range []int64{old, fresh} {
		_, err := db.Exec(`
			INSERT INTO business_event_logs (event_id, event_type, action, success, created_at)
			VALUES (?,?,?,?,?)`,
			fmt.Sprintf("evt_%d", i), "cache.refreshed", "refresh", 1, ts)
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := observability.Cleanup(ctx, db, observability.RetentionConfig{EventLogsDays: 30}); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM business_event_logs`).Scan(&count)
	if count != 1 {
		t.Fatalf("count = %d after cleanup, want 1", count)
	}
}
