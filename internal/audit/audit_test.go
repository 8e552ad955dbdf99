package audit

import (
	"context"
	"testing"
	"time"

	"guildconf/internal/storage"

	"go.uber.org/zap"
)

func TestLogRecordsEntry(t *testing.T) {
	backend := storage.NewMemory()
	logger := NewLogger(backend, zap.NewNop())
	logger.now = func() time.Time { return time.Unix(100, 0) }

	ctx := context.Background()
	logger.Log(ctx, "g1", "u1", OpPush, "twitch.channels", "123")

	logs, err := logger.Recent(ctx, "g1", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one entry, got %d", len(logs))
	}
	if logs[0].Operation != OpPush || logs[0].Path != "twitch.channels" || logs[0].UserID != "u1" {
		t.Fatalf("unexpected entry: %+v", logs[0])
	}
}

func TestLogWithoutRecorder(t *testing.T) {
	logger := NewLogger(nil, zap.NewNop())
	logger.Log(context.Background(), "g1", "u1", OpSet, "commands.prefix", "?")
	logs, err := logger.Recent(context.Background(), "g1", time.Time{})
	if err != nil || logs != nil {
		t.Fatalf("expected empty trail, got %v %v", logs, err)
	}
}

func TestCleanupHonoursRetention(t *testing.T) {
	backend := storage.NewMemory()
	logger := NewLogger(backend, zap.NewNop())
	ctx := context.Background()

	logger.now = func() time.Time { return time.Now().AddDate(0, 0, -20) }
	logger.Log(ctx, "g1", "u1", OpSet, "g1.youtube.enabled", "old")
	logger.now = time.Now
	logger.Log(ctx, "g1", "u1", OpSet, "g1.youtube.enabled", "new")

	if err := logger.Cleanup(ctx, 0); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if logs, _ := logger.Recent(ctx, "g1", time.Time{}); len(logs) != 2 {
		t.Fatalf("zero retention should keep everything, got %d", len(logs))
	}

	if err := logger.Cleanup(ctx, 14); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	logs, _ := logger.Recent(ctx, "g1", time.Time{})
	if len(logs) != 1 || logs[0].Details != "new" {
		t.Fatalf("expected only the recent entry, got %+v", logs)
	}
}

func TestRunRetentionStopsWithContext(t *testing.T) {
	backend := storage.NewMemory()
	logger := NewLogger(backend, zap.NewNop())
	logger.now = func() time.Time { return time.Now().AddDate(0, 0, -30) }
	logger.Log(context.Background(), "g1", "u1", OpSet, "g1.youtube.enabled", "old")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		logger.RunRetention(ctx, 7, time.Hour)
		close(done)
	}()

	deadline := time.After(time.Second)
	for {
		logs, _ := backend.ListAuditLogs(context.Background(), "g1", time.Time{})
		if len(logs) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected the first pass to run immediately")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("retention loop did not stop")
	}
}
