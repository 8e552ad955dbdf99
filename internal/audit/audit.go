package audit

import (
	"context"
	"time"

	"guildconf/internal/storage"

	"go.uber.org/zap"
)

const (
	OpSet    = "set"
	OpPush   = "push"
	OpRemove = "remove"
	OpDelete = "delete"
)

// Logger records settings mutations. The recorder is optional: backends that
// cannot keep a trail still get the structured log line.
type Logger struct {
	recorder storage.AuditRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewLogger(recorder storage.AuditRecorder, logger *zap.Logger) *Logger {
	return &Logger{recorder: recorder, logger: logger, now: time.Now}
}

func (l *Logger) Log(ctx context.Context, guildID, userID, operation, path, details string) {
	entry := storage.AuditLog{
		GuildID:   guildID,
		UserID:    userID,
		Operation: operation,
		Path:      path,
		Details:   details,
		CreatedAt: l.now(),
	}
	if l.recorder != nil {
		if err := l.recorder.AddAuditLog(ctx, entry); err != nil {
			l.logger.Warn("audit record failed", zap.String("guild_id", guildID), zap.Error(err))
		}
	}
	l.logger.Info("settings changed",
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.String("operation", operation),
		zap.String("path", path),
		zap.String("details", details),
	)
}

// Cleanup removes entries older than retentionDays. Zero or less keeps
// everything.
func (l *Logger) Cleanup(ctx context.Context, retentionDays int) error {
	if l.recorder == nil || retentionDays <= 0 {
		return nil
	}
	return l.recorder.CleanupAuditLogs(ctx, retentionDays)
}

// RunRetention runs Cleanup now and then every interval until ctx is done.
func (l *Logger) RunRetention(ctx context.Context, retentionDays int, interval time.Duration) {
	if l.recorder == nil || retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := l.Cleanup(ctx, retentionDays); err != nil && ctx.Err() == nil {
			l.logger.Warn("audit cleanup failed", zap.Int("retention_days", retentionDays), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Recent returns the guild's trail since the given time, newest first.
func (l *Logger) Recent(ctx context.Context, guildID string, since time.Time) ([]storage.AuditLog, error) {
	if l.recorder == nil {
		return nil, nil
	}
	return l.recorder.ListAuditLogs(ctx, guildID, since)
}
