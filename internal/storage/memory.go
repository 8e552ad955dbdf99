package storage

import (
	"context"
	"sync"
	"time"
)

type MemoryBackend struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	audit  []AuditLog
	nextID int64
}

func NewMemory() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(ctx context.Context, guildID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Save(ctx context.Context, guildID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[guildID] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

func (m *MemoryBackend) AddAuditLog(ctx context.Context, log AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	log.ID = m.nextID
	m.audit = append(m.audit, log)
	return nil
}

func (m *MemoryBackend) CleanupAuditLogs(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.audit[:0]
	for _, log := range m.audit {
		if !log.CreatedAt.Before(cutoff) {
			kept = append(kept, log)
		}
	}
	m.audit = kept
	return nil
}

func (m *MemoryBackend) ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var logs []AuditLog
	for i := len(m.audit) - 1; i >= 0; i-- {
		log := m.audit[i]
		if log.GuildID == guildID && !log.CreatedAt.Before(since) {
			logs = append(logs, log)
		}
	}
	return logs, nil
}
