package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guildconf/internal/settings"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("storage: guild document not found")

// Backend persists one encoded settings document per guild.
type Backend interface {
	Load(ctx context.Context, guildID string) ([]byte, error)
	Save(ctx context.Context, guildID string, data []byte) error
	Close() error
}

type AuditLog struct {
	ID        int64
	GuildID   string
	UserID    string
	Operation string
	Path      string
	Details   string
	CreatedAt time.Time
}

// AuditRecorder is implemented by backends that can keep the mutation trail.
type AuditRecorder interface {
	AddAuditLog(ctx context.Context, log AuditLog) error
	ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]AuditLog, error)
	CleanupAuditLogs(ctx context.Context, retentionDays int) error
}

type Options struct {
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Store is the settings store. Every operation runs under the guild's lock,
// so operations on one guild are serialised and each one is atomic.
type Store struct {
	backend Backend
	cache   *cache.Cache
	locks   *keyLocks
	logger  *zap.Logger
}

func New(backend Backend, opts Options) *Store {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		cache:   cache.New(ttl, 2*ttl),
		locks:   newKeyLocks(),
		logger:  logger,
	}
}

func (s *Store) Close() error {
	s.cache.Flush()
	return s.backend.Close()
}

// Document returns a copy of the guild's whole document.
func (s *Store) Document(ctx context.Context, guildID string) (settings.Document, error) {
	unlock := s.locks.Lock(guildID)
	defer unlock()

	doc, err := s.load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// Get returns a copy of the value at p, or nil when nothing is stored there.
func (s *Store) Get(ctx context.Context, guildID string, p settings.Path) (any, error) {
	doc, err := s.Document(ctx, guildID)
	if err != nil {
		return nil, err
	}
	value, _ := doc.Get(p)
	return value, nil
}

func (s *Store) Includes(ctx context.Context, guildID string, p settings.Path, value any) (bool, error) {
	doc, err := s.Document(ctx, guildID)
	if err != nil {
		return false, err
	}
	return doc.Includes(p, value)
}

func (s *Store) Set(ctx context.Context, guildID string, p settings.Path, value any) error {
	return s.mutate(ctx, guildID, func(doc settings.Document) error {
		return doc.Set(p, value)
	})
}

func (s *Store) Push(ctx context.Context, guildID string, p settings.Path, value any, allowDuplicates bool) error {
	return s.mutate(ctx, guildID, func(doc settings.Document) error {
		return doc.Push(p, value, allowDuplicates)
	})
}

func (s *Store) Remove(ctx context.Context, guildID string, p settings.Path, value any) error {
	return s.mutate(ctx, guildID, func(doc settings.Document) error {
		return doc.Remove(p, value)
	})
}

func (s *Store) Delete(ctx context.Context, guildID string, p settings.Path) error {
	return s.mutate(ctx, guildID, func(doc settings.Document) error {
		return doc.Delete(p)
	})
}

func (s *Store) Ensure(ctx context.Context, guildID string, p settings.Path, value any) error {
	return s.mutate(ctx, guildID, func(doc settings.Document) error {
		return doc.Ensure(p, value)
	})
}

func (s *Store) mutate(ctx context.Context, guildID string, apply func(settings.Document) error) error {
	unlock := s.locks.Lock(guildID)
	defer unlock()

	current, err := s.load(ctx, guildID)
	if err != nil {
		return err
	}
	next := current.Clone()
	if err := apply(next); err != nil {
		return err
	}
	return s.save(ctx, guildID, next)
}

// load must be called with the guild lock held. A guild seen for the first
// time is seeded from the default template and persisted.
func (s *Store) load(ctx context.Context, guildID string) (settings.Document, error) {
	if cached, ok := s.cache.Get(guildID); ok {
		return cached.(settings.Document), nil
	}

	data, err := s.backend.Load(ctx, guildID)
	if errors.Is(err, ErrNotFound) {
		doc := settings.Defaults()
		if err := s.save(ctx, guildID, doc); err != nil {
			return nil, err
		}
		s.logger.Info("seeded guild settings", zap.String("guild_id", guildID))
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings for guild %s: %w", guildID, err)
	}

	doc, err := settings.Decode(data)
	if err != nil {
		return nil, err
	}
	s.cache.Set(guildID, doc, cache.DefaultExpiration)
	return doc, nil
}

func (s *Store) save(ctx context.Context, guildID string, doc settings.Document) error {
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode settings for guild %s: %w", guildID, err)
	}
	if err := s.backend.Save(ctx, guildID, data); err != nil {
		s.cache.Delete(guildID)
		return fmt.Errorf("save settings for guild %s: %w", guildID, err)
	}
	s.cache.Set(guildID, doc, cache.DefaultExpiration)
	return nil
}

// Open builds the backend named by driver.
func Open(ctx context.Context, driver, dsn string) (Backend, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		backend, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := backend.Migrate(); err != nil {
			backend.Close()
			return nil, err
		}
		return backend, nil
	case "postgres":
		backend, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := backend.Migrate(ctx); err != nil {
			backend.Close()
			return nil, err
		}
		return backend, nil
	case "redis":
		return NewRedis(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
