package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	redisKeyPrefix = "guildconf:"
	redisAuditCap  = 1000
)

type RedisBackend struct {
	client *redis.Client
}

func NewRedis(url string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBackend{client: redis.NewClient(opts)}, nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func (r *RedisBackend) Load(ctx context.Context, guildID string) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+"settings:"+guildID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (r *RedisBackend) Save(ctx context.Context, guildID string, data []byte) error {
	return r.client.Set(ctx, redisKeyPrefix+"settings:"+guildID, data, 0).Err()
}

func (r *RedisBackend) AddAuditLog(ctx context.Context, log AuditLog) error {
	key := redisKeyPrefix + "audit:" + log.GuildID
	id, err := r.client.Incr(ctx, key+":seq").Result()
	if err != nil {
		return err
	}
	log.ID = id
	payload, err := json.Marshal(log)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, redisAuditCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisBackend) ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]AuditLog, error) {
	raw, err := r.client.LRange(ctx, redisKeyPrefix+"audit:"+guildID, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	var logs []AuditLog
	for _, item := range raw {
		var log AuditLog
		if err := json.Unmarshal([]byte(item), &log); err != nil {
			return nil, err
		}
		if log.CreatedAt.Before(since) {
			continue
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// CleanupAuditLogs drops expired entries from every guild's audit list. Lists
// are newest first, so the expired entries are always a tail.
func (r *RedisBackend) CleanupAuditLogs(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"audit:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, ":seq") {
			continue
		}
		if err := r.trimAudit(ctx, key, cutoff); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *RedisBackend) trimAudit(ctx context.Context, key string, cutoff time.Time) error {
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}
	expired := 0
	for i, item := range raw {
		var log AuditLog
		if err := json.Unmarshal([]byte(item), &log); err != nil {
			return err
		}
		if log.CreatedAt.Before(cutoff) {
			expired = len(raw) - i
			break
		}
	}
	if expired == 0 {
		return nil
	}
	// index from the tail so entries pushed meanwhile are kept
	return r.client.LTrim(ctx, key, 0, int64(-expired-1)).Err()
}
