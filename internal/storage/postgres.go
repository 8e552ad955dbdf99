package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresBackend{pool: pool}, nil
}

func (p *PostgresBackend) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresBackend) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			document JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS settings_audit (
			id BIGSERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			path TEXT NOT NULL,
			details TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (p *PostgresBackend) Load(ctx context.Context, guildID string) ([]byte, error) {
	var document string
	err := p.pool.QueryRow(ctx, `SELECT document::text FROM guild_settings WHERE guild_id = $1`, guildID).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(document), nil
}

func (p *PostgresBackend) Save(ctx context.Context, guildID string, data []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, document, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (guild_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, guildID, string(data))
	return err
}

func (p *PostgresBackend) AddAuditLog(ctx context.Context, log AuditLog) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO settings_audit (guild_id, user_id, operation, path, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, log.GuildID, log.UserID, log.Operation, log.Path, log.Details, log.CreatedAt)
	return err
}

func (p *PostgresBackend) ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]AuditLog, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, guild_id, user_id, operation, path, details, created_at
		FROM settings_audit
		WHERE guild_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
	`, guildID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var log AuditLog
		if err := rows.Scan(&log.ID, &log.GuildID, &log.UserID, &log.Operation, &log.Path, &log.Details, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (p *PostgresBackend) CleanupAuditLogs(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := p.pool.Exec(ctx, `DELETE FROM settings_audit WHERE created_at < $1`, cutoff)
	return err
}
