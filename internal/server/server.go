// Package server exposes the process health check and a read-only view of
// the settings audit trail.
package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"guildconf/internal/storage"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultHistory = 24 * time.Hour

// AuditSource lists a guild's recorded settings changes.
type AuditSource interface {
	Recent(ctx context.Context, guildID string, since time.Time) ([]storage.AuditLog, error)
}

type auditEntry struct {
	UserID    string    `json:"user_id"`
	Operation string    `json:"operation"`
	Path      string    `json:"path"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRouter mounts /health and, when token is set, the bearer-protected
// /guilds/{guildID}/audit route.
func NewRouter(audit AuditSource, token string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if token == "" || audit == nil {
		return r
	}

	r.Group(func(r chi.Router) {
		r.Use(bearer(token))
		r.Get("/guilds/{guildID}/audit", func(w http.ResponseWriter, req *http.Request) {
			guildID := chi.URLParam(req, "guildID")
			since := time.Now().Add(-defaultHistory)
			if hours := req.URL.Query().Get("hours"); hours != "" {
				n, err := strconv.Atoi(hours)
				if err != nil || n <= 0 {
					http.Error(w, "hours must be a positive integer", http.StatusBadRequest)
					return
				}
				since = time.Now().Add(-time.Duration(n) * time.Hour)
			}

			logs, err := audit.Recent(req.Context(), guildID, since)
			if err != nil {
				logger.Error("audit listing failed", zap.String("guild_id", guildID), zap.Error(err))
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			entries := make([]auditEntry, 0, len(logs))
			for _, log := range logs {
				entries = append(entries, auditEntry{
					UserID:    log.UserID,
					Operation: log.Operation,
					Path:      log.Path,
					Details:   log.Details,
					CreatedAt: log.CreatedAt,
				})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(entries)
		})
	})
	return r
}

func bearer(token string) func(http.Handler) http.Handler {
	expected := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), expected) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
