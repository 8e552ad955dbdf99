// Package reactionrole grants and revokes member roles from reactions on the
// messages configured under reactionRole.messages.
package reactionrole

import (
	"context"

	"guildconf/internal/emoji"
	"guildconf/internal/settings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Reaction is a reaction event. GuildID is empty when the gateway delivered a
// partial event.
type Reaction struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	EmojiID   string
	EmojiName string
}

// EmojiKey is the key the settings use: the id of a custom emoji, otherwise
// the emoji's stored form.
func (r Reaction) EmojiKey() string {
	if r.EmojiID != "" {
		return r.EmojiID
	}
	return emoji.Key(r.EmojiName)
}

type Settings interface {
	Get(ctx context.Context, guildID string, p settings.Path) (any, error)
}

type Directory interface {
	GuildOfChannel(ctx context.Context, channelID string) (string, error)
	BotHasGuildPermission(ctx context.Context, guildID string, perm int64) (bool, error)
	Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error)
	BotTopRolePosition(ctx context.Context, guildID string) (int, error)
	AddMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string) error
	RemoveMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string) error
}

type Handler struct {
	settings Settings
	dir      Directory
	logger   *zap.Logger
}

func NewHandler(s Settings, dir Directory, logger *zap.Logger) *Handler {
	return &Handler{settings: s, dir: dir, logger: logger}
}

func (h *Handler) Add(ctx context.Context, r Reaction) {
	h.apply(ctx, r, true)
}

func (h *Handler) Remove(ctx context.Context, r Reaction) {
	h.apply(ctx, r, false)
}

func (h *Handler) apply(ctx context.Context, r Reaction, add bool) {
	if r.GuildID == "" {
		guildID, err := h.dir.GuildOfChannel(ctx, r.ChannelID)
		if err != nil {
			h.logger.Error("failed to resolve partial reaction", zap.String("channel_id", r.ChannelID), zap.Error(err))
			return
		}
		r.GuildID = guildID
	}
	logger := h.logger.With(
		zap.String("guild_id", r.GuildID),
		zap.String("message_id", r.MessageID),
		zap.String("emoji", r.EmojiKey()),
	)

	roles, err := h.mappedRoles(ctx, r)
	if err != nil {
		logger.Error("failed to read reaction role settings", zap.Error(err))
		return
	}
	if len(roles) == 0 {
		return
	}

	ok, err := h.dir.BotHasGuildPermission(ctx, r.GuildID, discordgo.PermissionManageRoles)
	if err != nil {
		logger.Error("failed to check guild permissions", zap.Error(err))
		return
	}
	if !ok {
		logger.Warn("missing manage roles permission for reaction role")
		return
	}

	top, err := h.dir.BotTopRolePosition(ctx, r.GuildID)
	if err != nil {
		logger.Error("failed to resolve bot role position", zap.Error(err))
		return
	}
	for _, roleID := range roles {
		role, err := h.dir.Role(ctx, r.GuildID, roleID)
		if err != nil {
			logger.Error("failed to resolve role", zap.String("role_id", roleID), zap.Error(err))
			return
		}
		if role == nil {
			logger.Warn("reaction role no longer exists", zap.String("role_id", roleID))
			return
		}
		if role.Position >= top {
			logger.Warn("reaction role is not below the bot's highest role", zap.String("role_id", roleID))
			return
		}
	}

	if add {
		err = h.dir.AddMemberRoles(ctx, r.GuildID, r.UserID, roles)
	} else {
		err = h.dir.RemoveMemberRoles(ctx, r.GuildID, r.UserID, roles)
	}
	if err != nil {
		logger.Error("failed to update member roles", zap.String("user_id", r.UserID), zap.Bool("add", add), zap.Error(err))
	}
}

// mappedRoles returns nil when the feature is disabled or nothing is mapped.
func (h *Handler) mappedRoles(ctx context.Context, r Reaction) ([]string, error) {
	value, err := h.settings.Get(ctx, r.GuildID, settings.P(settings.FeatureReactionRole))
	if err != nil {
		return nil, err
	}
	feature, _ := value.(map[string]any)
	if enabled, _ := feature["enabled"].(bool); !enabled {
		return nil, nil
	}
	messages, _ := feature["messages"].(map[string]any)
	emojis, _ := messages[r.MessageID].(map[string]any)
	list := lookupEmoji(emojis, r.EmojiKey())

	roles := make([]string, 0, len(list))
	for _, item := range list {
		if id, ok := item.(string); ok && id != "" {
			roles = append(roles, id)
		}
	}
	return roles, nil
}

// lookupEmoji finds the role list for key, also matching entries saved with
// presentation selectors.
func lookupEmoji(emojis map[string]any, key string) []any {
	if list, ok := emojis[key].([]any); ok {
		return list
	}
	for stored, value := range emojis {
		if emoji.Key(stored) == key {
			list, _ := value.([]any)
			return list
		}
	}
	return nil
}
