package bot

import (
	"context"
	"strings"

	"guildconf/internal/settings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	replyNoPermission    = "You need the **manage server** permission to change the settings."
	replyBotNoReactions  = "I need the **add reactions** permission in this channel to ask for confirmations."
	replyTooManyCommands = "Too many settings commands, please wait a moment before trying again."
)

// parseCommand matches content against prefix followed by one of names and
// returns the remaining tokens.
func parseCommand(content, prefix string, names []string) ([]string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return nil, false
	}
	for _, name := range names {
		if strings.EqualFold(fields[0], name) {
			return fields[1:], true
		}
	}
	return nil, false
}

func (b *Bot) commandNames() []string {
	return append([]string{b.cfg.CommandName}, b.cfg.CommandAliases...)
}

// prefix reads the guild's command prefix, falling back to the configured
// default when the document cannot be read.
func (b *Bot) prefix(ctx context.Context, guildID string) string {
	value, err := b.store.Get(ctx, guildID, settings.P("commands", "prefix"))
	if err != nil {
		b.logger.Warn("failed to read prefix", zap.String("guild_id", guildID), zap.Error(err))
		return b.cfg.DefaultPrefix
	}
	if prefix, ok := value.(string); ok && prefix != "" {
		return prefix
	}
	return b.cfg.DefaultPrefix
}

// admitted checks that the author may change settings and that the bot can
// run the reaction based confirmations in this channel. It replies itself when
// the command is refused.
func (b *Bot) admitted(ctx context.Context, msg *discordgo.MessageCreate) bool {
	perms, err := b.directory.MemberPermissions(ctx, msg.GuildID, msg.Author.ID, msg.Member)
	if err != nil {
		b.logger.Error("failed to compute member permissions", zap.String("guild_id", msg.GuildID), zap.Error(err))
		return false
	}
	if perms&discordgo.PermissionManageServer == 0 {
		b.reply(ctx, msg.ChannelID, replyNoPermission)
		return false
	}

	botPerms, err := b.directory.BotChannelPermissions(ctx, msg.ChannelID)
	if err != nil {
		b.logger.Error("failed to compute bot permissions", zap.String("channel_id", msg.ChannelID), zap.Error(err))
		return false
	}
	if botPerms&discordgo.PermissionAddReactions == 0 {
		b.reply(ctx, msg.ChannelID, replyBotNoReactions)
		return false
	}

	if !b.limiter(msg.GuildID).Allow() {
		b.reply(ctx, msg.ChannelID, replyTooManyCommands)
		return false
	}
	return true
}

func (b *Bot) reply(ctx context.Context, channelID, message string) {
	embed := commandEmbed("Settings not changed", message, b.cfg.EmbedColors.Error, nil)
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		b.logger.Warn("failed to reply", zap.String("channel_id", channelID), zap.Error(err))
	}
}
