// Package mention validates role, channel, message and emoji arguments typed
// into a settings command and resolves them against the guild.
package mention

import (
	"context"
	"regexp"

	"guildconf/internal/chat"
	"guildconf/internal/emoji"
	"guildconf/internal/usererr"

	"github.com/bwmarrin/discordgo"
)

var (
	rolePattern        = regexp.MustCompile(`^<@&(\d+)>$`)
	channelPattern     = regexp.MustCompile(`^<#(\d+)>$`)
	snowflakePattern   = regexp.MustCompile(`^\d{17,19}$`)
	customEmojiPattern = regexp.MustCompile(`^<?(a)?:?(\w{2,32}):(\d{17,19})>?$`)
)

// Directory resolves guild entities and answers permission questions about
// the bot. Lookups of unknown ids return nil without an error.
type Directory interface {
	Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error)
	BotTopRolePosition(ctx context.Context, guildID string) (int, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	BotChannelPermissions(ctx context.Context, channelID string) (int64, error)
	MessageExists(ctx context.Context, channelID, messageID string) (bool, error)
}

type Parser struct {
	dir Directory
}

func NewParser(dir Directory) *Parser {
	return &Parser{dir: dir}
}

// Role resolves a role mention the bot is allowed to manage.
func (p *Parser) Role(ctx context.Context, src chat.Message, token string) (*discordgo.Role, error) {
	if len(src.RoleMentions) == 0 || token == "" {
		return nil, usererr.New(usererr.MissingMention, "role")
	}
	matches := rolePattern.FindStringSubmatch(token)
	if matches == nil {
		return nil, usererr.New(usererr.InvalidMention, "role")
	}
	role, err := p.dir.Role(ctx, src.GuildID, matches[1])
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, usererr.New(usererr.InvalidMention, "role")
	}
	if err := p.CheckRolePosition(ctx, src.GuildID, role); err != nil {
		return nil, err
	}
	return role, nil
}

// CheckRolePosition enforces that role sits strictly below the bot's
// highest role.
func (p *Parser) CheckRolePosition(ctx context.Context, guildID string, role *discordgo.Role) error {
	top, err := p.dir.BotTopRolePosition(ctx, guildID)
	if err != nil {
		return err
	}
	if role.Position >= top {
		return usererr.New(usererr.RolePositionTooHigh, role.ID)
	}
	return nil
}

// Channel resolves a channel mention in the source guild on which the bot
// holds perms plus the baseline permissions.
func (p *Parser) Channel(ctx context.Context, src chat.Message, token string, perms int64) (*discordgo.Channel, error) {
	if len(src.ChannelMentions) == 0 || token == "" {
		return nil, usererr.New(usererr.MissingMention, "channel")
	}
	matches := channelPattern.FindStringSubmatch(token)
	if matches == nil {
		return nil, usererr.New(usererr.InvalidMention, "channel")
	}
	channel, err := p.dir.Channel(ctx, matches[1])
	if err != nil {
		return nil, err
	}
	if channel == nil || channel.GuildID != src.GuildID {
		return nil, usererr.New(usererr.InvalidMention, "channel")
	}

	granted, err := p.dir.BotChannelPermissions(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	if missing := MissingPermissions(granted, perms|BaselineChannelPermissions); len(missing) > 0 {
		return nil, usererr.MissingPermissions(channel.ID, missing)
	}
	return channel, nil
}

// Message validates a message snowflake. When channelID is set the message
// must exist in that channel.
func (p *Parser) Message(ctx context.Context, channelID, token string) (string, error) {
	if token == "" {
		return "", usererr.New(usererr.MissingArgument, "message")
	}
	if !snowflakePattern.MatchString(token) {
		return "", usererr.New(usererr.InvalidArgument, "message")
	}
	if channelID != "" {
		exists, err := p.dir.MessageExists(ctx, channelID, token)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", usererr.New(usererr.WrongChannelForMessage, token)
		}
	}
	return token, nil
}

// Emoji returns the id of a custom emoji or the standard emoji in its
// stored form.
func (p *Parser) Emoji(token string) (string, error) {
	return ParseEmoji(token)
}

func ParseEmoji(token string) (string, error) {
	if token == "" {
		return "", usererr.New(usererr.MissingMention, "emoji")
	}
	if matches := customEmojiPattern.FindStringSubmatch(token); matches != nil {
		return matches[3], nil
	}
	if emoji.IsStandardEmoji(token) {
		return emoji.Key(token), nil
	}
	return "", usererr.New(usererr.InvalidMention, "emoji")
}
