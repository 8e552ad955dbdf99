package bot

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Directory answers guild, channel, role and member questions from the
// session state, falling back to the REST API when the state is cold.
type Directory struct {
	session *discordgo.Session
}

func NewDirectory(session *discordgo.Session) *Directory {
	return &Directory{session: session}
}

func (d *Directory) botID() string {
	if d.session.State != nil && d.session.State.User != nil {
		return d.session.State.User.ID
	}
	return ""
}

func (d *Directory) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := d.session.State.Guild(guildID); err == nil {
		return g, nil
	}
	return d.session.Guild(guildID, discordgo.WithContext(ctx))
}

func (d *Directory) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if m, err := d.session.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	return d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
}

func (d *Directory) Role(ctx context.Context, guildID, roleID string) (*discordgo.Role, error) {
	if role, err := d.session.State.Role(guildID, roleID); err == nil {
		return role, nil
	}
	roles, err := d.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role, nil
		}
	}
	return nil, nil
}

func (d *Directory) BotTopRolePosition(ctx context.Context, guildID string) (int, error) {
	g, err := d.guild(ctx, guildID)
	if err != nil {
		return 0, err
	}
	m, err := d.member(ctx, guildID, d.botID())
	if err != nil {
		return 0, err
	}
	return topRolePosition(g, m), nil
}

func (d *Directory) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if c, err := d.session.State.Channel(channelID); err == nil {
		return c, nil
	}
	c, err := d.session.Channel(channelID, discordgo.WithContext(ctx))
	if isNotFound(err) {
		return nil, nil
	}
	return c, err
}

func (d *Directory) GuildOfChannel(ctx context.Context, channelID string) (string, error) {
	c, err := d.Channel(ctx, channelID)
	if err != nil {
		return "", err
	}
	if c == nil || c.GuildID == "" {
		return "", errors.New("channel is not in a guild")
	}
	return c.GuildID, nil
}

func (d *Directory) BotChannelPermissions(ctx context.Context, channelID string) (int64, error) {
	c, err := d.Channel(ctx, channelID)
	if err != nil || c == nil {
		return 0, err
	}
	return d.MemberChannelPermissions(ctx, c.GuildID, d.botID(), c)
}

// MemberChannelPermissions computes the effective permissions of a member in
// a channel.
func (d *Directory) MemberChannelPermissions(ctx context.Context, guildID, userID string, c *discordgo.Channel) (int64, error) {
	g, err := d.guild(ctx, guildID)
	if err != nil {
		return 0, err
	}
	m, err := d.member(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	return channelPermissions(basePermissions(g, m, userID), g, m, userID, c), nil
}

// MemberPermissions computes a member's guild-wide permissions. The member may
// come from a gateway event that omits the user.
func (d *Directory) MemberPermissions(ctx context.Context, guildID, userID string, m *discordgo.Member) (int64, error) {
	g, err := d.guild(ctx, guildID)
	if err != nil {
		return 0, err
	}
	if m == nil {
		if m, err = d.member(ctx, guildID, userID); err != nil {
			return 0, err
		}
	}
	return basePermissions(g, m, userID), nil
}

func (d *Directory) BotHasGuildPermission(ctx context.Context, guildID string, perm int64) (bool, error) {
	perms, err := d.MemberPermissions(ctx, guildID, d.botID(), nil)
	if err != nil {
		return false, err
	}
	return perms&perm == perm, nil
}

func (d *Directory) MessageExists(ctx context.Context, channelID, messageID string) (bool, error) {
	_, err := d.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// AddMemberRoles grants every role in one member edit.
func (d *Directory) AddMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string) error {
	return d.editMemberRoles(ctx, guildID, userID, func(current []string) []string {
		for _, id := range roleIDs {
			if !slices.Contains(current, id) {
				current = append(current, id)
			}
		}
		return current
	})
}

// RemoveMemberRoles revokes every role in one member edit.
func (d *Directory) RemoveMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string) error {
	return d.editMemberRoles(ctx, guildID, userID, func(current []string) []string {
		return slices.DeleteFunc(current, func(id string) bool {
			return slices.Contains(roleIDs, id)
		})
	})
}

func (d *Directory) editMemberRoles(ctx context.Context, guildID, userID string, change func([]string) []string) error {
	m, err := d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	roles := change(slices.Clone(m.Roles))
	if slices.Equal(roles, m.Roles) {
		return nil
	}
	_, err = d.session.GuildMemberEdit(guildID, userID, &discordgo.GuildMemberParams{Roles: &roles}, discordgo.WithContext(ctx))
	return err
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
