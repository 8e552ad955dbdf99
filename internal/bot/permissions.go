package bot

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// basePermissions computes a member's guild-wide permissions from the
// @everyone role and the member's roles.
func basePermissions(g *discordgo.Guild, m *discordgo.Member, userID string) int64 {
	if g.OwnerID == userID {
		return discordgo.PermissionAll
	}
	var perms int64
	for _, role := range g.Roles {
		if role.ID == g.ID || slices.Contains(m.Roles, role.ID) {
			perms |= role.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}
	return perms
}

// channelPermissions applies the channel overwrites in Discord's order:
// @everyone, then all of the member's roles together, then the member.
func channelPermissions(base int64, g *discordgo.Guild, m *discordgo.Member, userID string, c *discordgo.Channel) int64 {
	if base&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}
	perms := base

	var roleAllow, roleDeny int64
	var member *discordgo.PermissionOverwrite
	for _, overwrite := range c.PermissionOverwrites {
		switch {
		case overwrite.Type == discordgo.PermissionOverwriteTypeRole && overwrite.ID == g.ID:
			perms &^= overwrite.Deny
			perms |= overwrite.Allow
		case overwrite.Type == discordgo.PermissionOverwriteTypeRole && slices.Contains(m.Roles, overwrite.ID):
			roleAllow |= overwrite.Allow
			roleDeny |= overwrite.Deny
		case overwrite.Type == discordgo.PermissionOverwriteTypeMember && overwrite.ID == userID:
			member = overwrite
		}
	}
	perms &^= roleDeny
	perms |= roleAllow
	if member != nil {
		perms &^= member.Deny
		perms |= member.Allow
	}
	return perms
}

// topRolePosition is the highest position among the member's roles.
func topRolePosition(g *discordgo.Guild, m *discordgo.Member) int {
	top := 0
	for _, role := range g.Roles {
		if slices.Contains(m.Roles, role.ID) && role.Position > top {
			top = role.Position
		}
	}
	return top
}
