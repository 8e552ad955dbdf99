package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func testGuild() *discordgo.Guild {
	return &discordgo.Guild{
		ID:      "g1",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "g1", Position: 0, Permissions: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages},
			{ID: "mod", Position: 3, Permissions: discordgo.PermissionManageMessages | discordgo.PermissionManageServer},
			{ID: "admin", Position: 8, Permissions: discordgo.PermissionAdministrator},
			{ID: "muted", Position: 1},
		},
	}
}

func TestBasePermissions(t *testing.T) {
	g := testGuild()
	mod := &discordgo.Member{Roles: []string{"mod"}}

	perms := basePermissions(g, mod, "u1")
	if perms&discordgo.PermissionManageServer == 0 || perms&discordgo.PermissionSendMessages == 0 {
		t.Fatalf("expected role and everyone permissions, got %b", perms)
	}
	if basePermissions(g, &discordgo.Member{}, "owner") != discordgo.PermissionAll {
		t.Fatalf("owner should have every permission")
	}
	if basePermissions(g, &discordgo.Member{Roles: []string{"admin"}}, "u2") != discordgo.PermissionAll {
		t.Fatalf("administrator should have every permission")
	}
}

func TestChannelPermissionsOverwriteOrder(t *testing.T) {
	g := testGuild()
	m := &discordgo.Member{Roles: []string{"mod", "muted"}}
	c := &discordgo.Channel{
		ID: "c1",
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: "g1", Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionSendMessages},
			{ID: "muted", Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
			{ID: "mod", Type: discordgo.PermissionOverwriteTypeRole, Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages},
		},
	}

	perms := channelPermissions(basePermissions(g, m, "u1"), g, m, "u1", c)
	if perms&discordgo.PermissionViewChannel == 0 || perms&discordgo.PermissionSendMessages == 0 {
		t.Fatalf("role allow should win over role deny, got %b", perms)
	}

	c.PermissionOverwrites = append(c.PermissionOverwrites, &discordgo.PermissionOverwrite{
		ID: "u1", Type: discordgo.PermissionOverwriteTypeMember, Deny: discordgo.PermissionSendMessages,
	})
	perms = channelPermissions(basePermissions(g, m, "u1"), g, m, "u1", c)
	if perms&discordgo.PermissionSendMessages != 0 {
		t.Fatalf("member overwrite should apply last")
	}
}

func TestTopRolePosition(t *testing.T) {
	g := testGuild()
	if got := topRolePosition(g, &discordgo.Member{Roles: []string{"muted", "mod"}}); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := topRolePosition(g, &discordgo.Member{}); got != 0 {
		t.Fatalf("expected 0 without roles, got %d", got)
	}
}
