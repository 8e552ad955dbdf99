package mention

import "github.com/bwmarrin/discordgo"

// BaselineChannelPermissions are required on every channel the bot is asked
// to post in or clean up.
const BaselineChannelPermissions int64 = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionManageMessages

var permissionNames = []struct {
	bit  int64
	name string
}{
	{discordgo.PermissionViewChannel, "view channel"},
	{discordgo.PermissionSendMessages, "send messages"},
	{discordgo.PermissionManageMessages, "manage messages"},
	{discordgo.PermissionEmbedLinks, "embed links"},
	{discordgo.PermissionReadMessageHistory, "read message history"},
	{discordgo.PermissionMentionEveryone, "mention everyone"},
	{discordgo.PermissionAddReactions, "add reactions"},
	{discordgo.PermissionManageRoles, "manage roles"},
	{discordgo.PermissionManageServer, "manage server"},
}

// MissingPermissions names every bit of required that granted lacks.
func MissingPermissions(granted, required int64) []string {
	if granted&discordgo.PermissionAdministrator != 0 {
		return nil
	}
	var missing []string
	for _, perm := range permissionNames {
		if required&perm.bit != 0 && granted&perm.bit == 0 {
			missing = append(missing, perm.name)
		}
	}
	return missing
}
