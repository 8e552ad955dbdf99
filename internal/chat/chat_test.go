package chat

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestFromDiscord(t *testing.T) {
	m := &discordgo.Message{
		ID:           "m1",
		GuildID:      "g1",
		ChannelID:    "c1",
		Content:      "!settings twitch channels add <#111> and <#222>",
		Author:       &discordgo.User{ID: "u1"},
		MentionRoles: []string{"r1"},
	}
	msg := FromDiscord(m)
	if msg.AuthorID != "u1" || msg.GuildID != "g1" {
		t.Fatalf("unexpected identity: %+v", msg)
	}
	if len(msg.ChannelMentions) != 2 || msg.ChannelMentions[0] != "111" || msg.ChannelMentions[1] != "222" {
		t.Fatalf("unexpected channel mentions: %v", msg.ChannelMentions)
	}
	if len(msg.RoleMentions) != 1 || msg.RoleMentions[0] != "r1" {
		t.Fatalf("unexpected role mentions: %v", msg.RoleMentions)
	}
}
