// Package chat carries the transport-neutral view of a chat message and the
// outbound operations the command layer needs.
package chat

import (
	"context"
	"regexp"

	"github.com/bwmarrin/discordgo"
)

var channelMentionPattern = regexp.MustCompile(`<#(\d+)>`)

type Message struct {
	ID              string
	GuildID         string
	ChannelID       string
	AuthorID        string
	Content         string
	RoleMentions    []string
	ChannelMentions []string
}

// FromDiscord converts a gateway message. Channel mentions are taken from the
// content because Discord only fills MentionChannels for crossposts.
func FromDiscord(m *discordgo.Message) Message {
	msg := Message{
		ID:           m.ID,
		GuildID:      m.GuildID,
		ChannelID:    m.ChannelID,
		Content:      m.Content,
		RoleMentions: append([]string(nil), m.MentionRoles...),
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	for _, match := range channelMentionPattern.FindAllStringSubmatch(m.Content, -1) {
		msg.ChannelMentions = append(msg.ChannelMentions, match[1])
	}
	return msg
}

// Sender is the outbound side of a channel conversation.
type Sender interface {
	Send(ctx context.Context, channelID, content string) (string, error)
	React(ctx context.Context, channelID, messageID, emoji string) error
	Delete(ctx context.Context, channelID, messageID string) error
	BulkDelete(ctx context.Context, channelID string, messageIDs []string) error
}
