package bot

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"guildconf/internal/chat"
	"guildconf/internal/command"
	"guildconf/internal/config"

	"github.com/bwmarrin/discordgo"
	jsoniter "github.com/json-iterator/go"
)

const (
	messageLimit = 2000
	codeFence    = "```"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Responder replies in the channel a command came from. It also implements
// chat.Sender for the interactive prompts.
type Responder struct {
	session *discordgo.Session
	colors  config.EmbedColors
}

func NewResponder(session *discordgo.Session, colors config.EmbedColors) *Responder {
	return &Responder{session: session, colors: colors}
}

func (r *Responder) Listing(ctx context.Context, src chat.Message, options []command.Option) error {
	fields := make([]*discordgo.MessageEmbedField, 0, len(options))
	for _, option := range options {
		fields = append(fields, &discordgo.MessageEmbedField{Name: option.Name, Value: option.Description})
	}
	embed := commandEmbed("Possible settings to change:", "", r.colors.Info, fields)
	embed.Author = &discordgo.MessageEmbedAuthor{Name: "Change the bot configuration for this server!"}
	return r.sendEmbed(ctx, src.ChannelID, embed)
}

func (r *Responder) Success(ctx context.Context, src chat.Message) error {
	return r.sendEmbed(ctx, src.ChannelID, commandEmbed("Settings updated", "The settings were changed successfully.", r.colors.Success, nil))
}

func (r *Responder) Failure(ctx context.Context, src chat.Message, message string) error {
	return r.sendEmbed(ctx, src.ChannelID, commandEmbed("Settings not changed", message, r.colors.Error, nil))
}

// Dump renders value as indented JSON, split over as many messages as needed.
func (r *Responder) Dump(ctx context.Context, src chat.Message, title string, value any) error {
	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	header := "Current settings for **" + title + "**:"
	for _, chunk := range splitDump(header, string(body), messageLimit) {
		if _, err := r.Send(ctx, src.ChannelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (r *Responder) Send(ctx context.Context, channelID, content string) (string, error) {
	msg, err := r.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (r *Responder) React(ctx context.Context, channelID, messageID, emoji string) error {
	return r.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func (r *Responder) Delete(ctx context.Context, channelID, messageID string) error {
	return r.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (r *Responder) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	return r.session.ChannelMessagesBulkDelete(channelID, messageIDs, discordgo.WithContext(ctx))
}

func (r *Responder) sendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := r.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	return err
}

func commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

// splitDump cuts body into fenced JSON blocks on line boundaries so that no
// message exceeds limit. The header goes in front of the first block. A single
// line longer than a block is cut where it overflows.
func splitDump(header, body string, limit int) []string {
	open := codeFence + "JSON\n"
	closing := "\n" + codeFence
	room := limit - len(open) - len(closing)

	var chunks []string
	var current strings.Builder
	prefix := header + "\n"
	budget := room - len(prefix)

	flush := func() {
		chunks = append(chunks, prefix+open+current.String()+closing)
		current.Reset()
		prefix = ""
		budget = room
	}

	for _, line := range strings.Split(body, "\n") {
		for len(line) > 0 {
			need := len(line)
			if current.Len() > 0 {
				need++
			}
			if need <= budget-current.Len() {
				if current.Len() > 0 {
					current.WriteByte('\n')
				}
				current.WriteString(line)
				break
			}
			if current.Len() > 0 {
				flush()
				continue
			}
			cut := budget
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			current.WriteString(line[:cut])
			line = line[cut:]
			flush()
		}
	}
	if current.Len() > 0 || len(chunks) == 0 {
		flush()
	}
	return chunks
}
