package bot

import (
	"context"

	"guildconf/internal/chat"
	"guildconf/internal/reactionrole"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" {
		return
	}

	src := chat.FromDiscord(msg.Message)
	if b.waiter.OfferMessage(src) {
		return
	}

	ctx := context.Background()
	tokens, ok := parseCommand(msg.Content, b.prefix(ctx, msg.GuildID), b.commandNames())
	if !ok {
		return
	}
	if !b.admitted(ctx, msg) {
		return
	}

	if err := b.router.Dispatch(ctx, src, tokens); err != nil {
		b.logger.Debug("settings command ended with error",
			zap.String("guild_id", msg.GuildID),
			zap.String("user_id", msg.Author.ID),
			zap.Error(err),
		)
	}
}

func (b *Bot) onMessageReactionAdd(session *discordgo.Session, event *discordgo.MessageReactionAdd) {
	if event.UserID == session.State.User.ID {
		return
	}
	if b.waiter.OfferReaction(event.MessageID, event.UserID, event.Emoji.Name) {
		return
	}
	b.reactionRoles.Add(context.Background(), reactionFromEvent(event.MessageReaction))
}

func (b *Bot) onMessageReactionRemove(session *discordgo.Session, event *discordgo.MessageReactionRemove) {
	if event.UserID == session.State.User.ID {
		return
	}
	b.reactionRoles.Remove(context.Background(), reactionFromEvent(event.MessageReaction))
}

func reactionFromEvent(r *discordgo.MessageReaction) reactionrole.Reaction {
	return reactionrole.Reaction{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		EmojiID:   r.Emoji.ID,
		EmojiName: r.Emoji.Name,
	}
}
