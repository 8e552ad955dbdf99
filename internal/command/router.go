package command

import (
	"context"

	"guildconf/internal/chat"
	"guildconf/internal/usererr"

	"go.uber.org/zap"
)

// Responder renders replies to the channel a command came from.
type Responder interface {
	Listing(ctx context.Context, src chat.Message, options []Option) error
	Success(ctx context.Context, src chat.Message) error
	Failure(ctx context.Context, src chat.Message, message string) error
	Dump(ctx context.Context, src chat.Message, title string, value any) error
}

type Router struct {
	root      *Node
	responder Responder
	logger    *zap.Logger
}

func NewRouter(root *Node, responder Responder, logger *zap.Logger) *Router {
	return &Router{root: root, responder: responder, logger: logger}
}

// Dispatch walks tokens down the table. A missing or unknown token produces
// the listing of the current node and nothing else.
func (r *Router) Dispatch(ctx context.Context, src chat.Message, tokens []string) error {
	node := r.root
	path := node.extend(nil)
	for i := 0; ; i++ {
		if node.Run != nil {
			inv := &Invocation{Src: src, Path: path, Args: tokens[i:]}
			return r.finish(ctx, src, node.Run(ctx, inv))
		}
		if i >= len(tokens) {
			return r.responder.Listing(ctx, src, node.options())
		}
		next := node.child(tokens[i])
		if next == nil {
			return r.responder.Listing(ctx, src, node.options())
		}
		path = next.extend(path)
		node = next
	}
}

func (r *Router) finish(ctx context.Context, src chat.Message, err error) error {
	if err == nil {
		return nil
	}
	if ue, ok := usererr.As(err); ok {
		return r.responder.Failure(ctx, src, ue.Error())
	}
	r.logger.Error("settings command failed",
		zap.String("guild_id", src.GuildID),
		zap.String("channel_id", src.ChannelID),
		zap.Error(err),
	)
	if replyErr := r.responder.Failure(ctx, src, "Something went wrong while updating the settings."); replyErr != nil {
		r.logger.Warn("failed to reply", zap.Error(replyErr))
	}
	return err
}
