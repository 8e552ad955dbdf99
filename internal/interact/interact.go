package interact

import (
	"context"
	"errors"
	"time"

	"guildconf/internal/chat"
	"guildconf/internal/usererr"

	"go.uber.org/zap"
)

const (
	DefaultTimeout = 60 * time.Second

	ConfirmEmoji = "✅"
	DenyEmoji    = "🚫"
)

// Collector asks the invoking author for one missing argument.
type Collector struct {
	sender  chat.Sender
	waiter  *Waiter
	timeout time.Duration
	logger  *zap.Logger
}

func NewCollector(sender chat.Sender, waiter *Waiter, timeout time.Duration, logger *zap.Logger) *Collector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Collector{sender: sender, waiter: waiter, timeout: timeout, logger: logger}
}

// Collect posts prompt and returns the author's next message in the same
// channel. Prompt and reply are both removed afterwards. When the
// deadline passes the prompt is removed and NoResponseInTime is returned.
func (c *Collector) Collect(ctx context.Context, src chat.Message, prompt string) (chat.Message, error) {
	pending := c.waiter.ExpectMessage(src.ChannelID, src.AuthorID)

	promptID, err := c.sender.Send(ctx, src.ChannelID, prompt)
	if err != nil {
		pending.cancel()
		return chat.Message{}, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := pending.Wait(waitCtx)
	if err != nil {
		c.cleanup(ctx, src.ChannelID, promptID)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return chat.Message{}, usererr.New(usererr.NoResponseInTime, "")
		}
		return chat.Message{}, err
	}

	if err := c.sender.BulkDelete(ctx, src.ChannelID, []string{promptID, reply.ID}); err != nil {
		c.logger.Warn("failed to clean up collected reply", zap.String("channel_id", src.ChannelID), zap.Error(err))
	}
	return reply, nil
}

func (c *Collector) cleanup(ctx context.Context, channelID, messageID string) {
	if err := c.sender.Delete(context.WithoutCancel(ctx), channelID, messageID); err != nil {
		c.logger.Warn("failed to delete prompt", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// Gate asks the invoking author to confirm a destructive change.
type Gate struct {
	sender  chat.Sender
	waiter  *Waiter
	timeout time.Duration
	logger  *zap.Logger
}

func NewGate(sender chat.Sender, waiter *Waiter, timeout time.Duration, logger *zap.Logger) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{sender: sender, waiter: waiter, timeout: timeout, logger: logger}
}

// Confirm returns nil only when the author's first recognised reaction is the
// confirm emoji. Denial yields ConfirmationDenied and silence yields
// NoResponseInTime. The warning is deleted in every outcome.
func (g *Gate) Confirm(ctx context.Context, src chat.Message, warning string) error {
	promptID, err := g.sender.Send(ctx, src.ChannelID, warning)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.sender.Delete(context.WithoutCancel(ctx), src.ChannelID, promptID); err != nil {
			g.logger.Warn("failed to delete confirmation prompt", zap.String("channel_id", src.ChannelID), zap.Error(err))
		}
	}()

	pending := g.waiter.ExpectReaction(promptID, src.AuthorID, ConfirmEmoji, DenyEmoji)
	for _, emoji := range []string{ConfirmEmoji, DenyEmoji} {
		if err := g.sender.React(ctx, src.ChannelID, promptID, emoji); err != nil {
			pending.cancel()
			return err
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	choice, err := pending.Wait(waitCtx)
	switch {
	case err == nil && choice == ConfirmEmoji:
		return nil
	case err == nil:
		return usererr.New(usererr.ConfirmationDenied, "")
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return usererr.New(usererr.NoResponseInTime, "")
	default:
		return err
	}
}
