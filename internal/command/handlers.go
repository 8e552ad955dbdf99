package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"guildconf/internal/audit"
	"guildconf/internal/chat"
	"guildconf/internal/mention"
	"guildconf/internal/settings"
	"guildconf/internal/usererr"

	"go.uber.org/zap"
)

const (
	promptRole  = "Please respond with a **mention** of the preferred role."
	promptEmoji = "Please respond with the preferred **emoji**."

	confirmWarning = "**WARNING**! This action is irreversible! Do you want to continue?"

	memberPlaceholder = "[MEMBER]"
)

// Store is the settings store as the handlers see it.
type Store interface {
	Get(ctx context.Context, guildID string, p settings.Path) (any, error)
	Set(ctx context.Context, guildID string, p settings.Path, value any) error
	Push(ctx context.Context, guildID string, p settings.Path, value any, allowDuplicates bool) error
	Remove(ctx context.Context, guildID string, p settings.Path, value any) error
	Delete(ctx context.Context, guildID string, p settings.Path) error
	Ensure(ctx context.Context, guildID string, p settings.Path, value any) error
	Includes(ctx context.Context, guildID string, p settings.Path, value any) (bool, error)
}

type Collector interface {
	Collect(ctx context.Context, src chat.Message, prompt string) (chat.Message, error)
}

type Gate interface {
	Confirm(ctx context.Context, src chat.Message, warning string) error
}

// UsernameValidator checks that a streaming channel exists and returns its
// canonical name.
type UsernameValidator interface {
	Validate(ctx context.Context, username string) (string, error)
}

type Auditor interface {
	Log(ctx context.Context, guildID, userID, operation, path, details string)
}

type Deps struct {
	Store     Store
	Parser    *mention.Parser
	Collector Collector
	Gate      Gate
	Responder Responder
	Audit     Auditor
	Twitch    UsernameValidator
	YouTube   UsernameValidator
	Logger    *zap.Logger
}

// Handlers holds the mutation handlers the routing table points at.
type Handlers struct {
	store     Store
	parser    *mention.Parser
	collector Collector
	gate      Gate
	responder Responder
	audit     Auditor
	twitch    UsernameValidator
	youtube   UsernameValidator
	logger    *zap.Logger
}

func NewHandlers(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		store:     d.Store,
		parser:    d.Parser,
		collector: d.Collector,
		gate:      d.Gate,
		responder: d.Responder,
		audit:     d.Audit,
		twitch:    d.Twitch,
		youtube:   d.YouTube,
		logger:    logger,
	}
}

func (h *Handlers) commit(ctx context.Context, inv *Invocation, op string, p settings.Path, details string) error {
	if h.audit != nil {
		h.audit.Log(ctx, inv.Src.GuildID, inv.Src.AuthorID, op, settings.StoreKey(inv.Src.GuildID, p), details)
	}
	return h.responder.Success(ctx, inv.Src)
}

func (h *Handlers) confirm(ctx context.Context, inv *Invocation) error {
	return h.gate.Confirm(ctx, inv.Src, confirmWarning)
}

func (h *Handlers) setBool(value bool) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		if err := h.store.Set(ctx, inv.Src.GuildID, inv.Path, value); err != nil {
			return err
		}
		return h.commit(ctx, inv, audit.OpSet, inv.Path, strconv.FormatBool(value))
	}
}

func (h *Handlers) setText(subject string) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		value := inv.Arg(0)
		if value == "" {
			return usererr.New(usererr.MissingArgument, subject)
		}
		if err := h.store.Set(ctx, inv.Src.GuildID, inv.Path, value); err != nil {
			return err
		}
		return h.commit(ctx, inv, audit.OpSet, inv.Path, value)
	}
}

func (h *Handlers) setRole(ctx context.Context, inv *Invocation) error {
	role, err := h.parser.Role(ctx, inv.Src, inv.Arg(0))
	if err != nil {
		return err
	}
	if err := h.store.Set(ctx, inv.Src.GuildID, inv.Path, role.ID); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpSet, inv.Path, role.ID)
}

// setUsername takes the rest of the command as the name, since channel names
// may contain spaces.
func (h *Handlers) setUsername(validator UsernameValidator) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		name := inv.Text(0)
		if name == "" {
			return usererr.New(usererr.MissingArgument, "username")
		}
		resolved := name
		if validator != nil {
			var err error
			if resolved, err = validator.Validate(ctx, name); err != nil {
				return err
			}
		}
		if err := h.store.Set(ctx, inv.Src.GuildID, inv.Path, resolved); err != nil {
			return err
		}
		return h.commit(ctx, inv, audit.OpSet, inv.Path, resolved)
	}
}

func (h *Handlers) addChannel(perms int64) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		channel, err := h.parser.Channel(ctx, inv.Src, inv.Arg(0), perms)
		if err != nil {
			return err
		}
		if err := h.store.Push(ctx, inv.Src.GuildID, inv.Path, channel.ID, false); err != nil {
			return err
		}
		return h.commit(ctx, inv, audit.OpPush, inv.Path, channel.ID)
	}
}

func (h *Handlers) removeChannel(ctx context.Context, inv *Invocation) error {
	channel, err := h.parser.Channel(ctx, inv.Src, inv.Arg(0), 0)
	if err != nil {
		return err
	}
	if err := h.store.Remove(ctx, inv.Src.GuildID, inv.Path, channel.ID); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpRemove, inv.Path, channel.ID)
}

// addMessage appends the rest of the command as one template string.
func (h *Handlers) addMessage(requirePlaceholder bool) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		text := inv.Text(0)
		if text == "" {
			return usererr.New(usererr.MissingArgument, "message")
		}
		if requirePlaceholder && !strings.Contains(text, memberPlaceholder) {
			return usererr.New(usererr.MissingArgument, memberPlaceholder)
		}
		if err := h.store.Push(ctx, inv.Src.GuildID, inv.Path, text, false); err != nil {
			return err
		}
		return h.commit(ctx, inv, audit.OpPush, inv.Path, text)
	}
}

func (h *Handlers) removeMessage(ctx context.Context, inv *Invocation) error {
	text := inv.Text(0)
	if text == "" {
		return usererr.New(usererr.MissingArgument, "message")
	}
	present, err := h.store.Includes(ctx, inv.Src.GuildID, inv.Path, text)
	if err != nil {
		return err
	}
	if !present {
		return usererr.New(usererr.InvalidArgument, "message")
	}
	if err := h.store.Remove(ctx, inv.Src.GuildID, inv.Path, text); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpRemove, inv.Path, text)
}

func (h *Handlers) clearList(ctx context.Context, inv *Invocation) error {
	if err := h.confirm(ctx, inv); err != nil {
		return err
	}
	if err := h.store.Set(ctx, inv.Src.GuildID, inv.Path, []any{}); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpSet, inv.Path, "[]")
}

// reset restores the subtree at the invocation path, or the whole document
// at the root, from the default template.
func (h *Handlers) reset(ctx context.Context, inv *Invocation) error {
	def, ok := settings.DefaultAt(inv.Path)
	if !ok {
		return fmt.Errorf("no default settings at %q", inv.Path.String())
	}
	if err := h.confirm(ctx, inv); err != nil {
		return err
	}
	if err := h.store.Set(ctx, inv.Src.GuildID, inv.Path, def); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpSet, inv.Path, "reset")
}

func (h *Handlers) list(ctx context.Context, inv *Invocation) error {
	value, err := h.store.Get(ctx, inv.Src.GuildID, inv.Path)
	if err != nil {
		return err
	}
	title := inv.Path.String()
	if title == "" {
		title = "all"
	}
	return h.responder.Dump(ctx, inv.Src, title, value)
}

func (h *Handlers) serverLockMessage(ctx context.Context, inv *Invocation) error {
	channel, err := h.parser.Channel(ctx, inv.Src, inv.Arg(0), 0)
	if err != nil {
		return err
	}
	messageID, err := h.parser.Message(ctx, channel.ID, inv.Arg(1))
	if err != nil {
		return err
	}
	emoji, err := h.parser.Emoji(inv.Arg(2))
	if err != nil {
		return err
	}
	if err := h.store.Set(ctx, inv.Src.GuildID, inv.Path, map[string]any{messageID: emoji}); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpSet, inv.Path, messageID+" "+emoji)
}

func (h *Handlers) requestEmoji(ctx context.Context, src chat.Message) (string, error) {
	reply, err := h.collector.Collect(ctx, src, promptEmoji)
	if err != nil {
		return "", err
	}
	return h.parser.Emoji(strings.TrimSpace(reply.Content))
}

func (h *Handlers) requestRole(ctx context.Context, src chat.Message) (string, error) {
	reply, err := h.collector.Collect(ctx, src, promptRole)
	if err != nil {
		return "", err
	}
	if reply.GuildID == "" {
		reply.GuildID = src.GuildID
	}
	role, err := h.parser.Role(ctx, reply, strings.TrimSpace(reply.Content))
	if err != nil {
		return "", err
	}
	return role.ID, nil
}
