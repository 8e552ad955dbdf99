package command

import (
	"context"

	"guildconf/internal/audit"
	"guildconf/internal/settings"
)

// Reaction role handlers run at reactionRole.messages. Arguments are
// validated in a fixed order: message, then emoji, then role.

func (h *Handlers) addReactionRole(ctx context.Context, inv *Invocation, messageID, emoji, roleID string) error {
	p := inv.Path.Index(messageID).Index(emoji)
	if err := h.store.Ensure(ctx, inv.Src.GuildID, p, []any{}); err != nil {
		return err
	}
	if err := h.store.Push(ctx, inv.Src.GuildID, p, roleID, false); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpPush, p, roleID)
}

// addRoleMessage collects the emoji and the role interactively.
func (h *Handlers) addRoleMessage(ctx context.Context, inv *Invocation) error {
	messageID, err := h.parser.Message(ctx, "", inv.Arg(0))
	if err != nil {
		return err
	}
	emoji, err := h.requestEmoji(ctx, inv.Src)
	if err != nil {
		return err
	}
	roleID, err := h.requestRole(ctx, inv.Src)
	if err != nil {
		return err
	}
	return h.addReactionRole(ctx, inv, messageID, emoji, roleID)
}

func (h *Handlers) addRoleReaction(ctx context.Context, inv *Invocation) error {
	messageID, err := h.parser.Message(ctx, "", inv.Arg(0))
	if err != nil {
		return err
	}
	emoji, err := h.parser.Emoji(inv.Arg(1))
	if err != nil {
		return err
	}
	roleID, err := h.requestRole(ctx, inv.Src)
	if err != nil {
		return err
	}
	return h.addReactionRole(ctx, inv, messageID, emoji, roleID)
}

func (h *Handlers) addRoleRole(ctx context.Context, inv *Invocation) error {
	messageID, err := h.parser.Message(ctx, "", inv.Arg(0))
	if err != nil {
		return err
	}
	emoji, err := h.parser.Emoji(inv.Arg(1))
	if err != nil {
		return err
	}
	role, err := h.parser.Role(ctx, inv.Src, inv.Arg(2))
	if err != nil {
		return err
	}
	return h.addReactionRole(ctx, inv, messageID, emoji, role.ID)
}

func (h *Handlers) removeRoleMessage(ctx context.Context, inv *Invocation) error {
	messageID, err := h.parser.Message(ctx, "", inv.Arg(0))
	if err != nil {
		return err
	}
	if err := h.confirm(ctx, inv); err != nil {
		return err
	}
	return h.deleteKey(ctx, inv, inv.Path.Index(messageID))
}

func (h *Handlers) removeRoleReaction(ctx context.Context, inv *Invocation) error {
	messageID, err := h.parser.Message(ctx, "", inv.Arg(0))
	if err != nil {
		return err
	}
	emoji, err := h.parser.Emoji(inv.Arg(1))
	if err != nil {
		return err
	}
	if err := h.confirm(ctx, inv); err != nil {
		return err
	}
	return h.deleteKey(ctx, inv, inv.Path.Index(messageID).Index(emoji))
}

func (h *Handlers) removeRoleRole(ctx context.Context, inv *Invocation) error {
	messageID, err := h.parser.Message(ctx, "", inv.Arg(0))
	if err != nil {
		return err
	}
	emoji, err := h.parser.Emoji(inv.Arg(1))
	if err != nil {
		return err
	}
	role, err := h.parser.Role(ctx, inv.Src, inv.Arg(2))
	if err != nil {
		return err
	}
	if err := h.confirm(ctx, inv); err != nil {
		return err
	}
	p := inv.Path.Index(messageID).Index(emoji)
	if err := h.store.Remove(ctx, inv.Src.GuildID, p, role.ID); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpRemove, p, role.ID)
}

func (h *Handlers) clearRoleMessages(ctx context.Context, inv *Invocation) error {
	if err := h.confirm(ctx, inv); err != nil {
		return err
	}
	return h.setEmpty(ctx, inv, inv.Path, map[string]any{})
}

func (h *Handlers) clearRoleReactions(ctx context.Context, inv *Invocation) error {
	messageID, err := h.parser.Message(ctx, "", inv.Arg(0))
	if err != nil {
		return err
	}
	if err := h.confirm(ctx, inv); err != nil {
		return err
	}
	return h.setEmpty(ctx, inv, inv.Path.Index(messageID), map[string]any{})
}

func (h *Handlers) clearRoleRoles(ctx context.Context, inv *Invocation) error {
	messageID, err := h.parser.Message(ctx, "", inv.Arg(0))
	if err != nil {
		return err
	}
	emoji, err := h.parser.Emoji(inv.Arg(1))
	if err != nil {
		return err
	}
	if err := h.confirm(ctx, inv); err != nil {
		return err
	}
	return h.setEmpty(ctx, inv, inv.Path.Index(messageID).Index(emoji), []any{})
}

func (h *Handlers) deleteKey(ctx context.Context, inv *Invocation, p settings.Path) error {
	if err := h.store.Delete(ctx, inv.Src.GuildID, p); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpDelete, p, "")
}

func (h *Handlers) setEmpty(ctx context.Context, inv *Invocation, p settings.Path, empty any) error {
	if err := h.store.Set(ctx, inv.Src.GuildID, p, empty); err != nil {
		return err
	}
	return h.commit(ctx, inv, audit.OpSet, p, "cleared")
}
