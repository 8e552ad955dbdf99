package command

import (
	"guildconf/internal/settings"

	"github.com/bwmarrin/discordgo"
)

// Commands whose enabled and restricted flags can be overridden per guild.
// ask is listed separately because it also carries a message list.
var overridableCommands = []string{"about", "ban", "clear", "invite", "kick", "nickname", "slowmode"}

// Tree builds the routing table for the settings command.
func (h *Handlers) Tree() *Node {
	return branch("settings", "Change the bot configuration for this server",
		h.commandsNode(),
		h.reactionRoleNode(),
		h.serverLockNode(),
		h.streamStatusNode(),
		h.streamNode(settings.FeatureTwitch, "Change settings related to the Twitch feature", h.twitch),
		h.welcomeNode(),
		h.streamNode(settings.FeatureYouTube, "Change settings related to the YouTube feature", h.youtube),
		leaf("reset", "Reset configuration options related to this feature or entire Discord server", h.reset),
	)
}

func (h *Handlers) listNode() *Node {
	return leaf("list", "List the current settings for this feature", h.list)
}

func (h *Handlers) resetNode() *Node {
	return leaf("reset", "Reset configuration options related to this feature", h.reset)
}

func (h *Handlers) boolNode(token, description string) *Node {
	return keyed(token, description, token,
		leaf("true", "Set this setting to true", h.setBool(true)),
		leaf("false", "Set this setting to false", h.setBool(false)),
	)
}

func (h *Handlers) enabledNode() *Node {
	return h.boolNode("enabled", "Enable or disable this feature")
}

func (h *Handlers) channelsNode(token, description string, perms int64) *Node {
	return keyed(token, description, "channels",
		leaf("add", "Add a channel to the list", h.addChannel(perms)),
		leaf("remove", "Remove a channel from the list", h.removeChannel),
		leaf("clear", "Clear the list of channels", h.clearList),
		leaf("reset", "Reset the list of channels", h.reset),
		leaf("list", "Show the list of channels", h.list),
	)
}

func (h *Handlers) messagesNode(requirePlaceholder bool) *Node {
	return keyed("messages", "Modify the list of messages", "messages",
		leaf("add", "Add a response to the list", h.addMessage(requirePlaceholder)),
		leaf("remove", "Remove a response from the list", h.removeMessage),
		leaf("clear", "Clear the list of responses", h.clearList),
		leaf("reset", "Reset the list of responses", h.reset),
		leaf("list", "Show the list of responses", h.list),
	)
}

// at makes a leaf step into the document before it runs.
func at(key string, n *Node) *Node {
	n.Key = &settings.Key{Name: key}
	return n
}

func (h *Handlers) commandsNode() *Node {
	children := []*Node{
		h.listNode(),
		h.resetNode(),
		at("prefix", leaf("prefix", "Set the command prefix for this Discord server", h.setText("prefix"))),
		h.channelsNode("restrictedChannel", "Modify the list of restricted channels", 0),
		indexed("ask", "Change settings related to the ask command",
			h.enabledNode(),
			h.boolNode("restricted", "Enable or disable command restriction to specified channel(s)"),
			h.messagesNode(false),
			h.listNode(),
			h.resetNode(),
		),
	}
	for _, name := range overridableCommands {
		children = append(children, indexed(name, "Change settings related to the "+name+" command",
			h.enabledNode(),
			h.boolNode("restricted", "Enable or disable command restriction to specified channel(s)"),
			h.listNode(),
			h.resetNode(),
		))
	}
	return keyed(settings.FeatureCommands, "Change settings related to commands", settings.FeatureCommands, children...)
}

func (h *Handlers) reactionRoleNode() *Node {
	objects := func(message, reaction, role Handler) []*Node {
		return []*Node{
			leaf("message", "Change the reaction role messages", message),
			leaf("reaction", "Change the reaction role reactions for a specific message", reaction),
			leaf("role", "Change the reaction role roles for a specific message and reaction", role),
		}
	}
	return keyed(settings.FeatureReactionRole, "Change settings related to the Reaction Role feature", settings.FeatureReactionRole,
		h.enabledNode(),
		keyed("messages", "Manage reaction role messages", "messages",
			branch("add", "Add message/reaction/role to reaction role",
				objects(h.addRoleMessage, h.addRoleReaction, h.addRoleRole)...),
			branch("remove", "Remove message/reaction/role from reaction role",
				objects(h.removeRoleMessage, h.removeRoleReaction, h.removeRoleRole)...),
			branch("clear", "Clear messages/reactions/roles from reaction role",
				objects(h.clearRoleMessages, h.clearRoleReactions, h.clearRoleRoles)...),
			h.listNode(),
			h.resetNode(),
		),
		h.listNode(),
		h.resetNode(),
	)
}

func (h *Handlers) serverLockNode() *Node {
	return keyed(settings.FeatureServerLock, "Change settings related to the Server Lock feature", settings.FeatureServerLock,
		h.enabledNode(),
		at("role", leaf("role", "Set the role to lock new members with", h.setRole)),
		at("message", leaf("message", "Set the message for new members to unlock themselves", h.serverLockMessage)),
		h.listNode(),
		h.resetNode(),
	)
}

func (h *Handlers) streamStatusNode() *Node {
	return keyed(settings.FeatureStreamStatus, "Change settings related to the Stream Status feature", settings.FeatureStreamStatus,
		h.enabledNode(),
		at("streamerRole", leaf("streamerRole", "Set a required role to be eligible to get the currently livestreaming role", h.setRole)),
		at("statusRole", leaf("statusRole", "Set the currently livestreaming role", h.setRole)),
		h.listNode(),
		h.resetNode(),
	)
}

func (h *Handlers) streamNode(feature, description string, validator UsernameValidator) *Node {
	return keyed(feature, description, feature,
		h.enabledNode(),
		at("username", leaf("username", "Set the channel username to send out announcements for", h.setUsername(validator))),
		h.channelsNode("channels", "Modify the list of channels", discordgo.PermissionMentionEveryone),
		h.messagesNode(false),
		h.listNode(),
		h.resetNode(),
	)
}

func (h *Handlers) welcomeNode() *Node {
	shared := func(token, description string) *Node {
		return keyed(token, description, token,
			h.enabledNode(),
			h.channelsNode("channels", "Modify the list of channels", 0),
			h.messagesNode(true),
			h.listNode(),
			h.resetNode(),
		)
	}
	return keyed(settings.FeatureWelcomeMessage, "Change settings related to the Welcome Message feature", settings.FeatureWelcomeMessage,
		shared("welcome", "Change settings related to welcome messages"),
		shared("leave", "Change settings related to leave messages"),
		h.listNode(),
		h.resetNode(),
	)
}
