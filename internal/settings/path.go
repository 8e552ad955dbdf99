package settings

import "strings"

const (
	FeatureCommands       = "commands"
	FeatureReactionRole   = "reactionRole"
	FeatureServerLock     = "serverLock"
	FeatureStreamStatus   = "streamStatus"
	FeatureTwitch         = "twitch"
	FeatureWelcomeMessage = "welcomeMessage"
	FeatureYouTube        = "youtube"
)

// Features lists the top-level document keys in display order.
var Features = []string{
	FeatureCommands,
	FeatureReactionRole,
	FeatureServerLock,
	FeatureStreamStatus,
	FeatureTwitch,
	FeatureWelcomeMessage,
	FeatureYouTube,
}

// Key is one step into the settings document. Indexed keys address an entry
// of a keyed collection (a command name, a message id) and render as [name].
type Key struct {
	Name    string
	Indexed bool
}

// Path addresses a subtree of a guild document. The zero value is the
// document root. Paths are values: every builder returns a fresh slice.
type Path []Key

func P(names ...string) Path {
	return Path(nil).Child(names...)
}

func (p Path) Child(names ...string) Path {
	out := make(Path, 0, len(p)+len(names))
	out = append(out, p...)
	for _, name := range names {
		out = append(out, Key{Name: name})
	}
	return out
}

func (p Path) Index(name string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, Key{Name: name, Indexed: true})
}

func (p Path) IsRoot() bool { return len(p) == 0 }

func (p Path) String() string {
	var b strings.Builder
	for i, key := range p {
		switch {
		case key.Indexed:
			b.WriteString("[" + key.Name + "]")
		case i > 0:
			b.WriteString("." + key.Name)
		default:
			b.WriteString(key.Name)
		}
	}
	return b.String()
}

// StoreKey renders the dotted key of p rooted at a guild id.
func StoreKey(guildID string, p Path) string {
	rest := p.String()
	switch {
	case rest == "":
		return guildID
	case p[0].Indexed:
		return guildID + rest
	default:
		return guildID + "." + rest
	}
}
