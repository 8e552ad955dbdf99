package reactionrole

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"guildconf/internal/settings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSettings struct {
	doc settings.Document
}

func (f fakeSettings) Get(_ context.Context, _ string, p settings.Path) (any, error) {
	value, _ := f.doc.Clone().Get(p)
	return value, nil
}

type fakeDirectory struct {
	canManage bool
	top       int
	roles     map[string]int
	guildErr  error
	added     [][]string
	removed   [][]string
}

func (f *fakeDirectory) GuildOfChannel(context.Context, string) (string, error) {
	if f.guildErr != nil {
		return "", f.guildErr
	}
	return "g1", nil
}

func (f *fakeDirectory) BotHasGuildPermission(context.Context, string, int64) (bool, error) {
	return f.canManage, nil
}

func (f *fakeDirectory) Role(_ context.Context, _, roleID string) (*discordgo.Role, error) {
	pos, ok := f.roles[roleID]
	if !ok {
		return nil, nil
	}
	return &discordgo.Role{ID: roleID, Position: pos}, nil
}

func (f *fakeDirectory) BotTopRolePosition(context.Context, string) (int, error) {
	return f.top, nil
}

func (f *fakeDirectory) AddMemberRoles(_ context.Context, _, _ string, roleIDs []string) error {
	f.added = append(f.added, roleIDs)
	return nil
}

func (f *fakeDirectory) RemoveMemberRoles(_ context.Context, _, _ string, roleIDs []string) error {
	f.removed = append(f.removed, roleIDs)
	return nil
}

const messageID = "123456789012345678"

func newSettings(enabled bool) fakeSettings {
	doc := settings.Defaults()
	_ = doc.Set(settings.P("reactionRole", "enabled"), enabled)
	_ = doc.Set(settings.P("reactionRole", "messages", messageID, "🎉"), []any{"10", "11"})
	_ = doc.Set(settings.P("reactionRole", "messages", messageID, "223456789012345678"), []any{"12"})
	return fakeSettings{doc: doc}
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{canManage: true, top: 5, roles: map[string]int{"10": 1, "11": 2, "12": 3, "99": 7}}
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func TestAddAppliesAllRolesAtOnce(t *testing.T) {
	dir := newDirectory()
	h := NewHandler(newSettings(true), dir, zap.NewNop())

	h.Add(context.Background(), Reaction{GuildID: "g1", MessageID: messageID, UserID: "u1", EmojiName: "🎉"})
	if len(dir.added) != 1 || !reflect.DeepEqual(dir.added[0], []string{"10", "11"}) {
		t.Fatalf("expected one batch of both roles, got %v", dir.added)
	}
}

func TestRemoveUsesCustomEmojiID(t *testing.T) {
	dir := newDirectory()
	h := NewHandler(newSettings(true), dir, zap.NewNop())

	h.Remove(context.Background(), Reaction{GuildID: "g1", MessageID: messageID, UserID: "u1", EmojiID: "223456789012345678", EmojiName: "party"})
	if len(dir.removed) != 1 || !reflect.DeepEqual(dir.removed[0], []string{"12"}) {
		t.Fatalf("expected role 12 removed, got %v", dir.removed)
	}
}

func TestDisabledOrUnmappedDoesNothing(t *testing.T) {
	dir := newDirectory()
	NewHandler(newSettings(false), dir, zap.NewNop()).
		Add(context.Background(), Reaction{GuildID: "g1", MessageID: messageID, UserID: "u1", EmojiName: "🎉"})
	NewHandler(newSettings(true), dir, zap.NewNop()).
		Add(context.Background(), Reaction{GuildID: "g1", MessageID: messageID, UserID: "u1", EmojiName: "👍"})
	if len(dir.added) != 0 {
		t.Fatalf("expected no role changes, got %v", dir.added)
	}
}

func TestMissingManageRolesIsLogged(t *testing.T) {
	dir := newDirectory()
	dir.canManage = false
	logger, logs := observed()
	NewHandler(newSettings(true), dir, logger).
		Add(context.Background(), Reaction{GuildID: "g1", MessageID: messageID, UserID: "u1", EmojiName: "🎉"})

	if len(dir.added) != 0 {
		t.Fatalf("expected no role changes")
	}
	if logs.FilterMessage("missing manage roles permission for reaction role").Len() != 1 {
		t.Fatalf("expected a warning, got %v", logs.All())
	}
}

func TestOneHighRoleAbortsWholeBatch(t *testing.T) {
	dir := newDirectory()
	dir.roles["11"] = 5
	logger, logs := observed()
	NewHandler(newSettings(true), dir, logger).
		Add(context.Background(), Reaction{GuildID: "g1", MessageID: messageID, UserID: "u1", EmojiName: "🎉"})

	if len(dir.added) != 0 {
		t.Fatalf("no role may be applied when one fails the hierarchy check, got %v", dir.added)
	}
	entries := logs.FilterMessage("reaction role is not below the bot's highest role").All()
	if len(entries) != 1 || entries[0].ContextMap()["role_id"] != "11" {
		t.Fatalf("expected a warning for role 11, got %v", logs.All())
	}
}

func TestPartialReactionResolvesGuild(t *testing.T) {
	dir := newDirectory()
	h := NewHandler(newSettings(true), dir, zap.NewNop())
	h.Add(context.Background(), Reaction{ChannelID: "c1", MessageID: messageID, UserID: "u1", EmojiName: "🎉"})
	if len(dir.added) != 1 {
		t.Fatalf("expected roles applied after resolving guild")
	}

	dir = newDirectory()
	dir.guildErr = errors.New("unknown channel")
	logger, logs := observed()
	NewHandler(newSettings(true), dir, logger).
		Add(context.Background(), Reaction{ChannelID: "c1", MessageID: messageID, UserID: "u1", EmojiName: "🎉"})
	if len(dir.added) != 0 || logs.FilterMessage("failed to resolve partial reaction").Len() != 1 {
		t.Fatalf("expected the event to be dropped with an error log")
	}
}

func TestHeartMatchesWithOrWithoutSelector(t *testing.T) {
	doc := settings.Defaults()
	_ = doc.Set(settings.P("reactionRole", "enabled"), true)
	_ = doc.Set(settings.P("reactionRole", "messages", messageID, "❤"), []any{"10"})
	_ = doc.Set(settings.P("reactionRole", "messages", "223456789012345678", "❤\uFE0F"), []any{"11"})

	dir := newDirectory()
	h := NewHandler(fakeSettings{doc: doc}, dir, zap.NewNop())
	h.Add(context.Background(), Reaction{GuildID: "g1", MessageID: messageID, UserID: "u1", EmojiName: "❤\uFE0F"})
	h.Add(context.Background(), Reaction{GuildID: "g1", MessageID: "223456789012345678", UserID: "u1", EmojiName: "❤"})

	if len(dir.added) != 2 || dir.added[0][0] != "10" || dir.added[1][0] != "11" {
		t.Fatalf("expected both heart forms to match, got %v", dir.added)
	}
}
