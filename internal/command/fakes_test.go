package command

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"guildconf/internal/chat"
	"guildconf/internal/mention"
	"guildconf/internal/settings"
	"guildconf/internal/usererr"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const testMessageID = "123456789012345678"

type storeCall struct {
	op    string
	key   string
	value any
}

type fakeStore struct {
	mu    sync.Mutex
	doc   settings.Document
	calls []storeCall
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{doc: settings.Defaults()}
}

func (f *fakeStore) record(op, guildID string, p settings.Path, value any) {
	f.calls = append(f.calls, storeCall{op: op, key: settings.StoreKey(guildID, p), value: value})
}

func (f *fakeStore) Get(_ context.Context, guildID string, p settings.Path) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get", guildID, p, nil)
	value, _ := f.doc.Clone().Get(p)
	return value, f.err
}

func (f *fakeStore) Includes(_ context.Context, guildID string, p settings.Path, value any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("includes", guildID, p, value)
	if f.err != nil {
		return false, f.err
	}
	return f.doc.Includes(p, value)
}

func (f *fakeStore) mutate(op, guildID string, p settings.Path, value any, apply func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(op, guildID, p, value)
	if f.err != nil {
		return f.err
	}
	return apply()
}

func (f *fakeStore) Set(_ context.Context, guildID string, p settings.Path, value any) error {
	return f.mutate("set", guildID, p, value, func() error { return f.doc.Set(p, value) })
}

func (f *fakeStore) Push(_ context.Context, guildID string, p settings.Path, value any, allowDuplicates bool) error {
	return f.mutate("push", guildID, p, value, func() error { return f.doc.Push(p, value, allowDuplicates) })
}

func (f *fakeStore) Remove(_ context.Context, guildID string, p settings.Path, value any) error {
	return f.mutate("remove", guildID, p, value, func() error { return f.doc.Remove(p, value) })
}

func (f *fakeStore) Delete(_ context.Context, guildID string, p settings.Path) error {
	return f.mutate("delete", guildID, p, nil, func() error { return f.doc.Delete(p) })
}

func (f *fakeStore) Ensure(_ context.Context, guildID string, p settings.Path, value any) error {
	return f.mutate("ensure", guildID, p, value, func() error { return f.doc.Ensure(p, value) })
}

// mutations returns the writing calls only.
func (f *fakeStore) mutations() []storeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storeCall
	for _, c := range f.calls {
		if c.op != "get" && c.op != "includes" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeStore) value(p settings.Path) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, _ := f.doc.Get(p)
	return settings.Normalize(value)
}

type fakeDirectory struct{}

func (fakeDirectory) Role(_ context.Context, _, roleID string) (*discordgo.Role, error) {
	switch roleID {
	case "10":
		return &discordgo.Role{ID: "10", Position: 2}, nil
	case "11":
		return &discordgo.Role{ID: "11", Position: 9}, nil
	}
	return nil, nil
}

func (fakeDirectory) BotTopRolePosition(context.Context, string) (int, error) { return 5, nil }

func (fakeDirectory) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	switch channelID {
	case "20", "111":
		return &discordgo.Channel{ID: channelID, GuildID: "g1"}, nil
	}
	return nil, nil
}

func (fakeDirectory) BotChannelPermissions(_ context.Context, channelID string) (int64, error) {
	if channelID == "111" {
		return discordgo.PermissionViewChannel | discordgo.PermissionManageMessages, nil
	}
	return mention.BaselineChannelPermissions | discordgo.PermissionMentionEveryone, nil
}

func (fakeDirectory) MessageExists(_ context.Context, channelID, messageID string) (bool, error) {
	return channelID == "20" && messageID == testMessageID, nil
}

type fakeCollector struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeCollector) Collect(_ context.Context, src chat.Message, prompt string) (chat.Message, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return chat.Message{}, f.err
	}
	if len(f.replies) == 0 {
		return chat.Message{}, usererr.New(usererr.NoResponseInTime, "")
	}
	content := f.replies[0]
	f.replies = f.replies[1:]
	return newSource(src.GuildID, content), nil
}

type fakeGate struct {
	err   error
	calls int
}

func (f *fakeGate) Confirm(context.Context, chat.Message, string) error {
	f.calls++
	return f.err
}

type fakeResponder struct {
	listings  [][]Option
	successes int
	failures  []string
	dumps     []string
}

func (f *fakeResponder) Listing(_ context.Context, _ chat.Message, options []Option) error {
	f.listings = append(f.listings, options)
	return nil
}

func (f *fakeResponder) Success(context.Context, chat.Message) error {
	f.successes++
	return nil
}

func (f *fakeResponder) Failure(_ context.Context, _ chat.Message, message string) error {
	f.failures = append(f.failures, message)
	return nil
}

func (f *fakeResponder) Dump(_ context.Context, _ chat.Message, title string, _ any) error {
	f.dumps = append(f.dumps, title)
	return nil
}

type fakeAuditor struct {
	paths []string
}

func (f *fakeAuditor) Log(_ context.Context, _, _, _, path, _ string) {
	f.paths = append(f.paths, path)
}

type fakeValidator struct {
	known map[string]string
}

func (f fakeValidator) Validate(_ context.Context, username string) (string, error) {
	if name, ok := f.known[strings.ToLower(username)]; ok {
		return name, nil
	}
	return "", usererr.New(usererr.InvalidArgument, "username")
}

var (
	roleMentionPattern    = regexp.MustCompile(`<@&(\d+)>`)
	channelMentionPattern = regexp.MustCompile(`<#(\d+)>`)
)

func newSource(guildID, content string) chat.Message {
	msg := chat.Message{ID: "m1", GuildID: guildID, ChannelID: "c1", AuthorID: "u1", Content: content}
	for _, m := range roleMentionPattern.FindAllStringSubmatch(content, -1) {
		msg.RoleMentions = append(msg.RoleMentions, m[1])
	}
	for _, m := range channelMentionPattern.FindAllStringSubmatch(content, -1) {
		msg.ChannelMentions = append(msg.ChannelMentions, m[1])
	}
	return msg
}

type harness struct {
	store     *fakeStore
	collector *fakeCollector
	gate      *fakeGate
	responder *fakeResponder
	audit     *fakeAuditor
	handlers  *Handlers
	router    *Router
}

func newHarness() *harness {
	h := &harness{
		store:     newFakeStore(),
		collector: &fakeCollector{},
		gate:      &fakeGate{},
		responder: &fakeResponder{},
		audit:     &fakeAuditor{},
	}
	h.handlers = NewHandlers(Deps{
		Store:     h.store,
		Parser:    mention.NewParser(fakeDirectory{}),
		Collector: h.collector,
		Gate:      h.gate,
		Responder: h.responder,
		Audit:     h.audit,
		Twitch:    fakeValidator{known: map[string]string{"ninja": "ninja"}},
		YouTube:   fakeValidator{known: map[string]string{"linustechtips": "LinusTechTips", "linus tech tips": "UCspaced"}},
		Logger:    zap.NewNop(),
	})
	h.router = NewRouter(h.handlers.Tree(), h.responder, zap.NewNop())
	return h
}

func (h *harness) run(tokens ...string) error {
	src := newSource("g1", "!settings "+strings.Join(tokens, " "))
	return h.router.Dispatch(context.Background(), src, tokens)
}

var errBackend = errors.New("backend down")
