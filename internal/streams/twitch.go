// Package streams checks that Twitch and YouTube channels named in the
// settings actually exist.
package streams

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"guildconf/internal/usererr"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var twitchLoginPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{4,25}$`)

const (
	DefaultTwitchAPIBase  = "https://api.twitch.tv/helix"
	DefaultTwitchTokenURL = "https://id.twitch.tv/oauth2/token"
)

type TwitchConfig struct {
	ClientID     string
	ClientSecret string
	APIBase      string
	TokenURL     string
}

// Twitch resolves logins through the Helix users endpoint using an app
// access token.
type Twitch struct {
	clientID string
	apiBase  string
	client   *http.Client
	logger   *zap.Logger
}

func NewTwitch(cfg TwitchConfig, logger *zap.Logger) *Twitch {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTwitchAPIBase
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTwitchTokenURL
	}
	t := &Twitch{
		clientID: cfg.ClientID,
		apiBase:  strings.TrimRight(cfg.APIBase, "/"),
		logger:   logger,
	}
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		creds := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		t.client = creds.Client(context.Background())
		t.client.Timeout = 10 * time.Second
	}
	return t
}

type twitchUsers struct {
	Data []struct {
		ID          string `json:"id"`
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

// Validate returns the channel's login as Twitch spells it.
func (t *Twitch) Validate(ctx context.Context, username string) (string, error) {
	if !twitchLoginPattern.MatchString(username) {
		return "", usererr.New(usererr.InvalidArgument, "username")
	}
	if t.client == nil {
		t.logger.Warn("twitch credentials not configured, accepting username unchecked", zap.String("username", username))
		return strings.ToLower(username), nil
	}

	endpoint := t.apiBase + "/users?login=" + url.QueryEscape(strings.ToLower(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Client-Id", t.clientID)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitch users lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("twitch users lookup: unexpected status %d", resp.StatusCode)
	}

	var users twitchUsers
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return "", fmt.Errorf("decode twitch users: %w", err)
	}
	if len(users.Data) == 0 {
		return "", usererr.New(usererr.InvalidArgument, "username")
	}
	return users.Data[0].Login, nil
}
