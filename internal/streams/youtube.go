package streams

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guildconf/internal/usererr"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeTimeout = 10 * time.Second

type YouTubeConfig struct {
	APIKey string
	// APIBase overrides the Data API endpoint, e.g. for tests.
	APIBase string
}

// YouTube resolves a legacy username or a channel id to the channel id.
type YouTube struct {
	service *youtube.Service
	logger  *zap.Logger
}

// NewYouTube builds the Data API client. Without an API key no client is
// built and names are accepted unchecked.
func NewYouTube(ctx context.Context, cfg YouTubeConfig, logger *zap.Logger) (*YouTube, error) {
	y := &YouTube{logger: logger}
	if cfg.APIKey == "" {
		return y, nil
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.APIBase != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.APIBase, "/")+"/"))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}
	y.service = service
	return y, nil
}

func (y *YouTube) Validate(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", usererr.New(usererr.MissingArgument, "username")
	}
	if y.service == nil {
		y.logger.Warn("youtube api key not configured, accepting username unchecked", zap.String("username", username))
		return username, nil
	}

	ctx, cancel := context.WithTimeout(ctx, youtubeTimeout)
	defer cancel()

	lookups := []func(*youtube.ChannelsListCall) *youtube.ChannelsListCall{
		func(call *youtube.ChannelsListCall) *youtube.ChannelsListCall { return call.ForUsername(username) },
		func(call *youtube.ChannelsListCall) *youtube.ChannelsListCall { return call.Id(username) },
	}
	for _, lookup := range lookups {
		resp, err := lookup(y.service.Channels.List([]string{"id"})).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("youtube channels lookup: %w", err)
		}
		if len(resp.Items) > 0 {
			return resp.Items[0].Id, nil
		}
	}
	return "", usererr.New(usererr.InvalidArgument, "username")
}
