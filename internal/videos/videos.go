// Package videos searches YouTube for videos related to a topic.
package videos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// ErrNoAPIKey is returned by NewClient when no key is configured.
var ErrNoAPIKey = errors.New("YouTube API key not set")

const (
	videoKind    = "youtube#video"
	watchURLBase = "https://www.youtube.com/watch?v="
)

// searcher runs one search request.
type searcher interface {
	search(ctx context.Context, query string, max int64) (*youtube.SearchListResponse, error)
}

type youtubeSearcher struct {
	svc *youtube.Service
}

func (y youtubeSearcher) search(ctx context.Context, query string, max int64) (*youtube.SearchListResponse, error) {
	return y.svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		MaxResults(max).
		Type("video").
		RelevanceLanguage("en").
		SafeSearch("strict").
		Context(ctx).
		Do()
}

// Opts holds configuration options for the video client.
type Opts struct {
	Timeout       time.Duration
	ClientOptions []option.ClientOption
}

// Option defines a function that modifies Opts.
type Option func(*Opts)

// WithTimeout bounds each search request.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithClientOptions passes extra options to the YouTube service.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *Opts) { o.ClientOptions = append(o.ClientOptions, opts...) }
}

// Client searches videos with a server-held API key.
type Client struct {
	searcher searcher
	timeout  time.Duration
}

// NewClient creates a YouTube search client.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	var o Opts
	for _, opt := range opts {
		opt(&o)
	}
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, o.ClientOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &Client{searcher: youtubeSearcher{svc: svc}, timeout: o.Timeout}, nil
}

// Search returns up to max videos for query, in the order ranked by the API.
// Any API error is logged and yields an empty result.
func (c *Client) Search(ctx context.Context, query string, max int64) []models.Video {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.searcher.search(ctx, query, max)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			slog.Error("Videos.Search: API error", "code", gerr.Code, "message", gerr.Message)
		} else {
			slog.Error("Videos.Search: request failed", "error", err)
		}
		return []models.Video{}
	}

	out := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.Kind != videoKind || item.Snippet == nil {
			continue
		}
		v := models.Video{
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			VideoID:     item.Id.VideoId,
			URL:         watchURLBase + item.Id.VideoId,
		}
		if th := item.Snippet.Thumbnails; th != nil && th.Medium != nil {
			v.ThumbnailURL = th.Medium.Url
		}
		out = append(out, v)
	}
	slog.Debug("Videos.Search: search complete", "query", query, "count", len(out))
	return out
}
