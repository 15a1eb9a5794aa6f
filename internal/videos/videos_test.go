package videos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/BTreeMap/HerSpace/internal/models"
)

type fakeSearcher struct {
	resp  *youtube.SearchListResponse
	err   error
	query string
	max   int64
}

func (f *fakeSearcher) search(ctx context.Context, query string, max int64) (*youtube.SearchListResponse, error) {
	f.query = query
	f.max = max
	return f.resp, f.err
}

func result(kind, id, title string) *youtube.SearchResult {
	return &youtube.SearchResult{
		Id: &youtube.ResourceId{Kind: kind, VideoId: id},
		Snippet: &youtube.SearchResultSnippet{
			Title:       title,
			Description: title + " description",
			Thumbnails:  &youtube.ThumbnailDetails{Medium: &youtube.Thumbnail{Url: "https://i.ytimg.com/vi/" + id + "/mqdefault.jpg"}},
		},
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSearch_MapsVideos(t *testing.T) {
	fs := &fakeSearcher{resp: &youtube.SearchListResponse{Items: []*youtube.SearchResult{
		result(videoKind, "a1", "First"),
		result("youtube#channel", "c1", "A channel"),
		result(videoKind, "b2", "Second"),
	}}}
	c := &Client{searcher: fs}

	got := c.Search(context.Background(), "deal with Domestic Violence problems", 5)
	require.Len(t, got, 2)
	assert.Equal(t, models.Video{
		Title:        "First",
		Description:  "First description",
		VideoID:      "a1",
		URL:          "https://www.youtube.com/watch?v=a1",
		ThumbnailURL: "https://i.ytimg.com/vi/a1/mqdefault.jpg",
	}, got[0])
	assert.Equal(t, "b2", got[1].VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=b2", got[1].URL)
	assert.Equal(t, "deal with Domestic Violence problems", fs.query)
	assert.Equal(t, int64(5), fs.max)
}

func TestSearch_ErrorYieldsEmpty(t *testing.T) {
	for _, err := range []error{
		&googleapi.Error{Code: 403, Message: "quotaExceeded"},
		errors.New("connection refused"),
	} {
		c := &Client{searcher: &fakeSearcher{err: err}}
		got := c.Search(context.Background(), "q", 5)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestSearch_MissingThumbnail(t *testing.T) {
	item := result(videoKind, "a1", "First")
	item.Snippet.Thumbnails = nil
	c := &Client{searcher: &fakeSearcher{resp: &youtube.SearchListResponse{Items: []*youtube.SearchResult{item}}}}

	got := c.Search(context.Background(), "q", 5)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ThumbnailURL)
}

func TestSearch_OverHTTP(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":          q.Get("q"),
			"maxResults": q.Get("maxResults"),
			"type":       q.Get("type"),
			"safeSearch": q.Get("safeSearch"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"xyz"},"snippet":{"title":"Healing","description":"d","thumbnails":{"medium":{"url":"https://img/xyz"}}}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "test-key",
		WithClientOptions(option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client())))
	require.NoError(t, err)

	got := c.Search(context.Background(), "deal with stress problems", 3)
	require.Len(t, got, 1)
	assert.Equal(t, "xyz", got[0].VideoID)
	assert.Equal(t, "https://img/xyz", got[0].ThumbnailURL)
	assert.Equal(t, "deal with stress problems", gotQuery["q"])
	assert.Equal(t, "3", gotQuery["maxResults"])
	assert.Equal(t, "video", gotQuery["type"])
	assert.Equal(t, "strict", gotQuery["safeSearch"])
}

func TestSearch_HTTPErrorYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "test-key",
		WithClientOptions(option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client())))
	require.NoError(t, err)
	assert.Empty(t, c.Search(context.Background(), "q", 3))
}
