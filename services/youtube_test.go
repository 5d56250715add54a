package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tastemichigan/api-go/config"
)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Taste Michigan</title>
 <entry>
  <id>yt:video:AAAAAAAAAAA</id>
  <yt:videoId>AAAAAAAAAAA</yt:videoId>
  <title>Older Episode</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=AAAAAAAAAAA"/>
  <published>2026-01-01T10:00:00+00:00</published>
  <media:group>
   <media:title>Older Episode</media:title>
   <media:description>Pasties &amp; pie in the UP</media:description>
  </media:group>
 </entry>
 <entry>
  <id>yt:video:BBBBBBBBBBB</id>
  <title>Newest Episode</title>
  <link rel="alternate" href="https://youtu.be/BBBBBBBBBBB"/>
  <published>2026-02-01T10:00:00+00:00</published>
  <media:group>
   <media:description>Coney dogs</media:description>
  </media:group>
 </entry>
 <entry>
  <title>Middle Episode</title>
  <link rel="alternate" href="https://example.com/about"/>
  <published>2026-01-15T10:00:00+00:00</published>
 </entry>
</feed>`

const rssFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Show</title>
 <item>
  <title>Episode One</title>
  <link>https://www.youtube.com/watch?v=CCCCCCCCCCC&amp;t=5</link>
  <pubDate>Mon, 02 Mar 2026 15:04:05 +0000</pubDate>
  <description>&lt;b&gt;Whitefish&lt;/b&gt; on the lake</description>
 </item>
</channel></rss>`

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEpisodeAdapterAtom(t *testing.T) {
	srv := feedServer(t, atomFeed)
	adapter := NewEpisodeAdapter(config.YouTubeConfig{FeedURL: srv.URL, Timeout: time.Second}, srv.Client())

	episodes, err := adapter.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("got %d episodes, want 3", len(episodes))
	}

	wantOrder := []string{"BBBBBBBBBBB", "video-2", "AAAAAAAAAAA"}
	for i, id := range wantOrder {
		if episodes[i].ID != id {
			t.Errorf("episode %d id = %q, want %q", i, episodes[i].ID, id)
		}
	}

	newest := episodes[0]
	if newest.ThumbnailURL != "https://i.ytimg.com/vi/BBBBBBBBBBB/hqdefault.jpg" {
		t.Errorf("ThumbnailURL = %q", newest.ThumbnailURL)
	}
	if newest.Description != "Coney dogs" || newest.Title != "Newest Episode" {
		t.Errorf("newest = %+v", newest)
	}
	if episodes[2].Description != "Pasties & pie in the UP" {
		t.Errorf("media description = %q", episodes[2].Description)
	}
	if episodes[1].ThumbnailURL != "" {
		t.Errorf("placeholder episode should have no thumbnail, got %q", episodes[1].ThumbnailURL)
	}
}

func TestEpisodeAdapterLimit(t *testing.T) {
	srv := feedServer(t, atomFeed)
	adapter := NewEpisodeAdapter(config.YouTubeConfig{FeedURL: srv.URL, Timeout: time.Second}, srv.Client())

	episodes, err := adapter.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(episodes) != 1 || episodes[0].ID != "BBBBBBBBBBB" {
		t.Errorf("limited episodes = %+v", episodes)
	}
}

func TestEpisodeAdapterRSS(t *testing.T) {
	srv := feedServer(t, rssFeed)
	adapter := NewEpisodeAdapter(config.YouTubeConfig{FeedURL: srv.URL, Timeout: time.Second}, srv.Client())

	episodes, err := adapter.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	ep := episodes[0]
	if ep.ID != "CCCCCCCCCCC" {
		t.Errorf("ID = %q", ep.ID)
	}
	if ep.Description != "Whitefish on the lake" {
		t.Errorf("Description = %q", ep.Description)
	}
	if ep.PublishedAt.IsZero() {
		t.Error("pubDate not parsed")
	}
}

func TestEpisodeAdapterFailures(t *testing.T) {
	adapter := NewEpisodeAdapter(config.YouTubeConfig{Timeout: time.Second}, nil)
	if _, err := adapter.Fetch(context.Background(), 5); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("unconfigured error = %v, want ErrNotConfigured", err)
	}

	srv := feedServer(t, `<feed xmlns="http://www.w3.org/2005/Atom"><title>Empty</title></feed>`)
	adapter = NewEpisodeAdapter(config.YouTubeConfig{FeedURL: srv.URL, Timeout: time.Second}, srv.Client())
	if _, err := adapter.Fetch(context.Background(), 5); !errors.Is(err, ErrEmptyFeed) {
		t.Errorf("empty feed error = %v, want ErrEmptyFeed", err)
	}
}

func TestEpisodeDescriptionTruncated(t *testing.T) {
	long := strings.Repeat("word ", 100)
	srv := feedServer(t, `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/"><entry><title>T</title>
		<link href="https://youtu.be/DDDDDDDDDDD"/><published>2026-01-01T00:00:00Z</published>
		<media:group><media:description>`+long+`</media:description></media:group></entry></feed>`)
	adapter := NewEpisodeAdapter(config.YouTubeConfig{FeedURL: srv.URL, Timeout: time.Second}, srv.Client())

	episodes, err := adapter.Fetch(context.Background(), 5)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if d := episodes[0].Description; len(d) != DescriptionLimit+3 || !strings.HasSuffix(d, "...") {
		t.Errorf("description length = %d, suffix %q", len(d), d[len(d)-3:])
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL1", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?t=30", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/about", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractVideoID(tt.link); got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
