package services

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tastemichigan/api-go/config"
	"github.com/tastemichigan/api-go/types"
)

const (
	DefaultEpisodeLimit = 12
	MaxEpisodeLimit     = 50

	thumbnailPattern = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
	watchPattern     = "https://www.youtube.com/watch?v=%s"
)

// videoIDPattern matches watch?v=ID and short /ID links.
var videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:$|[?&#/])`)

// EpisodeAdapter reads the show's YouTube feed. It never substitutes sample
// data: an unconfigured or empty feed is an error.
type EpisodeAdapter struct {
	feedURL string
	fetcher *Fetcher
}

func NewEpisodeAdapter(cfg config.YouTubeConfig, client *http.Client) *EpisodeAdapter {
	return &EpisodeAdapter{feedURL: cfg.ResolvedFeedURL(), fetcher: NewFetcher("youtube", cfg.Timeout, client)}
}

// Fetch returns feed episodes newest first, capped at limit.
func (a *EpisodeAdapter) Fetch(ctx context.Context, limit int) ([]types.Episode, error) {
	if a.feedURL == "" {
		return nil, fmt.Errorf("youtube feed: %w", ErrNotConfigured)
	}

	body, err := a.fetcher.Get(ctx, a.feedURL, http.Header{"Accept": {"application/atom+xml, application/rss+xml, application/xml"}})
	if err != nil {
		return nil, err
	}

	entries, err := parseFeed(body)
	if err != nil {
		return nil, &UpstreamError{Source: "youtube", URL: a.feedURL, Err: err}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("youtube feed %s: %w", a.feedURL, ErrEmptyFeed)
	}

	episodes := make([]types.Episode, len(entries))
	for i, e := range entries {
		episodes[i] = e.toEpisode(i)
	}
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].PublishedAt.After(episodes[j].PublishedAt)
	})

	if limit > 0 && len(episodes) > limit {
		episodes = episodes[:limit]
	}
	return episodes, nil
}

// feedDocument covers both Atom (<feed><entry>) and RSS (<rss><channel><item>).
type feedDocument struct {
	Entries []feedEntry `xml:"entry"`
	Channel struct {
		Items []feedEntry `xml:"item"`
	} `xml:"channel"`
}

type feedEntry struct {
	Title     string     `xml:"title"`
	Links     []feedLink `xml:"link"`
	VideoID   string     `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	PubDate   string     `xml:"pubDate"`
	Media     struct {
		Description string `xml:"http://search.yahoo.com/mrss/ description"`
	} `xml:"http://search.yahoo.com/mrss/ group"`
	Description string `xml:"description"`
	Content     string `xml:"content"`
	Encoded     string `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
}

type feedLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

func parseFeed(body []byte) ([]feedEntry, error) {
	var doc feedDocument
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	if len(doc.Entries) > 0 {
		return doc.Entries, nil
	}
	return doc.Channel.Items, nil
}

func (e feedEntry) link() string {
	for _, l := range e.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			if href := strings.TrimSpace(firstNonEmpty(l.Href, l.Text)); href != "" {
				return href
			}
		}
	}
	return ""
}

func (e feedEntry) toEpisode(index int) types.Episode {
	link := e.link()
	id := ExtractVideoID(link)
	if id == "" {
		id = strings.TrimSpace(e.VideoID)
	}

	ep := types.Episode{
		Title:       CleanText(e.Title),
		Description: CleanDescription(firstNonEmpty(strings.TrimSpace(e.Media.Description), strings.TrimSpace(e.Description), strings.TrimSpace(firstNonEmpty(e.Content, e.Encoded)))),
		VideoURL:    link,
		PublishedAt: parseFeedTime(firstNonEmpty(e.Published, e.PubDate, e.Updated)),
	}

	if id == "" {
		ep.ID = fmt.Sprintf("video-%d", index)
		return ep
	}
	ep.ID = id
	ep.ThumbnailURL = fmt.Sprintf(thumbnailPattern, id)
	if ep.VideoURL == "" {
		ep.VideoURL = fmt.Sprintf(watchPattern, id)
	}
	return ep
}

// ExtractVideoID pulls the 11 character video id out of a watch or short link.
func ExtractVideoID(link string) string {
	m := videoIDPattern.FindStringSubmatch(link)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

var feedTimeLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

func parseFeedTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
