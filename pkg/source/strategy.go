package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/newsdraft/pkg/domain"
)

// Strategy fetches raw items of a single source kind
type Strategy interface {
	Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error)
}

var hashtagRe = regexp.MustCompile(`#(\p{L}[\p{L}\p{N}_]*)`)

// FeedStrategy reads RSS/Atom/JSON feeds, or pages advertising one
type FeedStrategy struct {
	Parser *Parser
}

// Fetch parses the feed of the source
func (s *FeedStrategy) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	feed, err := s.Parser.Parse(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	return feedItems(feed, src, feed.Title), nil
}

// SocialStrategy reads social handles and tags through an RSS bridge.
// HandleURL and TagURL are templates with {handle} and {tag} placeholders.
type SocialStrategy struct {
	Parser    *Parser
	HandleURL string
	TagURL    string
}

// Fetch resolves the handle or tag to a bridge feed and parses it
func (s *SocialStrategy) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	var feedURL, fallbackTitle string
	switch src.Kind {
	case domain.SourceSocialHandle:
		handle := socialHandle(src.URL)
		if handle == "" {
			return nil, &permanentError{err: fmt.Errorf("empty social handle %q", src.URL)}
		}
		feedURL = strings.ReplaceAll(s.HandleURL, "{handle}", url.PathEscape(handle))
		fallbackTitle = "Post by @" + handle
	case domain.SourceSocialTag:
		tag := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(src.URL), "#"))
		if tag == "" {
			return nil, &permanentError{err: fmt.Errorf("empty social tag %q", src.URL)}
		}
		feedURL = strings.ReplaceAll(s.TagURL, "{tag}", url.QueryEscape(tag))
		fallbackTitle = "Post about #" + tag
	default:
		return nil, &permanentError{err: fmt.Errorf("social strategy can't fetch %s sources", src.Kind)}
	}

	feed, err := s.Parser.Parse(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	items := feedItems(feed, src, src.Name())
	for i := range items {
		if items[i].Title == "" {
			items[i].Title = fallbackTitle
		}
		items[i].Tags = mergeTags(items[i].Tags, hashtags(items[i].Title+" "+items[i].Summary))
	}
	return items, nil
}

// socialHandle extracts the bare handle from "@name", "name" or a profile URL
func socialHandle(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if u, err := url.Parse(ref); err == nil {
			ref = strings.Split(strings.Trim(u.Path, "/"), "/")[0]
		}
	}
	return strings.TrimLeft(ref, "@")
}

// ChannelStrategy reads video channels. ChannelURL is a template with a {channel} placeholder
// used for bare channel ids, channel pages and @handles are resolved by feed discovery.
type ChannelStrategy struct {
	Parser     *Parser
	ChannelURL string
	PageURL    string // base of @handle pages, https://www.youtube.com/ by default
}

// Fetch resolves the channel reference to its feed and parses it
func (s *ChannelStrategy) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	feedURL, err := s.feedURL(src.URL)
	if err != nil {
		return nil, err
	}
	feed, err := s.Parser.Parse(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return feedItems(feed, src, feed.Title), nil
}

func (s *ChannelStrategy) feedURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", &permanentError{err: fmt.Errorf("empty channel reference")}
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", &permanentError{err: fmt.Errorf("parse channel url: %w", err)}
		}
		if id := u.Query().Get("channel_id"); id != "" {
			return ref, nil
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i < len(parts)-1; i++ {
			if parts[i] == "channel" {
				return strings.ReplaceAll(s.ChannelURL, "{channel}", url.QueryEscape(parts[i+1])), nil
			}
		}
		return ref, nil // channel page, the parser follows its advertised feed
	case strings.HasPrefix(ref, "@"):
		base := s.PageURL
		if base == "" {
			base = "https://www.youtube.com/"
		}
		return strings.TrimRight(base, "/") + "/" + url.PathEscape(ref), nil
	default:
		return strings.ReplaceAll(s.ChannelURL, "{channel}", url.QueryEscape(ref)), nil
	}
}

// feedItems converts parsed feed entries to items, sourceName is used when the entry has no author context
func feedItems(feed *gofeed.Feed, src domain.Source, sourceName string) []domain.Item {
	if sourceName == "" {
		sourceName = src.Name()
	}
	res := make([]domain.Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if fi == nil {
			continue
		}
		item := domain.Item{
			Title:      strings.TrimSpace(fi.Title),
			Link:       strings.TrimSpace(fi.Link),
			Summary:    fi.Description,
			SourceKind: src.Kind,
			SourceID:   src.ID,
			SourceName: sourceName,
			Tags:       fi.Categories,
		}
		if item.Link == "" && len(fi.Links) > 0 {
			item.Link = strings.TrimSpace(fi.Links[0])
		}
		if item.Summary == "" {
			item.Summary = fi.Content
		}
		if item.Summary == "" {
			item.Summary = mediaDescription(fi)
		}
		if fi.Author != nil {
			item.Author = fi.Author.Name
		}
		switch {
		case fi.PublishedParsed != nil:
			item.Published = fi.PublishedParsed.UTC()
		case fi.UpdatedParsed != nil:
			item.Published = fi.UpdatedParsed.UTC()
		}
		res = append(res, item)
	}
	return res
}

// mediaDescription returns the media:group/media:description of video feeds
func mediaDescription(fi *gofeed.Item) string {
	media, ok := fi.Extensions["media"]
	if !ok {
		return ""
	}
	for _, group := range media["group"] {
		for _, d := range group.Children["description"] {
			if d.Value != "" {
				return d.Value
			}
		}
	}
	return ""
}

func hashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	res := make([]string, 0, len(matches))
	for _, m := range matches {
		res = append(res, strings.ToLower(m[1]))
	}
	return res
}

// mergeTags appends extra tags not present yet, case-insensitive
func mergeTags(tags, extra []string) []string {
	seen := make(map[string]bool, len(tags)+len(extra))
	res := make([]string, 0, len(tags)+len(extra))
	for _, t := range append(append([]string{}, tags...), extra...) {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		res = append(res, t)
	}
	return res
}
