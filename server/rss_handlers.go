package server

import (
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/umputun/newsdraft/pkg/domain"
)

const rssLimit = 50

// rss is RSS 2.0 document of published drafts
type rss struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	XMLName       xml.Name   `xml:"channel"`
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	AtomLink      *atomLink  `xml:"http://www.w3.org/2005/Atom link"`
	LastBuildDate string     `xml:"lastBuildDate"`
	Items         []*rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Categories  []string `xml:"category"`
}

// rssHandler serves published drafts of an owner as RSS feed. The feed is public, feed readers can't send the owner header.
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	drafts, err := s.Store.ListDrafts(r.Context(), owner, rssLimit)
	if err != nil {
		log.Printf("[ERROR] failed to get drafts for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	feed, err := publishedRSS(baseURL(r), owner, drafts, time.Now())
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(feed)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}

// publishedRSS renders the published drafts, other statuses are skipped
func publishedRSS(base, owner string, drafts []domain.Draft, now time.Time) (string, error) {
	selfLink := fmt.Sprintf("%s/rss/%s", base, url.PathEscape(owner))
	items := make([]*rssItem, 0, len(drafts))
	for _, d := range drafts {
		if d.Status != domain.DraftStatusPublished {
			continue
		}
		it := &rssItem{
			Title:       d.Title,
			Link:        selfLink + "#" + d.ID,
			GUID:        d.ID,
			Description: d.Content,
			PubDate:     d.CreatedAt.Format(time.RFC1123Z),
		}
		if d.Topic != "" {
			it.Categories = []string{d.Topic}
		}
		items = append(items, it)
	}

	doc := &rss{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &rssChannel{
			Title:         "Newsdraft - " + owner,
			Link:          base + "/",
			Description:   "Newsletters published by " + owner,
			AtomLink:      &atomLink{Href: selfLink, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: now.Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

// baseURL returns scheme and host the request was made to
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
