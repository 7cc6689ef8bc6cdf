package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/umputun/newsdraft/pkg/content"
)

const maxFeedSize = 10 * 1024 * 1024

// statusError is a non-200 response of a source host
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.code, e.url)
}

// permanentError marks failures retrying can't fix, like a page without a feed or a broken document
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// retryable reports whether another attempt may succeed
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusRequestTimeout || se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var pe *permanentError
	return !errors.As(err, &pe)
}

// Parser fetches and parses RSS, Atom and JSON feeds.
// When the URL points to an HTML page the first advertised feed of the page is followed.
type Parser struct {
	client    *http.Client
	userAgent string
}

// NewParser creates a new feed parser
func NewParser(timeout time.Duration, userAgent string) *Parser {
	return &Parser{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Parse fetches and parses a feed from the given URL
func (p *Parser) Parse(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, ctype, err := p.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	if isHTML(ctype, body) {
		alt, err := discoverFeed(body, feedURL)
		if err != nil {
			return nil, err
		}
		if body, _, err = p.fetch(ctx, alt); err != nil {
			return nil, fmt.Errorf("fetch discovered feed %s: %w", alt, err)
		}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("parse feed %s: %w", feedURL, err)}
	}
	return feed, nil
}

// fetch retrieves the document at u and returns its body and content type
func (p *Parser) fetch(ctx context.Context, u string) (body []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, "", &permanentError{err: fmt.Errorf("create request: %w", err)}
	}
	content.SetBrowserHeaders(req, p.userAgent, content.AcceptFeed)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &statusError{code: resp.StatusCode, url: u}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// isHTML detects pages served instead of feeds, some hosts send html with xml content types and vice versa
func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// discoverFeed finds the first alternate feed link of an HTML page and resolves it against the page URL
func discoverFeed(page []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", &permanentError{err: fmt.Errorf("parse page %s: %w", pageURL, err)}
	}

	var href string
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		typ := strings.ToLower(s.AttrOr("type", ""))
		link := strings.TrimSpace(s.AttrOr("href", ""))
		if link == "" || !(strings.Contains(typ, "rss") || strings.Contains(typ, "atom") || strings.Contains(typ, "json")) {
			return true
		}
		href = link
		return false
	})
	if href == "" {
		return "", &permanentError{err: fmt.Errorf("no feed advertised on %s", pageURL)}
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", &permanentError{err: fmt.Errorf("parse page url: %w", err)}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", &permanentError{err: fmt.Errorf("parse feed link %q: %w", href, err)}
	}
	return base.ResolveReference(ref).String(), nil
}
