package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/markusmobius/go-trafilatura"
)

// ErrTooShort is returned when the extracted text is shorter than the configured minimum
var ErrTooShort = errors.New("extracted text too short")

const maxPageSize = 5 * 1024 * 1024

// HTTPExtractor extracts readable article text from pages using trafilatura.
// It is used to fill in summaries of items whose feed entry carries none.
type HTTPExtractor struct {
	client        *http.Client
	userAgent     string
	minTextLength int
}

// NewHTTPExtractor creates a new content extractor
func NewHTTPExtractor(timeout time.Duration, userAgent string, minTextLength int) *HTTPExtractor {
	return &HTTPExtractor{
		client:        &http.Client{Timeout: timeout},
		userAgent:     userAgent,
		minTextLength: minTextLength,
	}
}

// Extract retrieves the page at urlStr and returns its main text
func (e *HTTPExtractor) Extract(ctx context.Context, urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", urlStr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	SetBrowserHeaders(req, e.userAgent, AcceptPage)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for URL %s", resp.StatusCode, urlStr)
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		ExcludeTables:   true,
		IncludeImages:   false,
		IncludeLinks:    false,
		Deduplicate:     true,
		OriginalURL:     parsedURL,
	}

	result, err := trafilatura.Extract(io.LimitReader(resp.Body, maxPageSize), opts)
	if err != nil {
		return "", fmt.Errorf("extract content from %s: %w", urlStr, err)
	}
	if result == nil {
		return "", fmt.Errorf("no content extracted from %s", urlStr)
	}

	text := strings.Join(strings.Fields(result.ContentText), " ")
	if text == "" {
		return "", fmt.Errorf("no text content extracted from %s", urlStr)
	}
	if utf8.RuneCountInString(text) < e.minTextLength {
		return "", fmt.Errorf("%s: %w", urlStr, ErrTooShort)
	}
	return text, nil
}
