package source

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/post", "https://example.com/post"},
		{"HTTP://WWW.Example.com/post/", "https://example.com/post"},
		{"https://example.com/post?utm_source=rss&utm_medium=feed", "https://example.com/post"},
		{"https://example.com/post?id=5&utm_campaign=x#comments", "https://example.com/post?id=5"},
		{"https://example.com/post?b=2&a=1", "https://example.com/post?a=1&b=2"},
		{"https://example.com/", "https://example.com"},
		{"  not a url/ ", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLink(tt.in))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "go 1 30 released", NormalizeTitle("  Go 1.30 — Released! "))
	assert.Equal(t, "hello world", NormalizeTitle("Hello,\tWorld"))
	assert.Equal(t, "", NormalizeTitle("!!!"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 300))

	long := strings.Repeat("word ", 100)
	res := truncate(long, 50)
	assert.LessOrEqual(t, utf8.RuneCountInString(res), 50)
	assert.True(t, strings.HasSuffix(res, "word…"))

	unbroken := strings.Repeat("ж", 400)
	res = truncate(unbroken, 300)
	assert.Equal(t, 300, utf8.RuneCountInString(res))
}
