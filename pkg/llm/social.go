package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	log "github.com/go-pkgz/lgr"

	"github.com/umputun/newsdraft/pkg/domain"
)

// social post limits
const (
	MaxTweet        = 280
	maxThread       = 6
	maxSocialText   = 1000
	maxSocialTopics = 3
	maxSocialItems  = 5
)

const twitterSystemPrompt = `You are a social media editor who turns newsletters into engaging threads.
Every post of a thread must be under 280 characters including spaces.`

const linkedinSystemPrompt = `You are a content strategist who turns newsletters into engaging professional posts.`

var (
	threadNumRe = regexp.MustCompile(`^(?:\d+\s*[/.)]|(?i:tweet|post)\s*\d+:)\s*`)
	hashtagRe   = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
)

// SocialPost rewrites a draft into a thread of short posts for twitter or a single long-form post for linkedin.
// The result is returned to the caller, nothing is published.
func (g *Generator) SocialPost(ctx context.Context, draft *domain.Draft, platform domain.SocialPlatform) (*domain.SocialPost, error) {
	text, stories := digest(draft.Content)
	if text == "" {
		return nil, fmt.Errorf("draft %s has no text: %w", draft.ID, domain.ErrNoContent)
	}

	system, prompt := "", ""
	switch platform {
	case domain.PlatformTwitter:
		system, prompt = twitterSystemPrompt, socialPrompt(twitterRules, draft, text, stories)
	case domain.PlatformLinkedIn:
		system, prompt = linkedinSystemPrompt, socialPrompt(linkedinRules, draft, text, stories)
	default:
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}

	content, attempt, err := g.completeWithRetry(ctx, draft.Owner, system, prompt)
	if err != nil {
		return nil, err
	}

	res := &domain.SocialPost{DraftID: draft.ID, Platform: platform, FullText: content, CreatedAt: g.now().UTC()}
	if platform == domain.PlatformTwitter {
		res.Posts = ParseThread(content)
	} else {
		res.Posts = []string{content}
	}
	res.CharCounts = make([]int, len(res.Posts))
	for i, p := range res.Posts {
		res.CharCounts[i] = utf8.RuneCountInString(p)
	}
	res.Hashtags = hashtagRe.FindAllString(content, -1)
	if res.Hashtags == nil {
		res.Hashtags = []string{}
	}
	log.Printf("[INFO] %s post of draft %s generated in %d attempt(s), %d part(s)", platform, draft.ID, attempt, len(res.Posts))
	return res, nil
}

const twitterRules = `Create a thread from this newsletter. Rules:
- every post under 280 characters including spaces
- 4 to 6 posts
- first post is a hook, middle posts carry one key insight each, the last post is a call to action
- at most 1-2 emojis per post
- number every post at the start of its line: 1/, 2/, 3/ and so on`

const linkedinRules = `Create a professional post from this newsletter. Rules:
- 1200 to 1500 characters
- hook, key insights, call to action
- short paragraphs separated by blank lines
- 3 to 5 relevant hashtags at the end`

// socialPrompt builds the user prompt of a social post from the newsletter text, its stories and trends
func socialPrompt(rules string, draft *domain.Draft, text string, stories []string) string {
	var sb strings.Builder
	sb.WriteString(rules)
	sb.WriteString(fmt.Sprintf("\n- tone: %s\n\n", orDefault(draft.Tone, domain.DefaultTone)))

	sb.WriteString("Newsletter summary:\n")
	sb.WriteString(truncateRunes(text, 600, "..."))
	sb.WriteString("\n\n")

	if len(stories) > 0 {
		sb.WriteString("Key stories:\n")
		for i, s := range stories {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
		}
		sb.WriteString("\n")
	}

	if trends := draft.SourceTrends; len(trends) > 0 {
		if len(trends) > maxSocialTopics {
			trends = trends[:maxSocialTopics]
		}
		sb.WriteString("Trending topics:\n")
		for i, t := range trends {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, t.Keyword))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Respond with the post text only.")
	return sb.String()
}

// digest returns plain text of the newsletter html, up to maxSocialText runes, and the story headings
func digest(html string) (text string, stories []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", nil
	}
	doc.Find("p, div, li, br, h1, h2, h3, h4").AppendHtml(" ") // keep blocks apart in the text
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			stories = append(stories, t)
		}
		return len(stories) < maxSocialItems
	})
	text = strings.Join(strings.Fields(doc.Text()), " ")
	return truncateRunes(text, maxSocialText, ""), stories
}

// ParseThread splits a generated thread into posts. A numbered line ("1/", "2.", "Tweet 3:") starts a new post,
// unnumbered lines continue the current one. Text without numbering is split by blank lines.
// At most six posts are returned, each cut to MaxTweet characters.
func ParseThread(text string) []string {
	var posts []string
	cur := ""
	numbered := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if loc := threadNumRe.FindStringIndex(line); loc != nil {
			numbered = true
			if strings.TrimSpace(cur) != "" {
				posts = append(posts, strings.TrimSpace(cur))
			}
			cur = line[loc[1]:]
			continue
		}
		cur += " " + line
	}
	if strings.TrimSpace(cur) != "" {
		posts = append(posts, strings.TrimSpace(cur))
	}

	if !numbered {
		posts = posts[:0]
		for _, p := range strings.Split(text, "\n\n") {
			if p = strings.Join(strings.Fields(p), " "); p != "" {
				posts = append(posts, p)
			}
		}
	}

	if len(posts) > maxThread {
		posts = posts[:maxThread]
	}
	for i, p := range posts {
		posts[i] = truncateRunes(p, MaxTweet, "...")
	}
	return posts
}

// truncateRunes cuts s to limit runes including the suffix
func truncateRunes(s string, limit int, suffix string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-utf8.RuneCountInString(suffix)]) + suffix
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
