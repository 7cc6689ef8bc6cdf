package ranker

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/umputun/newsdraft/pkg/domain"
)

var wordRe = regexp.MustCompile(`\p{L}{3,}`)

var stopWords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true, "are": true, "was": true, "were": true,
	"been": true, "have": true, "has": true, "had": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "this": true, "that": true,
	"these": true, "those": true, "you": true, "she": true, "they": true, "new": true, "more": true,
	"most": true, "also": true, "get": true, "make": true, "see": true, "know": true, "think": true,
	"take": true, "come": true, "say": true, "use": true, "from": true, "into": true, "about": true,
	"your": true, "their": true, "what": true, "when": true, "how": true, "why": true, "just": true,
	"than": true, "then": true, "over": true, "after": true, "its": true, "our": true, "not": true,
	"all": true, "now": true, "here": true, "there": true, "which": true, "who": true, "via": true,
}

// ExtractTrends counts keywords of item titles and summaries and returns up to limit keywords
// longer than three letters seen more than once, most frequent first.
// Every trend links to the item mentioning the keyword most, title mentions weigh more.
func ExtractTrends(items []domain.Item, limit int) []domain.Trend {
	if limit <= 0 || len(items) == 0 {
		return []domain.Trend{}
	}

	counts := map[string]int{}
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = strings.ToLower(it.Title + " " + it.Summary)
		for _, w := range wordRe.FindAllString(texts[i], -1) {
			if stopWords[w] {
				continue
			}
			counts[w]++
		}
	}

	res := make([]domain.Trend, 0, limit)
	for w, n := range counts {
		if n > 1 && utf8.RuneCountInString(w) > 3 {
			res = append(res, domain.Trend{Keyword: w, Frequency: n})
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Frequency != res[j].Frequency {
			return res[i].Frequency > res[j].Frequency
		}
		return res[i].Keyword < res[j].Keyword
	})
	if len(res) > limit {
		res = res[:limit]
	}

	for i := range res {
		res[i].Link = representative(items, texts, res[i].Keyword)
	}
	return res
}

// representative returns the link of the item mentioning keyword most, +2 for a title mention
func representative(items []domain.Item, texts []string, keyword string) string {
	best, bestScore := "", 0
	for i, it := range items {
		score := strings.Count(texts[i], keyword)
		if strings.Contains(strings.ToLower(it.Title), keyword) {
			score += 2
		}
		if score > bestScore {
			best, bestScore = it.Link, score
		}
	}
	return best
}
