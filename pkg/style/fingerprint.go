package style

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/umputun/newsdraft/pkg/domain"
)

const (
	maxPhrases  = 10
	maxStarters = 10
	maxClosers  = 5
)

var (
	sentenceSplitRe  = regexp.MustCompile(`[.!?]+`)
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
	wordRe           = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// tonePatterns are the markers counted per tone, the order defines tie breaking
var tonePatterns = []struct {
	tone     domain.Tone
	patterns []*regexp.Regexp
}{
	{domain.ToneCasual, compile(`\byou\b`, `\byour\b`, `let's`, `\bguy`, `\bfolks\b`, `\bhey\b`)},
	{domain.ToneProfessional, compile(`\bmoreover\b`, `\btherefore\b`, `\bhowever\b`, `\bfurthermore\b`)},
	{domain.ToneEnthusiastic, compile(`!`, `\bamazing\b`, `\bexciting\b`, `\bincredible\b`, `\blove\b`)},
	{domain.ToneAnalytical, compile(`\bdata\b`, `\banalysis\b`, `\bresearch\b`, `\bstudy\b`, `\bshows\b`)},
}

var stopPhrases = map[string]bool{
	"of the": true, "in the": true, "to the": true, "on the": true,
	"for the": true, "and the": true, "is a": true, "to be": true,
}

// Analyze derives the fingerprint of plain text samples. Empty samples are ignored,
// fewer than domain.MinStyleSamples non-empty samples is domain.ErrInsufficientSamples.
// The result depends only on the samples and their order.
func Analyze(samples []string) (domain.Fingerprint, error) {
	texts := make([]string, 0, len(samples))
	for _, s := range samples {
		s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
		if s != "" {
			texts = append(texts, s)
		}
	}
	if len(texts) < domain.MinStyleSamples {
		return domain.Fingerprint{}, domain.ErrInsufficientSamples
	}

	combined := strings.Join(texts, " ")
	var sentences []string
	for _, t := range texts {
		sentences = append(sentences, splitSentences(t)...)
	}
	tone, scores := detectTone(combined)
	avgPara, structure := paragraphStructure(texts)

	return domain.Fingerprint{
		AvgSentenceLength:        avgSentenceLength(sentences),
		VocabularyRichness:       vocabularyRichness(combined),
		DominantTone:             tone,
		ToneScores:               scores,
		CommonPhrases:            commonPhrases(combined),
		SentenceStarters:         sentenceStarters(texts),
		Closers:                  closers(texts),
		Punctuation:              punctuation(combined, len(sentences)),
		AvgSentencesPerParagraph: avgPara,
		ParagraphStructure:       structure,
		SampleCount:              len(texts),
		WordCount:                len(strings.Fields(combined)),
	}, nil
}

func splitSentences(text string) []string {
	var res []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			res = append(res, s)
		}
	}
	return res
}

func avgSentenceLength(sentences []string) float64 {
	if len(sentences) == 0 {
		return 0
	}
	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}
	return round(float64(words)/float64(len(sentences)), 1)
}

// vocabularyRichness is the share of unique words
func vocabularyRichness(text string) float64 {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return 0
	}
	unique := map[string]bool{}
	for _, w := range words {
		unique[w] = true
	}
	return round(float64(len(unique))/float64(len(words)), 2)
}

// detectTone counts tone markers, the first tone with the highest count wins. No markers is neutral.
func detectTone(text string) (domain.Tone, map[domain.Tone]int) {
	lower := strings.ToLower(text)
	scores := make(map[domain.Tone]int, len(tonePatterns))
	dominant, best := domain.ToneNeutral, 0
	for _, tp := range tonePatterns {
		n := 0
		for _, re := range tp.patterns {
			n += len(re.FindAllStringIndex(lower, -1))
		}
		scores[tp.tone] = n
		if n > best {
			dominant, best = tp.tone, n
		}
	}
	return dominant, scores
}

// commonPhrases returns repeated two and three word phrases
func commonPhrases(text string) []domain.PhraseCount {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	counts := map[string]int{}
	for i := 0; i+1 < len(words); i++ {
		counts[words[i]+" "+words[i+1]]++
		if i+2 < len(words) {
			counts[words[i]+" "+words[i+1]+" "+words[i+2]]++
		}
	}
	for p, n := range counts {
		if n < 2 || stopPhrases[p] {
			delete(counts, p)
		}
	}
	return top(counts, maxPhrases)
}

// sentenceStarters returns the most frequent first two words of sentences
func sentenceStarters(texts []string) []domain.PhraseCount {
	counts := map[string]int{}
	for _, t := range texts {
		for _, s := range splitSentences(t) {
			if words := strings.Fields(s); len(words) >= 2 {
				counts[words[0]+" "+words[1]]++
			}
		}
	}
	return top(counts, maxStarters)
}

// closers returns the usual sign-offs, the last line of every sample cut to five words
func closers(texts []string) []domain.PhraseCount {
	counts := map[string]int{}
	for _, t := range texts {
		lines := strings.Split(t, "\n")
		last := strings.TrimSpace(lines[len(lines)-1])
		words := strings.Fields(strings.TrimRight(last, ".!?,;: "))
		if len(words) == 0 {
			continue
		}
		if len(words) > 5 {
			words = words[:5]
		}
		counts[strings.Join(words, " ")]++
	}
	return top(counts, maxClosers)
}

func punctuation(text string, sentences int) domain.Punctuation {
	p := domain.Punctuation{
		Exclamation: strings.Count(text, "!"),
		Question:    strings.Count(text, "?"),
		Dash:        strings.Count(text, "—") + strings.Count(text, "--"),
		Ellipsis:    strings.Count(text, "...") + strings.Count(text, "…"),
		Semicolon:   strings.Count(text, ";"),
		Colon:       strings.Count(text, ":"),
	}
	total := p.Exclamation + p.Question + p.Dash + p.Ellipsis + p.Semicolon + p.Colon
	p.AvgPerSentence = round(float64(total)/float64(max(sentences, 1)), 2)
	return p
}

// paragraphStructure averages sentences per paragraph, paragraphs are separated by blank lines
func paragraphStructure(texts []string) (float64, domain.ParagraphStyle) {
	paragraphs, sentences := 0, 0
	for _, t := range texts {
		for _, p := range paragraphSplitRe.Split(t, -1) {
			if strings.TrimSpace(p) == "" {
				continue
			}
			paragraphs++
			sentences += len(splitSentences(p))
		}
	}
	if paragraphs == 0 {
		return 0, domain.ParagraphMedium
	}
	avg := float64(sentences) / float64(paragraphs)
	switch {
	case avg <= 2:
		return round(avg, 1), domain.ParagraphShort
	case avg <= 4:
		return round(avg, 1), domain.ParagraphMedium
	default:
		return round(avg, 1), domain.ParagraphLong
	}
}

// top sorts phrases by count desc and phrase asc and keeps n of them
func top(counts map[string]int, n int) []domain.PhraseCount {
	res := make([]domain.PhraseCount, 0, len(counts))
	for p, c := range counts {
		res = append(res, domain.PhraseCount{Phrase: p, Count: c})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].Phrase < res[j].Phrase
	})
	if len(res) > n {
		res = res[:n]
	}
	return res
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

func compile(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}
