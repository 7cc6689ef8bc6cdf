package style

import (
	"fmt"
	"strings"

	"github.com/umputun/newsdraft/pkg/domain"
)

// NeutralInstructions is the writing guidance used when the owner has no style profile
const NeutralInstructions = "Write in a clear, engaging and neutral tone. Use medium-length sentences " +
	"and balanced paragraphs of three to four sentences."

var toneGuidance = map[domain.Tone]string{
	domain.ToneCasual:       "Write in a friendly, conversational tone. Use 'you' and casual language.",
	domain.ToneProfessional: "Write in a professional, business-appropriate tone. Use formal language.",
	domain.ToneEnthusiastic: "Write with enthusiasm and energy. Use exclamation points sparingly but show excitement.",
	domain.ToneAnalytical:   "Write in an analytical, data-driven tone. Focus on facts and insights.",
}

var structureGuidance = map[domain.ParagraphStyle]string{
	domain.ParagraphShort:  "Keep paragraphs brief (1-2 sentences). Make it scannable.",
	domain.ParagraphMedium: "Use balanced paragraphs (3-4 sentences). Mix short and medium lengths.",
	domain.ParagraphLong:   "Write detailed paragraphs when needed. Dive deep into topics.",
}

// Instructions renders prompt guidance from a fingerprint, the same fingerprint always gives the same text
func Instructions(fp domain.Fingerprint) string {
	parts := make([]string, 0, 5)

	if g, ok := toneGuidance[fp.DominantTone]; ok {
		parts = append(parts, g)
	} else {
		parts = append(parts, "Write in a clear, engaging tone.")
	}

	switch {
	case fp.AvgSentenceLength < 12:
		parts = append(parts, "Keep sentences short and punchy (under 15 words).")
	case fp.AvgSentenceLength < 20:
		parts = append(parts, "Use medium-length sentences (15-20 words) for readability.")
	default:
		parts = append(parts, "Use detailed, comprehensive sentences when appropriate.")
	}

	if g, ok := structureGuidance[fp.ParagraphStructure]; ok {
		parts = append(parts, g)
	} else {
		parts = append(parts, "Use balanced paragraph structure.")
	}

	if len(fp.CommonPhrases) > 0 {
		phrases := make([]string, 0, 3)
		for _, p := range fp.CommonPhrases[:min(3, len(fp.CommonPhrases))] {
			phrases = append(phrases, p.Phrase)
		}
		parts = append(parts, fmt.Sprintf("Consider using phrases like: %s.", strings.Join(phrases, ", ")))
	}

	// a sign-off used in most samples is worth repeating
	if len(fp.Closers) > 0 && fp.Closers[0].Count*2 > fp.SampleCount {
		parts = append(parts, fmt.Sprintf("End with the usual sign-off: %q.", fp.Closers[0].Phrase))
	}

	return strings.Join(parts, " ")
}
