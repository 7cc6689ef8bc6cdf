package domain

import "time"

// MinStyleSamples is the smallest number of non-empty samples a fingerprint can be derived from
const MinStyleSamples = 3

// Tone is a coarse tone category detected in writing samples
type Tone string

// detected tones
const (
	ToneCasual       Tone = "casual"
	ToneProfessional Tone = "professional"
	ToneEnthusiastic Tone = "enthusiastic"
	ToneAnalytical   Tone = "analytical"
	ToneNeutral      Tone = "neutral"
)

// ParagraphStyle describes typical paragraph length
type ParagraphStyle string

// paragraph styles
const (
	ParagraphShort  ParagraphStyle = "short_punchy"
	ParagraphMedium ParagraphStyle = "medium_balanced"
	ParagraphLong   ParagraphStyle = "long_detailed"
)

// PhraseCount is a phrase with its number of occurrences
type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// Punctuation holds punctuation usage counts
type Punctuation struct {
	Exclamation    int     `json:"exclamation"`
	Question       int     `json:"question"`
	Dash           int     `json:"dash"`
	Ellipsis       int     `json:"ellipsis"`
	Semicolon      int     `json:"semicolon"`
	Colon          int     `json:"colon"`
	AvgPerSentence float64 `json:"avg_per_sentence"`
}

// Fingerprint is a deterministic, serializable summary of a writer's style.
// Slices are sorted so the same samples always produce the same JSON.
type Fingerprint struct {
	AvgSentenceLength        float64        `json:"avg_sentence_length"`
	VocabularyRichness       float64        `json:"vocabulary_richness"`
	DominantTone             Tone           `json:"dominant_tone"`
	ToneScores               map[Tone]int   `json:"tone_scores"`
	CommonPhrases            []PhraseCount  `json:"common_phrases"`
	SentenceStarters         []PhraseCount  `json:"sentence_starters"`
	Closers                  []PhraseCount  `json:"closers"`
	Punctuation              Punctuation    `json:"punctuation"`
	AvgSentencesPerParagraph float64        `json:"avg_sentences_per_paragraph"`
	ParagraphStructure       ParagraphStyle `json:"paragraph_structure"`
	SampleCount              int            `json:"sample_count"`
	WordCount                int            `json:"word_count"`
}

// StyleProfile is the single style profile of an owner
type StyleProfile struct {
	Owner              string      `json:"owner"`
	Fingerprint        Fingerprint `json:"fingerprint"`
	CustomInstructions string      `json:"custom_instructions"`
	UpdatedAt          time.Time   `json:"updated_at"`
}
