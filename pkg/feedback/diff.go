package feedback

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// EditSummary describes how much an edit changed a draft
type EditSummary struct {
	LinesAdded    int     `json:"lines_added"`
	LinesDeleted  int     `json:"lines_deleted"`
	OriginalWords int     `json:"original_words"`
	EditedWords   int     `json:"edited_words"`
	EditRatio     float64 `json:"edit_ratio"`
}

// DiffSummary compares original and edited content line by line.
// The edit ratio is the relative change of the word count, rounded to 2 decimals.
func DiffSummary(original, edited string) EditSummary {
	a, b := strings.Split(original, "\n"), strings.Split(edited, "\n")
	res := EditSummary{}
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'r':
			res.LinesDeleted += op.I2 - op.I1
			res.LinesAdded += op.J2 - op.J1
		case 'd':
			res.LinesDeleted += op.I2 - op.I1
		case 'i':
			res.LinesAdded += op.J2 - op.J1
		}
	}

	res.OriginalWords = len(strings.Fields(original))
	res.EditedWords = len(strings.Fields(edited))
	res.EditRatio = round(math.Abs(float64(res.EditedWords-res.OriginalWords))/float64(max(res.OriginalWords, 1)), 2)
	return res
}

// UnifiedDiff returns unified diff of the two versions, empty if they are the same
func UnifiedDiff(original, edited string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(edited),
		FromFile: "original",
		ToFile:   "edited",
		Context:  1,
	})
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
