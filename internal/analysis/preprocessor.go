package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
)

var disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?;:'"()\-]`)

// Preprocessor cleans transcript text and speech timing metadata before
// feature extraction.
type Preprocessor struct {
	// minWordGap is the spacing below which two timings of the same word are
	// treated as a transcription duplicate.
	minWordGap float64
}

// NewPreprocessor creates a new preprocessor
func NewPreprocessor(minWordGapSeconds float64) *Preprocessor {
	return &Preprocessor{minWordGap: minWordGapSeconds}
}

// ProcessText strips characters outside the punctuation the analyzer
// understands and collapses whitespace.
func (p *Preprocessor) ProcessText(text string) string {
	text = disallowedChars.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// ProcessTiming validates and normalizes timing metadata. A nil result with a
// nil error means the metadata carries nothing usable.
func (p *Preprocessor) ProcessTiming(meta *TimingMetadata) (*TimingMetadata, error) {
	if meta == nil {
		return nil, nil
	}
	if err := validateTiming(meta); err != nil {
		return nil, err
	}

	out := &TimingMetadata{Duration: meta.Duration}

	words := append([]WordTiming(nil), meta.Words...)
	sort.SliceStable(words, func(i, j int) bool { return words[i].Start < words[j].Start })
	out.Words = p.removeDuplicates(words)

	segments := append([]SegmentTiming(nil), meta.Segments...)
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	out.Segments = segments

	if out.Duration <= 0 {
		out.Duration = spanOf(out)
	}
	if out.Duration <= 0 {
		return nil, nil
	}

	return out, nil
}

// removeDuplicates collapses repeated emissions of the same word that
// overlap or sit closer than the minimum gap.
func (p *Preprocessor) removeDuplicates(words []WordTiming) []WordTiming {
	if len(words) == 0 {
		return words
	}

	cleaned := []WordTiming{words[0]}
	for _, w := range words[1:] {
		last := &cleaned[len(cleaned)-1]
		if strings.EqualFold(normalizeToken(w.Word), normalizeToken(last.Word)) &&
			w.Start-last.End < p.minWordGap {
			last.End = math.Max(last.End, w.End)
			continue
		}
		cleaned = append(cleaned, w)
	}

	return cleaned
}

func validateTiming(meta *TimingMetadata) error {
	problems := make(map[string]string)

	if meta.Duration < 0 || math.IsNaN(meta.Duration) || math.IsInf(meta.Duration, 0) {
		problems["metadata.duration"] = "duration must be a non-negative number"
	}
	for i, w := range meta.Words {
		if !validInterval(w.Start, w.End) {
			problems[fmt.Sprintf("metadata.words[%d]", i)] = "word timing must satisfy 0 <= start <= end"
		}
	}
	for i, s := range meta.Segments {
		if !validInterval(s.Start, s.End) {
			problems[fmt.Sprintf("metadata.segments[%d]", i)] = "segment timing must satisfy 0 <= start <= end"
		}
	}

	if len(problems) > 0 {
		return apperrors.NewValidationErrorWithMap(problems)
	}
	return nil
}

func validInterval(start, end float64) bool {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return false
	}
	return start >= 0 && end >= start
}

func spanOf(meta *TimingMetadata) float64 {
	first, last := math.Inf(1), math.Inf(-1)
	for _, w := range meta.Words {
		first = math.Min(first, w.Start)
		last = math.Max(last, w.End)
	}
	for _, s := range meta.Segments {
		first = math.Min(first, s.Start)
		last = math.Max(last, s.End)
	}
	if math.IsInf(first, 0) || math.IsInf(last, 0) {
		return 0
	}
	return last - first
}

func normalizeToken(s string) string {
	return strings.TrimFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
