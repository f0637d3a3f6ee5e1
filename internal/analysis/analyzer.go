package analysis

import (
	"math"
	"strings"

	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
)

const complexWordLength = 6

// Analyzer turns transcript text into a feature vector.
type Analyzer struct {
	preprocessor *Preprocessor
}

// NewAnalyzer creates a new analyzer with all components
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		preprocessor: NewPreprocessor(0.05), // 50ms: duplicate word emissions from STT
	}
}

// ExtractFeatures computes every category, including the derived cognitive
// one. The speech category is only present when usable timing metadata is
// supplied.
func (a *Analyzer) ExtractFeatures(text string, meta *TimingMetadata, opts Options) (*FeatureVector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text must not be empty", "text")
	}

	cleaned := a.preprocessor.ProcessText(text)
	doc := tokenize(cleaned)
	if doc.wordCount() == 0 {
		return nil, apperrors.NewValidationError("text contains no words", "text")
	}

	timing, err := a.preprocessor.ProcessTiming(meta)
	if err != nil {
		return nil, err
	}
	if opts.IncludeTimingFeatures && timing == nil {
		return nil, apperrors.NewValidationError("timing features requested but no usable timing metadata supplied", "metadata")
	}

	fv := &FeatureVector{
		Basic:       computeBasic(doc),
		Lexical:     computeLexical(doc),
		Sentiment:   computeSentiment(doc),
		Readability: computeReadability(doc),
		Linguistic:  computeLinguistic(doc, opts.IncludeAdvanced),
	}
	if timing != nil {
		fv.Speech = computeSpeech(doc, timing, fv.Linguistic.HesitationCount)
	}
	fv.Cognitive = BuildCognitive(fv)

	return fv, nil
}

func computeBasic(doc document) *BasicFeatures {
	words := float64(doc.wordCount())
	sentences := float64(doc.sentenceCount())

	types := make(map[string]struct{}, len(doc.lower))
	for _, w := range doc.lower {
		types[w] = struct{}{}
	}

	return &BasicFeatures{
		WordCount:               words,
		SentenceCount:           sentences,
		AverageWordsPerSentence: ratio(words, sentences),
		TypeTokenRatio:          Clamp01(ratio(float64(len(types)), words)),
	}
}

func computeLexical(doc document) *LexicalFeatures {
	words := float64(doc.wordCount())

	contentFreq := make(map[string]int)
	contentWords := 0
	complexWords := 0
	totalLength := 0

	for i, w := range doc.lower {
		length := len([]rune(doc.words[i]))
		totalLength += length
		if length > complexWordLength {
			complexWords++
		}
		if inSet(stopwords, w) {
			continue
		}
		contentWords++
		contentFreq[w]++
	}

	hapax := 0
	for _, n := range contentFreq {
		if n == 1 {
			hapax++
		}
	}

	return &LexicalFeatures{
		VocabularySize:    float64(len(contentFreq)),
		LexicalDiversity:  Clamp01(ratio(float64(len(contentFreq)), float64(contentWords))),
		ComplexWordRatio:  Clamp01(ratio(float64(complexWords), words)),
		AverageWordLength: ratio(float64(totalLength), words),
		HapaxRatio:        Clamp01(ratio(float64(hapax), float64(len(contentFreq)))),
		ContentWordRatio:  Clamp01(ratio(float64(contentWords), words)),
	}
}

func computeSentiment(doc document) *SentimentFeatures {
	total := 0.0
	positive, negative := 0, 0

	for i, w := range doc.lower {
		valence, ok := sentimentLexicon[w]
		if !ok {
			continue
		}
		if i > 0 && inSet(intensifiers, doc.lower[i-1]) {
			valence *= 1.3
		}
		if negated(doc.lower, i) {
			valence = -valence
		}

		switch {
		case valence > 0:
			positive++
		case valence < 0:
			negative++
		}
		total += valence
	}

	// Same normalization VADER uses for its compound score.
	score := Clamp(total/math.Sqrt(total*total+15), -1, 1)

	polarity := PolarityNeutral
	switch {
	case score >= 0.05:
		polarity = PolarityPositive
	case score <= -0.05:
		polarity = PolarityNegative
	}

	return &SentimentFeatures{
		SentimentScore:    score,
		SentimentPolarity: polarity,
		PositiveWordCount: positive,
		NegativeWordCount: negative,
	}
}

// negated looks back up to three words for a negator.
func negated(lower []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-3; j-- {
		if inSet(negators, lower[j]) {
			return true
		}
	}
	return false
}

func computeReadability(doc document) *ReadabilityFeatures {
	words := float64(doc.wordCount())
	sentences := math.Max(float64(doc.sentenceCount()), 1)

	syllables := 0
	for _, w := range doc.words {
		syllables += countSyllables(w)
	}

	wordsPerSentence := ratio(words, sentences)
	syllablesPerWord := ratio(float64(syllables), words)
	charsPerWord := ratio(float64(doc.characterCount()), words)

	ease := Clamp(206.835-1.015*wordsPerSentence-84.6*syllablesPerWord, 0, 100)

	return &ReadabilityFeatures{
		FleschReadingEase:         ease,
		AutomatedReadabilityIndex: math.Max(0, 4.71*charsPerWord+0.5*wordsPerSentence-21.43),
		FleschKincaidGrade:        math.Max(0, 0.39*wordsPerSentence+11.8*syllablesPerWord-15.59),
		AverageSyllablesPerWord:   syllablesPerWord,
		ReadabilityLevel:          readabilityLevelFor(ease),
	}
}

func readabilityLevelFor(ease float64) ReadabilityLevel {
	switch {
	case ease >= 90:
		return ReadabilityVeryEasy
	case ease >= 80:
		return ReadabilityEasy
	case ease >= 70:
		return ReadabilityFairlyEasy
	case ease >= 60:
		return ReadabilityStandard
	case ease >= 50:
		return ReadabilityFairlyDifficult
	case ease >= 30:
		return ReadabilityDifficult
	default:
		return ReadabilityVeryDifficult
	}
}
