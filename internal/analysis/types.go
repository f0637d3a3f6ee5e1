package analysis

import "fmt"

// Options are the caller-controlled flags shared by extraction and scoring.
type Options struct {
	IncludeAdvanced       bool   `json:"includeAdvanced"`
	IncludeTimingFeatures bool   `json:"includeTimingFeatures"`
	AnalysisType          string `json:"analysisType,omitempty"`
}

// WordTiming is a single transcribed word with its start/end offsets in seconds.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SegmentTiming is a transcription segment (usually an utterance).
type SegmentTiming struct {
	Text  string  `json:"text,omitempty"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TimingMetadata accompanies transcripts produced by speech-to-text.
type TimingMetadata struct {
	Duration float64         `json:"duration,omitempty"`
	Words    []WordTiming    `json:"words,omitempty"`
	Segments []SegmentTiming `json:"segments,omitempty"`
}

// FeatureVector is the categorized feature record. A nil category was not
// computed (or not supplied), which is distinct from a category of zeros.
type FeatureVector struct {
	Basic       *BasicFeatures       `json:"basic,omitempty"`
	Lexical     *LexicalFeatures     `json:"lexical,omitempty"`
	Sentiment   *SentimentFeatures   `json:"sentiment,omitempty"`
	Readability *ReadabilityFeatures `json:"readability,omitempty"`
	Linguistic  *LinguisticFeatures  `json:"linguistic,omitempty"`
	Speech      *SpeechFeatures      `json:"speech,omitempty"`
	Cognitive   *CognitiveFeatures   `json:"cognitive,omitempty"`
}

type BasicFeatures struct {
	WordCount               float64 `json:"wordCount"`
	SentenceCount           float64 `json:"sentenceCount"`
	AverageWordsPerSentence float64 `json:"averageWordsPerSentence"`
	TypeTokenRatio          float64 `json:"typeTokenRatio"`
}

type LexicalFeatures struct {
	VocabularySize    float64 `json:"vocabularySize"`
	LexicalDiversity  float64 `json:"lexicalDiversity"`
	ComplexWordRatio  float64 `json:"complexWordRatio"`
	AverageWordLength float64 `json:"averageWordLength"`
	HapaxRatio        float64 `json:"hapaxRatio"`
	ContentWordRatio  float64 `json:"contentWordRatio"`
}

// Polarity is the coarse sentiment class.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

type SentimentFeatures struct {
	SentimentScore    float64  `json:"sentimentScore"`
	SentimentPolarity Polarity `json:"sentimentPolarity"`
	PositiveWordCount int      `json:"positiveWordCount"`
	NegativeWordCount int      `json:"negativeWordCount"`
}

// ReadabilityLevel orders Flesch bands from hardest to easiest.
type ReadabilityLevel int

const (
	ReadabilityVeryDifficult ReadabilityLevel = iota
	ReadabilityDifficult
	ReadabilityFairlyDifficult
	ReadabilityStandard
	ReadabilityFairlyEasy
	ReadabilityEasy
	ReadabilityVeryEasy
)

var readabilityLevelNames = [...]string{
	"very_difficult",
	"difficult",
	"fairly_difficult",
	"standard",
	"fairly_easy",
	"easy",
	"very_easy",
}

func (l ReadabilityLevel) String() string {
	if l < ReadabilityVeryDifficult || l > ReadabilityVeryEasy {
		return fmt.Sprintf("ReadabilityLevel(%d)", int(l))
	}
	return readabilityLevelNames[l]
}

func (l ReadabilityLevel) MarshalText() ([]byte, error) {
	if l < ReadabilityVeryDifficult || l > ReadabilityVeryEasy {
		return nil, fmt.Errorf("invalid readability level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *ReadabilityLevel) UnmarshalText(text []byte) error {
	for i, name := range readabilityLevelNames {
		if name == string(text) {
			*l = ReadabilityLevel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown readability level %q", text)
}

type ReadabilityFeatures struct {
	FleschReadingEase         float64          `json:"fleschReadingEase"`
	AutomatedReadabilityIndex float64          `json:"automatedReadabilityIndex"`
	FleschKincaidGrade        float64          `json:"fleschKincaidGrade"`
	AverageSyllablesPerWord   float64          `json:"averageSyllablesPerWord"`
	ReadabilityLevel          ReadabilityLevel `json:"readabilityLevel"`
}

type LinguisticFeatures struct {
	PronounRatio             float64 `json:"pronounRatio"`
	DeterminerRatio          float64 `json:"determinerRatio"`
	PrepositionRatio         float64 `json:"prepositionRatio"`
	ConjunctionRatio         float64 `json:"conjunctionRatio"`
	AuxiliaryRatio           float64 `json:"auxiliaryRatio"`
	DiscourseMarkerCount     int     `json:"discourseMarkerCount"`
	DiscourseMarkerRatio     float64 `json:"discourseMarkerRatio"`
	SubordinatorsPerSentence float64 `json:"subordinatorsPerSentence"`
	HesitationCount          int     `json:"hesitationCount"`
	HesitationRatio          float64 `json:"hesitationRatio"`
	ImmediateRepetitions     int     `json:"immediateRepetitions"`
	NearRepetitions          int     `json:"nearRepetitions"`
	PauseIndicatorCount      int     `json:"pauseIndicatorCount"`

	// Advanced is only populated when Options.IncludeAdvanced is set.
	Advanced *AdvancedLinguistics `json:"advanced,omitempty"`
}

type AdvancedLinguistics struct {
	NamedEntityCount       int            `json:"namedEntityCount"`
	ProperNounRatio        float64        `json:"properNounRatio"`
	SubordinationRatio     float64        `json:"subordinationRatio"`
	ArticulationComplexity float64        `json:"articulationComplexity"`
	SemanticCategories     map[string]int `json:"semanticCategories"`

	TemporalExpressionCount int         `json:"temporalExpressionCount"`
	TemporalDensity         float64     `json:"temporalDensity"`
	SentenceConnectivity    float64     `json:"sentenceConnectivity"`
	OverallComplexity       float64     `json:"overallComplexity"`
	CognitiveDemand         float64     `json:"cognitiveDemand"`
	WordLengths             map[int]int `json:"wordLengths"`
	LongWordRatio           float64     `json:"longWordRatio"`
	ComplexSentenceCount    int         `json:"complexSentenceCount"`
	AbstractNounCount       int         `json:"abstractNounCount"`
}

type HesitationMarkers struct {
	Count int     `json:"count"`
	Ratio float64 `json:"ratio"`
}

type SpeechFeatures struct {
	DurationSeconds          float64           `json:"durationSeconds"`
	SpeechRate               float64           `json:"speechRate"`
	WordsPerMinute           float64           `json:"wordsPerMinute"`
	HesitationMarkers        HesitationMarkers `json:"hesitationMarkers"`
	LongPauseCount           int               `json:"longPauseCount"`
	MeanPauseSeconds         float64           `json:"meanPauseSeconds"`
	MedianPauseSeconds       float64           `json:"medianPauseSeconds"`
	PauseRatio               float64           `json:"pauseRatio"`
	WordDurationVariation    float64           `json:"wordDurationVariation"`
	SegmentDurationVariation float64           `json:"segmentDurationVariation"`
}

type CognitiveFeatures struct {
	SyntacticComplexity  float64 `json:"syntacticComplexity"`
	InformationDensity   float64 `json:"informationDensity"`
	HesitationRatio      float64 `json:"hesitationRatio"`
	RepetitionScore      float64 `json:"repetitionScore"`
	SemanticFluency      float64 `json:"semanticFluency"`
	CognitiveHealthScore float64 `json:"cognitiveHealthScore"`
}
