package analysis

import "sort"

// FeatureName identifies one scalar feature consumed by scoring.
type FeatureName string

const (
	WordCount               FeatureName = "wordCount"
	SentenceCount           FeatureName = "sentenceCount"
	AverageWordsPerSentence FeatureName = "averageWordsPerSentence"
	TypeTokenRatio          FeatureName = "typeTokenRatio"

	VocabularySize    FeatureName = "vocabularySize"
	LexicalDiversity  FeatureName = "lexicalDiversity"
	ComplexWordRatio  FeatureName = "complexWordRatio"
	AverageWordLength FeatureName = "averageWordLength"
	HapaxRatio        FeatureName = "hapaxRatio"
	ContentWordRatio  FeatureName = "contentWordRatio"

	SentimentScore FeatureName = "sentimentScore"

	FleschReadingEase         FeatureName = "fleschReadingEase"
	AutomatedReadabilityIndex FeatureName = "automatedReadabilityIndex"
	FleschKincaidGrade        FeatureName = "fleschKincaidGrade"

	PronounRatio         FeatureName = "pronounRatio"
	DeterminerRatio      FeatureName = "determinerRatio"
	PrepositionRatio     FeatureName = "prepositionRatio"
	ConjunctionRatio     FeatureName = "conjunctionRatio"
	AuxiliaryRatio       FeatureName = "auxiliaryRatio"
	DiscourseMarkerRatio FeatureName = "discourseMarkerRatio"

	SpeechRate            FeatureName = "speechRate"
	PauseRatio            FeatureName = "pauseRatio"
	WordDurationVariation FeatureName = "wordDurationVariation"

	SyntacticComplexity  FeatureName = "syntacticComplexity"
	InformationDensity   FeatureName = "informationDensity"
	HesitationRatio      FeatureName = "hesitationRatio"
	RepetitionScore      FeatureName = "repetitionScore"
	SemanticFluency      FeatureName = "semanticFluency"
	CognitiveHealthScore FeatureName = "cognitiveHealthScore"
)

// RequiredFeatures must be present for a vector to be scored.
var RequiredFeatures = []FeatureName{
	WordCount,
	SentenceCount,
	TypeTokenRatio,
	VocabularySize,
	LexicalDiversity,
	CognitiveHealthScore,
}

// FeatureSet is the flat view of a feature vector, keyed by feature name.
type FeatureSet map[FeatureName]float64

// Get returns the value and whether the feature is present.
func (fs FeatureSet) Get(name FeatureName) (float64, bool) {
	v, ok := fs[name]
	return v, ok
}

// Names returns the feature names in lexical order.
func (fs FeatureSet) Names() []FeatureName {
	names := make([]FeatureName, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// FeatureSet flattens the present categories. Absent categories contribute
// no entries, so their features count as missing during validation.
func (fv *FeatureVector) FeatureSet() FeatureSet {
	fs := make(FeatureSet)
	if fv == nil {
		return fs
	}

	if b := fv.Basic; b != nil {
		fs[WordCount] = b.WordCount
		fs[SentenceCount] = b.SentenceCount
		fs[AverageWordsPerSentence] = b.AverageWordsPerSentence
		fs[TypeTokenRatio] = b.TypeTokenRatio
	}
	if l := fv.Lexical; l != nil {
		fs[VocabularySize] = l.VocabularySize
		fs[LexicalDiversity] = l.LexicalDiversity
		fs[ComplexWordRatio] = l.ComplexWordRatio
		fs[AverageWordLength] = l.AverageWordLength
		fs[HapaxRatio] = l.HapaxRatio
		fs[ContentWordRatio] = l.ContentWordRatio
	}
	if s := fv.Sentiment; s != nil {
		fs[SentimentScore] = s.SentimentScore
	}
	if r := fv.Readability; r != nil {
		fs[FleschReadingEase] = r.FleschReadingEase
		fs[AutomatedReadabilityIndex] = r.AutomatedReadabilityIndex
		fs[FleschKincaidGrade] = r.FleschKincaidGrade
	}
	if l := fv.Linguistic; l != nil {
		fs[PronounRatio] = l.PronounRatio
		fs[DeterminerRatio] = l.DeterminerRatio
		fs[PrepositionRatio] = l.PrepositionRatio
		fs[ConjunctionRatio] = l.ConjunctionRatio
		fs[AuxiliaryRatio] = l.AuxiliaryRatio
		fs[DiscourseMarkerRatio] = l.DiscourseMarkerRatio
	}
	if s := fv.Speech; s != nil {
		fs[SpeechRate] = s.SpeechRate
		fs[PauseRatio] = s.PauseRatio
		fs[WordDurationVariation] = s.WordDurationVariation
	}
	if c := fv.Cognitive; c != nil {
		fs[SyntacticComplexity] = c.SyntacticComplexity
		fs[InformationDensity] = c.InformationDensity
		fs[HesitationRatio] = c.HesitationRatio
		fs[RepetitionScore] = c.RepetitionScore
		fs[SemanticFluency] = c.SemanticFluency
		fs[CognitiveHealthScore] = c.CognitiveHealthScore
	}

	return fs
}
